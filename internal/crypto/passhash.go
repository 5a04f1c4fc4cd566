// Package crypto hashes account passwords on the server.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// SaltLen is the per-user salt size.
const SaltLen = 16

// Params are Argon2id cost parameters.
type Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultParams are used in production.
var DefaultParams = Params{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: 32}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// Hasher derives and checks password hashes.
type Hasher struct {
	p     Params
	dummy []byte
}

// NewHasher returns a Hasher with the given cost.
func NewHasher(p Params) *Hasher {
	h := &Hasher{p: p}
	h.dummy = h.Hash([]byte("geocam-unknown-account"), make([]byte, SaltLen))
	return h
}

// NewSalt returns a fresh salt.
func (h *Hasher) NewSalt() ([]byte, error) { return RandBytes(SaltLen) }

// Hash returns the Argon2id hash of password under salt.
func (h *Hasher) Hash(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, h.p.Time, h.p.Memory, h.p.Threads, h.p.KeyLen)
}

// Verify compares password against expected in constant time.
func (h *Hasher) Verify(password, salt, expected []byte) bool {
	return subtle.ConstantTimeCompare(h.Hash(password, salt), expected) == 1
}

// Burn spends the same work as Verify for logins against unknown accounts.
func (h *Hasher) Burn(password []byte) {
	_ = h.Verify(password, make([]byte, SaltLen), h.dummy)
}
