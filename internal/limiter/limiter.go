// Package limiter throttles failed logins per (email, client address).
package limiter

import (
	"context"
	"crypto/sha256"
	"net"
	"strings"
	"time"
)

// Key identifies a throttled login source. Raw addresses are never stored.
type Key struct {
	Email  string
	IPHash []byte
}

// NewKey normalizes the email and hashes the host part of remoteAddr.
func NewKey(email, remoteAddr string) Key {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	sum := sha256.Sum256([]byte(host))
	return Key{Email: strings.ToLower(strings.TrimSpace(email)), IPHash: sum[:]}
}

// Limiter controls login attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether a login may be attempted and, if not, for how long it is blocked.
	Allow(ctx context.Context, k Key) (bool, time.Duration, error)
	// Success resets counters after a successful login.
	Success(ctx context.Context, k Key) error
	// Failure records a failed attempt and reports whether it triggered a block.
	Failure(ctx context.Context, k Key) (bool, time.Duration, error)
}

// Policy is the sliding window and lockout configuration.
type Policy struct {
	Window   time.Duration // failures older than this start a new count
	MaxFails int
	BlockFor time.Duration
}

// DefaultPolicy allows five failures per 15 minutes.
var DefaultPolicy = Policy{Window: 15 * time.Minute, MaxFails: 5, BlockFor: 15 * time.Minute}
