// Package revoke keeps a list of logged-out tokens until they expire.
package revoke

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token IDs.
type Denylist interface {
	// Revoke marks id as revoked until the token's own expiry.
	Revoke(ctx context.Context, id string, until time.Time) error
	// Revoked reports whether id was revoked and has not yet expired.
	Revoked(ctx context.Context, id string) (bool, error)
	Close() error
}

// Memory is a process-local Denylist.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

var _ Denylist = (*Memory)(nil)

// NewMemory constructs an empty in-memory denylist.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time), now: time.Now}
}

// Revoke implements Denylist. Expired entries are pruned on every write.
func (m *Memory) Revoke(_ context.Context, id string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, k)
		}
	}
	if until.After(now) {
		m.entries[id] = until
	}
	return nil
}

// Revoked implements Denylist.
func (m *Memory) Revoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.entries[id]
	return ok && exp.After(m.now()), nil
}

// Close implements Denylist.
func (m *Memory) Close() error { return nil }

const keyPrefix = "geocam:revoked:"

// Redis is a Denylist shared by all server instances. Keys expire with the token.
type Redis struct {
	client *redis.Client
}

var _ Denylist = (*Redis)(nil)

// NewRedis wraps client.
func NewRedis(client *redis.Client) *Redis { return &Redis{client: client} }

// DialRedis connects to addr and verifies it answers.
func DialRedis(ctx context.Context, addr string) (*Redis, error) {
	c := redis.NewClient(&redis.Options{Addr: addr})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return NewRedis(c), nil
}

// Revoke implements Denylist.
func (r *Redis) Revoke(ctx context.Context, id string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.client.Set(ctx, keyPrefix+id, 1, ttl).Err()
}

// Revoked implements Denylist.
func (r *Redis) Revoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping checks Redis is reachable.
func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// Close implements Denylist.
func (r *Redis) Close() error { return r.client.Close() }
