package limiter

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	fails        int
	lastFail     time.Time
	blockedUntil time.Time
}

// Memory is a process-local Limiter for single-instance deployments and tests.
type Memory struct {
	mu      sync.Mutex
	policy  Policy
	entries map[string]*entry
	now     func() time.Time
}

var _ Limiter = (*Memory)(nil)

// NewMemory constructs an in-memory limiter.
func NewMemory(p Policy) *Memory {
	return &Memory{policy: p, entries: make(map[string]*entry), now: time.Now}
}

func memKey(k Key) string { return k.Email + "\x00" + string(k.IPHash) }

// Allow implements Limiter.
func (m *Memory) Allow(_ context.Context, k Key) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[memKey(k)]
	if !ok {
		return true, 0, nil
	}
	if now := m.now(); e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

// Success implements Limiter.
func (m *Memory) Success(_ context.Context, k Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, memKey(k))
	return nil
}

// Failure implements Limiter.
func (m *Memory) Failure(_ context.Context, k Key) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	e, ok := m.entries[memKey(k)]
	if !ok {
		e = &entry{}
		m.entries[memKey(k)] = e
	}
	if now.Sub(e.lastFail) > m.policy.Window {
		e.fails = 0
	}
	e.fails++
	e.lastFail = now
	if e.fails >= m.policy.MaxFails {
		e.blockedUntil = now.Add(m.policy.BlockFor)
		return true, m.policy.BlockFor, nil
	}
	return false, 0, nil
}
