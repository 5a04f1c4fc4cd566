package revoke

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Revoke(ctx, "a", now.Add(time.Hour)))
	require.NoError(t, m.Revoke(ctx, "past", now.Add(-time.Second)))

	ok, err := m.Revoked(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	ok, _ = m.Revoked(ctx, "past")
	require.False(t, ok, "already expired tokens need no entry")
	ok, _ = m.Revoked(ctx, "b")
	require.False(t, ok)

	now = now.Add(2 * time.Hour)
	ok, _ = m.Revoked(ctx, "a")
	require.False(t, ok)

	require.NoError(t, m.Revoke(ctx, "c", now.Add(time.Minute)))
	require.Len(t, m.entries, 1, "expired entries pruned")
	require.NoError(t, m.Close())
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := DialRedis(ctx, addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	require.NoError(t, r.Ping(ctx))

	id := uuid.Must(uuid.NewV4()).String()
	ok, err := r.Revoked(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, r.Revoke(ctx, id, time.Now().Add(time.Minute)))
	ok, err = r.Revoked(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	ttl, err := r.client.TTL(ctx, keyPrefix+id).Result()
	require.NoError(t, err)
	require.LessOrEqual(t, ttl, time.Minute)
	require.Greater(t, ttl, time.Duration(0))
}
