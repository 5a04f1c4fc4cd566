package limiter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by PG.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PG is a PostgreSQL-backed limiter, shared by all server instances.
type PG struct {
	db     Querier
	policy Policy
}

var _ Limiter = (*PG)(nil)

// NewPG constructs a PostgreSQL-backed limiter over a pool or transaction.
func NewPG(db Querier, p Policy) *PG {
	return &PG{db: db, policy: p}
}

// Allow implements Limiter.
func (l *PG) Allow(ctx context.Context, k Key) (bool, time.Duration, error) {
	const q = `SELECT blocked_until FROM auth_limiter WHERE email=$1 AND ip_hash=$2`
	var blockedUntil time.Time
	err := l.db.QueryRow(ctx, q, k.Email, k.IPHash).Scan(&blockedUntil)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return true, 0, nil
	case err != nil:
		return false, 0, err
	}
	if d := time.Until(blockedUntil); d > 0 {
		return false, d, nil
	}
	return true, 0, nil
}

// Success implements Limiter.
func (l *PG) Success(ctx context.Context, k Key) error {
	const q = `DELETE FROM auth_limiter WHERE email=$1 AND ip_hash=$2`
	_, err := l.db.Exec(ctx, q, k.Email, k.IPHash)
	return err
}

// Failure implements Limiter. Counting and blocking happen in one statement.
func (l *PG) Failure(ctx context.Context, k Key) (bool, time.Duration, error) {
	const q = `
INSERT INTO auth_limiter (email, ip_hash, fail_count, blocked_until, updated_at)
VALUES ($1, $2, 1, CASE WHEN $3 <= 1 THEN now() + $4::interval ELSE 'epoch' END, now())
ON CONFLICT (email, ip_hash) DO UPDATE
SET
  fail_count = CASE WHEN now() - auth_limiter.updated_at > $5::interval THEN 1 ELSE auth_limiter.fail_count + 1 END,
  blocked_until = CASE
    WHEN (CASE WHEN now() - auth_limiter.updated_at > $5::interval THEN 1 ELSE auth_limiter.fail_count + 1 END) >= $3
    THEN now() + $4::interval
    ELSE auth_limiter.blocked_until
  END,
  updated_at = now()
RETURNING fail_count`
	var fails int
	if err := l.db.QueryRow(ctx, q, k.Email, k.IPHash, l.policy.MaxFails, l.policy.BlockFor, l.policy.Window).Scan(&fails); err != nil {
		return false, 0, err
	}
	if fails >= l.policy.MaxFails {
		return true, l.policy.BlockFor, nil
	}
	return false, 0, nil
}
