package ratelimit

import (
	"context"
	"time"

	"lastclick/internal/store"

	"github.com/jonboulle/clockwork"
)

// PostgresLimiter keeps windows in the rate_limits table of the
// authoritative store.
type PostgresLimiter struct {
	store *store.Store
	clock clockwork.Clock
}

func NewPostgres(st *store.Store, clock clockwork.Clock) *PostgresLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &PostgresLimiter{store: st, clock: clock}
}

func (l *PostgresLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.clock.Now()
	expires := now.Add(window)

	// One upsert owns the whole window transition: an expired row restarts
	// the window, a live one increments it.
	row := l.store.Pool.QueryRow(ctx, `INSERT INTO rate_limits (key, count, window_start, expires_at)
		VALUES ($1, 1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			count = CASE WHEN rate_limits.expires_at <= $2 THEN 1 ELSE rate_limits.count + 1 END,
			window_start = CASE WHEN rate_limits.expires_at <= $2 THEN $2 ELSE rate_limits.window_start END,
			expires_at = CASE WHEN rate_limits.expires_at <= $2 THEN $3 ELSE rate_limits.expires_at END
		RETURNING count, expires_at`, key, now, expires)

	var count int64
	var expiresAt time.Time
	if err := row.Scan(&count, &expiresAt); err != nil {
		return Result{}, err
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(limit),
		Remaining: remaining,
		ResetIn:   expiresAt.Sub(now),
	}, nil
}

// Sweep drops expired windows; the scheduler tick calls it so the table does
// not grow without bound.
func (l *PostgresLimiter) Sweep(ctx context.Context) (int64, error) {
	tag, err := l.store.Pool.Exec(ctx, `DELETE FROM rate_limits WHERE expires_at <= $1`, l.clock.Now())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
