package limiter

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG is a PostgreSQL-backed fixed-window limiter keyed by hashed client IP.
type PG struct {
	pool   pgxQuerier
	window time.Duration
	max    int
	now    func() time.Time
}

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPG constructs a PostgreSQL-backed limiter.
func NewPG(pool *pgxpool.Pool, window time.Duration, max int) *PG {
	return NewPGWithQuerier(pool, window, max)
}

// NewPGWithQuerier constructs a PostgreSQL-backed limiter over any querier.
func NewPGWithQuerier(q pgxQuerier, window time.Duration, max int) *PG {
	return &PG{pool: q, window: window, max: max, now: time.Now}
}

// Allow counts the attempt in the current window, opening a new window once the old one expires.
func (l *PG) Allow(ctx context.Context, ipHash []byte) (bool, time.Duration, error) {
	const q = `
INSERT INTO submission_limiter (ip_hash, window_start, hits)
VALUES ($1, now(), 1)
ON CONFLICT (ip_hash) DO UPDATE
SET
  hits = CASE WHEN now() - submission_limiter.window_start > $2::interval THEN 1 ELSE submission_limiter.hits + 1 END,
  window_start = CASE WHEN now() - submission_limiter.window_start > $2::interval THEN now() ELSE submission_limiter.window_start END
RETURNING hits, window_start + $2::interval`
	var (
		hits  int
		until time.Time
	)
	if err := l.pool.QueryRow(ctx, q, ipHash, l.window).Scan(&hits, &until); err != nil {
		return false, 0, err
	}
	if hits > l.max {
		retry := until.Sub(l.now())
		if retry < 0 {
			retry = 0
		}
		return false, retry, nil
	}
	return true, 0, nil
}
