package postgres

import (
	"context"
	"fmt"
)

// UnlockRepo implements UnlockRepository using PostgreSQL.
type UnlockRepo struct{ db *DB }

// NewUnlockRepo constructs an unlock repository.
func NewUnlockRepo(db *DB) *UnlockRepo { return &UnlockRepo{db: db} }

// HasUnlock reports whether brief_id has an unlock row.
func (r *UnlockRepo) HasUnlock(ctx context.Context, briefID string) (bool, error) {
	if err := r.db.EnsureSchema(ctx); err != nil {
		return false, err
	}
	const q = `SELECT EXISTS (SELECT 1 FROM unlocks WHERE brief_id=$1)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, briefID).Scan(&ok); err != nil {
		return false, fmt.Errorf("has unlock: %w", err)
	}
	return ok, nil
}

// InsertUnlockIfAbsent relies on the brief_id primary key; the first writer's timestamp wins.
func (r *UnlockRepo) InsertUnlockIfAbsent(ctx context.Context, briefID string, unlockedAt int64) (bool, error) {
	if err := r.db.EnsureSchema(ctx); err != nil {
		return false, err
	}
	const q = `INSERT INTO unlocks (brief_id, unlocked_at) VALUES ($1,$2) ON CONFLICT (brief_id) DO NOTHING`
	tag, err := r.db.Pool.Exec(ctx, q, briefID, unlockedAt)
	if err != nil {
		return false, fmt.Errorf("insert unlock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
