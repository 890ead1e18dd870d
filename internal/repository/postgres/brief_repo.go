package postgres

import (
	"context"
	"fmt"

	"github.com/and161185/briefbridge/internal/model"
)

// BriefRepo implements BriefRepository using PostgreSQL.
type BriefRepo struct{ db *DB }

// NewBriefRepo constructs a brief repository.
func NewBriefRepo(db *DB) *BriefRepo { return &BriefRepo{db: db} }

// InsertBrief ensures the schema exists and stores the brief.
func (r *BriefRepo) InsertBrief(ctx context.Context, b model.Brief) (model.Brief, error) {
	if err := r.db.EnsureSchema(ctx); err != nil {
		return model.Brief{}, err
	}
	const q = `
INSERT INTO briefs (id, created_at, title, category, budget_min, budget_max, timeline, details, name, email)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.Pool.Exec(ctx, q,
		b.ID, b.CreatedAt, b.Title, b.Category, b.BudgetMin, b.BudgetMax, b.Timeline, b.Details, b.Name, b.Email)
	if err != nil {
		return model.Brief{}, fmt.Errorf("insert brief: %w", err)
	}
	return b, nil
}

// ListBriefs returns up to limit briefs ordered by created_at DESC.
func (r *BriefRepo) ListBriefs(ctx context.Context, limit int) ([]model.Brief, error) {
	if err := r.db.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	const q = `
SELECT id, created_at, title, category, budget_min, budget_max, timeline, details, name, email
FROM briefs
ORDER BY created_at DESC
LIMIT $1`
	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list briefs: %w", err)
	}
	defer rows.Close()

	out := []model.Brief{}
	for rows.Next() {
		var (
			b       model.Brief
			details *string
		)
		if err = rows.Scan(&b.ID, &b.CreatedAt, &b.Title, &b.Category, &b.BudgetMin, &b.BudgetMax,
			&b.Timeline, &details, &b.Name, &b.Email); err != nil {
			return nil, fmt.Errorf("list briefs: %w", err)
		}
		if details != nil {
			b.Details = *details
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list briefs: %w", err)
	}
	return out, nil
}
