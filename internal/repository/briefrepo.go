// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/briefbridge/internal/model"
)

// BriefRepository provides append-only access to briefs.
type BriefRepository interface {
	// InsertBrief stores a brief and returns the stored record.
	InsertBrief(ctx context.Context, b model.Brief) (model.Brief, error)
	// ListBriefs returns briefs newest-first by CreatedAt, at most limit (limit <= 0 means all retained).
	ListBriefs(ctx context.Context, limit int) ([]model.Brief, error)
}
