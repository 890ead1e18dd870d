package repository

import "context"

// UnlockRepository records which briefs have been paid for.
type UnlockRepository interface {
	// HasUnlock reports whether an unlock exists for briefID.
	HasUnlock(ctx context.Context, briefID string) (bool, error)
	// InsertUnlockIfAbsent atomically creates the unlock only if none exists for briefID.
	// It reports whether a new record was created; concurrent callers for one key see exactly one true.
	InsertUnlockIfAbsent(ctx context.Context, briefID string, unlockedAt int64) (bool, error)
}

// Store is the full record store used by services.
type Store interface {
	BriefRepository
	UnlockRepository
}
