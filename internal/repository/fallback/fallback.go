// Package fallback implements the dual-mode record store: durable when configured,
// with per-call degradation to a process-wide volatile store.
package fallback

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/and161185/briefbridge/internal/errs"
	"github.com/and161185/briefbridge/internal/model"
	"github.com/and161185/briefbridge/internal/repository"
	"github.com/and161185/briefbridge/internal/repository/memory"
)

// Mode names the backing selected at process start.
type Mode string

const (
	ModeDurable  Mode = "durable"
	ModeVolatile Mode = "volatile"
)

// Store routes each call to the durable store when configured. A failed durable call
// is logged and served by the volatile store for that call only; the next call tries
// durable again. Data written while degraded is never copied back.
type Store struct {
	durable   repository.Store
	log       *zap.Logger
	retention int

	vol atomic.Pointer[memory.Store]
}

var _ repository.Store = (*Store)(nil)

// New constructs the store. durable may be nil, selecting volatile mode for the process.
func New(durable repository.Store, retention int, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{durable: durable, retention: retention, log: log}
}

// Mode reports which backing this process was configured with.
func (s *Store) Mode() Mode {
	if s.durable == nil {
		return ModeVolatile
	}
	return ModeDurable
}

// volatile returns the in-memory store, creating it on first use.
func (s *Store) volatile() *memory.Store {
	if v := s.vol.Load(); v != nil {
		return v
	}
	s.vol.CompareAndSwap(nil, memory.New(s.retention))
	return s.vol.Load()
}

// touched returns the in-memory store if anything created it, else nil.
func (s *Store) touched() *memory.Store { return s.vol.Load() }

func (s *Store) degrade(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Error(fmt.Errorf("%w: %w", errs.ErrStoreUnavailable, err)))
	s.log.Warn("durable store failed; serving from memory", fields...)
}

// InsertBrief stores b durably, or in memory if durable mode is off or the call fails.
func (s *Store) InsertBrief(ctx context.Context, b model.Brief) (model.Brief, error) {
	if s.durable != nil {
		out, err := s.durable.InsertBrief(ctx, b)
		if err == nil {
			return out, nil
		}
		s.degrade("insert_brief", err, zap.String("brief_id", b.ID))
	}
	return s.volatile().InsertBrief(ctx, b)
}

// ListBriefs returns newest-first briefs. In volatile mode the whole retained set is returned.
// Briefs written while degraded are merged into durable results.
func (s *Store) ListBriefs(ctx context.Context, limit int) ([]model.Brief, error) {
	if s.durable == nil {
		return s.volatile().ListBriefs(ctx, 0)
	}
	out, err := s.durable.ListBriefs(ctx, limit)
	if err != nil {
		s.degrade("list_briefs", err)
		return s.volatile().ListBriefs(ctx, 0)
	}
	if v := s.touched(); v != nil {
		extra, _ := v.ListBriefs(ctx, 0)
		out = merge(out, extra, limit)
	}
	return out, nil
}

// HasUnlock checks durable first; an unlock taken while degraded also counts.
func (s *Store) HasUnlock(ctx context.Context, briefID string) (bool, error) {
	if s.durable != nil {
		ok, err := s.durable.HasUnlock(ctx, briefID)
		if err == nil {
			if ok {
				return true, nil
			}
			if v := s.touched(); v != nil {
				return v.HasUnlock(ctx, briefID)
			}
			return false, nil
		}
		s.degrade("has_unlock", err, zap.String("brief_id", briefID))
	}
	return s.volatile().HasUnlock(ctx, briefID)
}

// InsertUnlockIfAbsent creates the unlock at most once across both backings.
func (s *Store) InsertUnlockIfAbsent(ctx context.Context, briefID string, unlockedAt int64) (bool, error) {
	if s.durable != nil {
		if v := s.touched(); v != nil {
			if ok, _ := v.HasUnlock(ctx, briefID); ok {
				return false, nil
			}
		}
		created, err := s.durable.InsertUnlockIfAbsent(ctx, briefID, unlockedAt)
		if err == nil {
			return created, nil
		}
		s.degrade("insert_unlock", err, zap.String("brief_id", briefID))
	}
	return s.volatile().InsertUnlockIfAbsent(ctx, briefID, unlockedAt)
}

// merge combines two newest-first lists, dropping duplicate ids, truncated to limit.
func merge(a, b []model.Brief, limit int) []model.Brief {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]model.Brief, 0, len(a)+len(b))
	for _, list := range [][]model.Brief{a, b} {
		for _, br := range list {
			if _, dup := seen[br.ID]; dup {
				continue
			}
			seen[br.ID] = struct{}{}
			out = append(out, br)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
