// Package memory provides the volatile record store used when no durable backend is available.
package memory

import (
	"context"
	"sync"

	"github.com/and161185/briefbridge/internal/model"
)

// DefaultRetention bounds the number of briefs kept in memory.
const DefaultRetention = 200

// Store keeps briefs newest-first, capped at retention, and unlocks keyed by brief id.
// Contents live for the process lifetime only.
type Store struct {
	mu        sync.RWMutex
	retention int
	briefs    []model.Brief
	unlocks   map[string]model.Unlock
}

// New constructs a volatile store; retention <= 0 selects DefaultRetention.
func New(retention int) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{retention: retention, unlocks: make(map[string]model.Unlock)}
}

// InsertBrief prepends b and drops the oldest records past retention.
func (s *Store) InsertBrief(_ context.Context, b model.Brief) (model.Brief, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Keep newest-first by CreatedAt even if clocks hand out equal or older stamps.
	i := 0
	for i < len(s.briefs) && s.briefs[i].CreatedAt > b.CreatedAt {
		i++
	}
	s.briefs = append(s.briefs, model.Brief{})
	copy(s.briefs[i+1:], s.briefs[i:])
	s.briefs[i] = b
	if len(s.briefs) > s.retention {
		s.briefs = s.briefs[:s.retention]
	}
	return b, nil
}

// ListBriefs returns a copy of up to limit retained briefs; limit <= 0 returns all of them.
func (s *Store) ListBriefs(_ context.Context, limit int) ([]model.Brief, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.briefs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Brief, n)
	copy(out, s.briefs[:n])
	return out, nil
}

// HasUnlock reports whether briefID has been unlocked in this process.
func (s *Store) HasUnlock(_ context.Context, briefID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.unlocks[briefID]
	return ok, nil
}

// InsertUnlockIfAbsent records the unlock unless one exists; the first writer wins.
func (s *Store) InsertUnlockIfAbsent(_ context.Context, briefID string, unlockedAt int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.unlocks[briefID]; ok {
		return false, nil
	}
	s.unlocks[briefID] = model.Unlock{BriefID: briefID, UnlockedAt: unlockedAt}
	return true, nil
}

// Unlock returns the stored unlock for briefID.
func (s *Store) Unlock(briefID string) (model.Unlock, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.unlocks[briefID]
	return u, ok
}

// Len returns the number of retained briefs and unlocks.
func (s *Store) Len() (briefs, unlocks int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.briefs), len(s.unlocks)
}
