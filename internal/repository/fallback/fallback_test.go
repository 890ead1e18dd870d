package fallback

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/briefbridge/internal/model"
	"github.com/and161185/briefbridge/internal/repository"
	"github.com/and161185/briefbridge/internal/repository/memory"
)

// flakyStore wraps a memory store and fails every call while down is set.
type flakyStore struct {
	mu    sync.Mutex
	down  bool
	inner *memory.Store
	calls int
}

var _ repository.Store = (*flakyStore)(nil)

var errDown = errors.New("dial tcp 10.0.0.1:5432: connect: connection refused")

func newFlaky() *flakyStore { return &flakyStore{inner: memory.New(100)} }

func (f *flakyStore) fail() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.down {
		return errDown
	}
	return nil
}

func (f *flakyStore) setDown(v bool) {
	f.mu.Lock()
	f.down = v
	f.mu.Unlock()
}

func (f *flakyStore) InsertBrief(ctx context.Context, b model.Brief) (model.Brief, error) {
	if err := f.fail(); err != nil {
		return model.Brief{}, err
	}
	return f.inner.InsertBrief(ctx, b)
}

func (f *flakyStore) ListBriefs(ctx context.Context, limit int) ([]model.Brief, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.inner.ListBriefs(ctx, limit)
}

func (f *flakyStore) HasUnlock(ctx context.Context, id string) (bool, error) {
	if err := f.fail(); err != nil {
		return false, err
	}
	return f.inner.HasUnlock(ctx, id)
}

func (f *flakyStore) InsertUnlockIfAbsent(ctx context.Context, id string, at int64) (bool, error) {
	if err := f.fail(); err != nil {
		return false, err
	}
	return f.inner.InsertUnlockIfAbsent(ctx, id, at)
}

func TestStore_Mode(t *testing.T) {
	require.Equal(t, ModeVolatile, New(nil, 10, nil).Mode())
	require.Equal(t, ModeDurable, New(newFlaky(), 10, nil).Mode())
}

func TestStore_VolatileOnly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(nil, 3, zaptest.NewLogger(t))

	for i := int64(1); i <= 4; i++ {
		_, err := s.InsertBrief(ctx, model.Brief{ID: string(rune('a' + i)), CreatedAt: i})
		require.NoError(t, err)
	}
	out, err := s.ListBriefs(ctx, 100)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, int64(4), out[0].CreatedAt)

	created, err := s.InsertUnlockIfAbsent(ctx, "b1", 1)
	require.NoError(t, err)
	require.True(t, created)
	created, err = s.InsertUnlockIfAbsent(ctx, "b1", 2)
	require.NoError(t, err)
	require.False(t, created)
}

func TestStore_DurableHealthy_NoVolatileWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d := newFlaky()
	s := New(d, 10, zaptest.NewLogger(t))

	_, err := s.InsertBrief(ctx, model.Brief{ID: "b1", CreatedAt: 1})
	require.NoError(t, err)
	created, err := s.InsertUnlockIfAbsent(ctx, "b1", 5)
	require.NoError(t, err)
	require.True(t, created)

	require.Nil(t, s.touched())
	n, u := d.inner.Len()
	require.Equal(t, 1, n)
	require.Equal(t, 1, u)
}

func TestStore_DegradesPerCall(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d := newFlaky()
	s := New(d, 10, zaptest.NewLogger(t))

	_, err := s.InsertBrief(ctx, model.Brief{ID: "old", CreatedAt: 1})
	require.NoError(t, err)

	d.setDown(true)
	_, err = s.InsertBrief(ctx, model.Brief{ID: "mid", CreatedAt: 2})
	require.NoError(t, err, "durable failure must not surface")

	out, err := s.ListBriefs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "mid", out[0].ID)

	d.setDown(false)
	_, err = s.InsertBrief(ctx, model.Brief{ID: "new", CreatedAt: 3})
	require.NoError(t, err)

	out, err = s.ListBriefs(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"new", "mid", "old"}, []string{out[0].ID, out[1].ID, out[2].ID})

	n, _ := d.inner.Len()
	require.Equal(t, 2, n, "degraded write is not promoted back")
}

func TestStore_UnlockAtMostOnceAcrossBackings(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	d := newFlaky()
	s := New(d, 10, zaptest.NewLogger(t))

	d.setDown(true)
	created, err := s.InsertUnlockIfAbsent(ctx, "b1", 10)
	require.NoError(t, err)
	require.True(t, created)

	has, err := s.HasUnlock(ctx, "b1")
	require.NoError(t, err)
	require.True(t, has)

	d.setDown(false)
	created, err = s.InsertUnlockIfAbsent(ctx, "b1", 20)
	require.NoError(t, err)
	require.False(t, created)

	has, err = s.HasUnlock(ctx, "b1")
	require.NoError(t, err)
	require.True(t, has)

	_, u := d.inner.Len()
	require.Equal(t, 0, u)
}

func TestMerge_DedupAndLimit(t *testing.T) {
	a := []model.Brief{{ID: "x", CreatedAt: 5}, {ID: "y", CreatedAt: 1}}
	b := []model.Brief{{ID: "z", CreatedAt: 3}, {ID: "x", CreatedAt: 5}}

	out := merge(a, b, 2)
	require.Len(t, out, 2)
	require.Equal(t, "x", out[0].ID)
	require.Equal(t, "z", out[1].ID)

	require.Equal(t, a, merge(a, nil, 2))
}
