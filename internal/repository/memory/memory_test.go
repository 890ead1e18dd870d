package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/briefbridge/internal/model"
)

func TestNew_DefaultRetention(t *testing.T) {
	s := New(0)
	require.Equal(t, DefaultRetention, s.retention)
}

func TestStore_ListBriefs_NewestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(10)

	for i, ts := range []int64{100, 300, 200, 300} {
		_, err := s.InsertBrief(ctx, model.Brief{ID: fmt.Sprintf("b%d", i), CreatedAt: ts, Title: "t", Details: "d"})
		require.NoError(t, err)
	}

	out, err := s.ListBriefs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, out, 4)
	// equal stamps: the later insert comes first
	require.Equal(t, []string{"b3", "b1", "b2", "b0"}, []string{out[0].ID, out[1].ID, out[2].ID, out[3].ID})

	out, err = s.ListBriefs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "b3", out[0].ID)
}

func TestStore_InsertBrief_CapsRetention(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(3)

	for i := 0; i < 5; i++ {
		_, err := s.InsertBrief(ctx, model.Brief{ID: fmt.Sprintf("b%d", i), CreatedAt: int64(i)})
		require.NoError(t, err)
	}

	out, err := s.ListBriefs(ctx, 0)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, "b4", out[0].ID)
	require.Equal(t, "b2", out[2].ID)
}

func TestStore_ListBriefs_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := New(5)
	_, _ = s.InsertBrief(ctx, model.Brief{ID: "b1", CreatedAt: 1})

	out, _ := s.ListBriefs(ctx, 0)
	out[0].ID = "mutated"

	again, _ := s.ListBriefs(ctx, 0)
	require.Equal(t, "b1", again[0].ID)
}

func TestStore_InsertUnlockIfAbsent_FirstWriterWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(5)

	created, err := s.InsertUnlockIfAbsent(ctx, "b1", 10)
	require.NoError(t, err)
	require.True(t, created)

	created, err = s.InsertUnlockIfAbsent(ctx, "b1", 20)
	require.NoError(t, err)
	require.False(t, created)

	u, ok := s.Unlock("b1")
	require.True(t, ok)
	require.Equal(t, int64(10), u.UnlockedAt)

	has, err := s.HasUnlock(ctx, "b1")
	require.NoError(t, err)
	require.True(t, has)

	has, err = s.HasUnlock(ctx, "other")
	require.NoError(t, err)
	require.False(t, has)
}

func TestStore_InsertUnlockIfAbsent_Concurrent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := New(5)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(ts int64) {
			defer wg.Done()
			if created, _ := s.InsertUnlockIfAbsent(ctx, "b1", ts); created {
				winners.Add(1)
			}
		}(int64(i))
	}
	wg.Wait()

	require.Equal(t, int32(1), winners.Load())
	_, unlocks := s.Len()
	require.Equal(t, 1, unlocks)
}
