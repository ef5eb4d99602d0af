package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepo_AppendAssignsIDAndSequence(t *testing.T) {
	repo := openTestStore(t).HistoryRepo()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	e1, err := repo.AppendHistory(ctx, HistoryEntry{
		PerformerID: "p1", PieceID: "moonlight", Duration: 20, Confidence: 4,
		Notes: "left hand shaky", PracticedAt: now,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e1.ID)
	assert.Equal(t, int64(1), e1.Sequence)

	e2, err := repo.AppendHistory(ctx, HistoryEntry{
		PerformerID: "p1", PieceID: "moonlight", Duration: 30, Confidence: 5, PracticedAt: now,
	})
	require.NoError(t, err)
	assert.NotEqual(t, e1.ID, e2.ID)
	assert.Equal(t, int64(2), e2.Sequence)

	got, err := repo.GetHistory(ctx, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, "left hand shaky", got.Notes)
	assert.Equal(t, 20, got.Duration)
	assert.True(t, got.PracticedAt.Equal(now))
}

func TestHistoryRepo_GetMissing(t *testing.T) {
	repo := openTestStore(t).HistoryRepo()
	_, err := repo.GetHistory(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryRepo_RecentNewestFirst(t *testing.T) {
	repo := openTestStore(t).HistoryRepo()
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 1; i <= 4; i++ {
		_, err := repo.AppendHistory(ctx, HistoryEntry{
			PerformerID: "p1", PieceID: "moonlight", Duration: i * 10, Confidence: 3, PracticedAt: now,
		})
		require.NoError(t, err)
	}
	_, err := repo.AppendHistory(ctx, HistoryEntry{
		PerformerID: "p1", PieceID: "etude", Duration: 5, Confidence: 3, PracticedAt: now,
	})
	require.NoError(t, err)

	all, err := repo.RecentHistory(ctx, "p1", "moonlight", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, 40, all[0].Duration)
	assert.Equal(t, 10, all[3].Duration)

	two, err := repo.RecentHistory(ctx, "p1", "moonlight", 2)
	require.NoError(t, err)
	require.Len(t, two, 2)
	assert.Equal(t, 40, two[0].Duration)
	assert.Equal(t, 30, two[1].Duration)
}
