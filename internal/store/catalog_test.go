package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPieceRepo_PublishedCheck(t *testing.T) {
	repo := openTestStore(t).PieceRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, Piece{ID: "moonlight", Title: "Moonlight Sonata", Composer: "Beethoven", Published: true}))
	require.NoError(t, repo.Create(ctx, Piece{ID: "draft", Title: "Untitled"}))

	ok, err := repo.PieceExistsAndPublished(ctx, "moonlight")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.PieceExistsAndPublished(ctx, "draft")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.PieceExistsAndPublished(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetPublished(ctx, "draft", true))
	ok, err = repo.PieceExistsAndPublished(ctx, "draft")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.ErrorIs(t, repo.SetPublished(ctx, "missing", true), ErrNotFound)
}

func TestPieceRepo_List(t *testing.T) {
	repo := openTestStore(t).PieceRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, Piece{ID: "b", Title: "B"}))
	require.NoError(t, repo.Create(ctx, Piece{ID: "a", Title: "A", Composer: "Bach"}))

	pieces, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, pieces, 2)
	assert.Equal(t, "a", pieces[0].ID)
	assert.Equal(t, "Bach", pieces[0].Composer)
	assert.False(t, pieces[0].CreatedAt.IsZero())
}

func TestPieceRepo_DuplicateID(t *testing.T) {
	repo := openTestStore(t).PieceRepo()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, Piece{ID: "a", Title: "A"}))
	assert.Error(t, repo.Create(ctx, Piece{ID: "a", Title: "A again"}))
}

func TestPerformerRepo(t *testing.T) {
	repo := openTestStore(t).PerformerRepo()
	ctx := context.Background()

	_, err := repo.Get(ctx, "ana")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Create(ctx, Performer{ID: "ana", DisplayName: "Ana"}))
	p, err := repo.Get(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.DisplayName)
}
