package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/bookbuddy/internal/db/memorystorage"
	"github.com/patric-chuzhbe/bookbuddy/internal/mockstorage"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

func newBookRepo(t *testing.T) (*BookRepository, int64, int64) {
	t.Helper()
	db := memorystorage.New()
	users := NewUserRepository(db, newTestHasher(t))
	owner := register(t, users, "owner")
	stranger := register(t, users, "stranger")
	return NewBookRepository(db), owner.ID, stranger.ID
}

func TestAddTwiceConflicts(t *testing.T) {
	ctx := context.Background()
	repo, owner, _ := newBookRepo(t)

	book := models.NewSavedBook{UserID: owner, BookID: "b1", Title: "Dune", Authors: "Frank Herbert", ThumbnailURL: strPtr("http://img/dune.jpg")}
	saved, err := repo.Add(ctx, book)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.SavedAt.IsZero())
	assert.Nil(t, saved.Comment)

	_, err = repo.Add(ctx, book)
	assert.ErrorIs(t, err, models.ErrConflict)

	books, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, books, 1)

	got, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)

	_, err = repo.GetByID(ctx, saved.ID+100)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAddRequiresBookID(t *testing.T) {
	repo, owner, _ := newBookRepo(t)
	_, err := repo.Add(context.Background(), models.NewSavedBook{UserID: owner})
	assert.ErrorIs(t, err, models.ErrBadInput)
}

func TestAddRollsBackOnStorageFailure(t *testing.T) {
	errBroken := errors.New("broken")
	db := &mockstorage.StorageMock{}
	db.On("BeginTransaction", mock.Anything).Return(nil, nil)
	db.On("FindSavedBook", mock.Anything, int64(1), "b1", mock.Anything).Return(nil, errBroken)
	db.On("RollbackTransaction", mock.Anything).Return(nil)

	_, err := NewBookRepository(db).Add(context.Background(), models.NewSavedBook{UserID: 1, BookID: "b1"})
	assert.ErrorIs(t, err, errBroken)
	db.AssertExpectations(t)
	db.AssertNotCalled(t, "InsertSavedBook", mock.Anything, mock.Anything, mock.Anything)
}

func TestListByOwnerNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo, owner, stranger := newBookRepo(t)

	for _, id := range []string{"b1", "b2", "b3"} {
		_, err := repo.Add(ctx, models.NewSavedBook{UserID: owner, BookID: id, Title: id})
		require.NoError(t, err)
	}
	_, err := repo.Add(ctx, models.NewSavedBook{UserID: stranger, BookID: "b9"})
	require.NoError(t, err)

	books, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	ids := []string{}
	for _, book := range books {
		ids = append(ids, book.BookID)
	}
	assert.Equal(t, []string{"b3", "b2", "b1"}, ids)

	summaries, err := repo.ListSummariesByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, models.BookSummary{BookID: "b3", Title: "b3"}, summaries[0])

	empty, err := repo.ListSummariesByOwner(ctx, owner+stranger+100)
	require.NoError(t, err)
	assert.Equal(t, []models.BookSummary{}, empty)
}

func TestScopedMutationsNeverTouchOtherOwners(t *testing.T) {
	ctx := context.Background()
	repo, owner, stranger := newBookRepo(t)

	saved, err := repo.Add(ctx, models.NewSavedBook{UserID: owner, BookID: "b1", Comment: strPtr("original")})
	require.NoError(t, err)

	_, err = repo.SetComment(ctx, "b1", stranger, strPtr("hijacked"))
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.Remove(ctx, "b1", stranger), models.ErrNotFound)

	got, err := repo.GetByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", *got.Comment)

	updated, err := repo.SetComment(ctx, "b1", owner, strPtr("changed"))
	require.NoError(t, err)
	assert.Equal(t, "changed", *updated.Comment)

	require.NoError(t, repo.Remove(ctx, "b1", owner))
	assert.ErrorIs(t, repo.Remove(ctx, "b1", owner), models.ErrNotFound)
}
