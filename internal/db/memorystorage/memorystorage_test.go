package memorystorage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/bookbuddy/internal/db/storage"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
	"github.com/patric-chuzhbe/bookbuddy/internal/sqlupdate"
)

var _ storage.Storage = (*MemoryStorage)(nil)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	theStorage := New()
	defer func() { require.NoError(t, theStorage.Close()) }()

	alice, err := theStorage.InsertUser(ctx, &models.User{Username: "alice", Email: "a@x.io", PasswordHash: "h1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), alice.ID)
	assert.False(t, alice.CreatedAt.IsZero())

	_, err = theStorage.InsertUser(ctx, &models.User{Username: "alice", Email: "other@x.io"}, nil)
	assert.ErrorIs(t, err, models.ErrConflict)
	_, err = theStorage.InsertUser(ctx, &models.User{Username: "alice2", Email: "a@x.io"}, nil)
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = theStorage.InsertUser(ctx, &models.User{Username: "bob", Email: "b@x.io", PasswordHash: "h2"}, nil)
	require.NoError(t, err)

	got, err := theStorage.GetUserByUsername(ctx, "alice", nil)
	require.NoError(t, err)
	assert.Equal(t, "h1", got.PasswordHash)

	_, err = theStorage.GetUserByUsername(ctx, "nobody", nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	users, err := theStorage.ListUsers(ctx, 1, 1, nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)
	assert.Empty(t, users[0].PasswordHash)

	users, err = theStorage.ListUsers(ctx, 10, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, users)

	updated, err := theStorage.UpdateUser(ctx, "alice", []sqlupdate.Field{{Name: "email", Value: "new@x.io"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "new@x.io", updated.Email)

	_, err = theStorage.UpdateUser(ctx, "alice", []sqlupdate.Field{{Name: "email", Value: "b@x.io"}}, nil)
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = theStorage.UpdateUser(ctx, "nobody", []sqlupdate.Field{{Name: "email", Value: "z@x.io"}}, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = theStorage.UpdateUser(ctx, "alice", nil, nil)
	assert.ErrorIs(t, err, models.ErrBadInput)

	count, err := theStorage.CountUsers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestSavedBooksAreScopedAndCascade(t *testing.T) {
	ctx := context.Background()
	theStorage := New()

	alice, err := theStorage.InsertUser(ctx, &models.User{Username: "alice", Email: "a@x.io"}, nil)
	require.NoError(t, err)
	bob, err := theStorage.InsertUser(ctx, &models.User{Username: "bob", Email: "b@x.io"}, nil)
	require.NoError(t, err)

	for _, bookID := range []string{"b1", "b2"} {
		_, err := theStorage.InsertSavedBook(ctx, models.NewSavedBook{UserID: alice.ID, BookID: bookID, Title: bookID}, nil)
		require.NoError(t, err)
	}
	_, err = theStorage.InsertSavedBook(ctx, models.NewSavedBook{UserID: alice.ID, BookID: "b1"}, nil)
	assert.ErrorIs(t, err, models.ErrConflict)

	bobs, err := theStorage.InsertSavedBook(ctx, models.NewSavedBook{UserID: bob.ID, BookID: "b1"}, nil)
	require.NoError(t, err)

	books, err := theStorage.ListSavedBooks(ctx, alice.ID, nil)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "b2", books[0].BookID)

	comment := "great"
	_, err = theStorage.SetComment(ctx, "b2", bob.ID, &comment, nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, theStorage.DeleteSavedBook(ctx, "b2", bob.ID, nil), models.ErrNotFound)

	commented, err := theStorage.SetComment(ctx, "b1", bob.ID, &comment, nil)
	require.NoError(t, err)
	assert.Equal(t, bobs.ID, commented.ID)
	assert.Equal(t, "great", *commented.Comment)

	require.NoError(t, theStorage.DeleteUser(ctx, "alice", nil))
	count, err := theStorage.CountSavedBooks(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = theStorage.GetSavedBook(ctx, bobs.ID, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, theStorage.DeleteUser(ctx, "alice", nil), models.ErrNotFound)
}

func TestConcurrentInsertsKeepUsernamesUnique(t *testing.T) {
	ctx := context.Background()
	theStorage := New()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := theStorage.InsertUser(ctx, &models.User{Username: "same", Email: fmt.Sprintf("%d@x.io", i)}, nil)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, models.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)
}
