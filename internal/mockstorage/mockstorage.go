// Package mockstorage provides a testify-based mock implementation of the
// storage contract. It is used by repository tests to simulate storage
// failures and to assert which statements a call issues.
package mockstorage

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
	"github.com/patric-chuzhbe/bookbuddy/internal/sqlupdate"
)

// StorageMock is a testify mock of storage.Storage.
type StorageMock struct {
	mock.Mock

	// OnCountUsers, when set, replaces the generic mock handler of
	// CountUsers.
	OnCountUsers func(ctx context.Context) (int64, error)
}

func (m *StorageMock) InsertUser(ctx context.Context, usr *models.User, transaction *sql.Tx) (*models.User, error) {
	args := m.Called(ctx, usr, transaction)
	created, _ := args.Get(0).(*models.User)
	return created, args.Error(1)
}

func (m *StorageMock) GetUserByUsername(ctx context.Context, username string, transaction *sql.Tx) (*models.User, error) {
	args := m.Called(ctx, username, transaction)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Error(1)
}

func (m *StorageMock) GetUserIDByUsername(ctx context.Context, username string, transaction *sql.Tx) (int64, error) {
	args := m.Called(ctx, username, transaction)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StorageMock) ListUsers(ctx context.Context, limit, offset int, transaction *sql.Tx) ([]models.User, error) {
	args := m.Called(ctx, limit, offset, transaction)
	users, _ := args.Get(0).([]models.User)
	return users, args.Error(1)
}

func (m *StorageMock) CountUsers(ctx context.Context, transaction *sql.Tx) (int64, error) {
	if m.OnCountUsers != nil {
		return m.OnCountUsers(ctx)
	}
	args := m.Called(ctx, transaction)
	return args.Get(0).(int64), args.Error(1)
}

func (m *StorageMock) UpdateUser(
	ctx context.Context,
	username string,
	fields []sqlupdate.Field,
	transaction *sql.Tx,
) (*models.User, error) {
	args := m.Called(ctx, username, fields, transaction)
	usr, _ := args.Get(0).(*models.User)
	return usr, args.Error(1)
}

func (m *StorageMock) DeleteUser(ctx context.Context, username string, transaction *sql.Tx) error {
	args := m.Called(ctx, username, transaction)
	return args.Error(0)
}

func (m *StorageMock) InsertSavedBook(
	ctx context.Context,
	book models.NewSavedBook,
	transaction *sql.Tx,
) (*models.SavedBook, error) {
	args := m.Called(ctx, book, transaction)
	saved, _ := args.Get(0).(*models.SavedBook)
	return saved, args.Error(1)
}

func (m *StorageMock) FindSavedBook(
	ctx context.Context,
	userID int64,
	bookID string,
	transaction *sql.Tx,
) (*models.SavedBook, error) {
	args := m.Called(ctx, userID, bookID, transaction)
	book, _ := args.Get(0).(*models.SavedBook)
	return book, args.Error(1)
}

func (m *StorageMock) ListSavedBooks(ctx context.Context, userID int64, transaction *sql.Tx) ([]models.SavedBook, error) {
	args := m.Called(ctx, userID, transaction)
	books, _ := args.Get(0).([]models.SavedBook)
	return books, args.Error(1)
}

func (m *StorageMock) GetSavedBook(ctx context.Context, id int64, transaction *sql.Tx) (*models.SavedBook, error) {
	args := m.Called(ctx, id, transaction)
	book, _ := args.Get(0).(*models.SavedBook)
	return book, args.Error(1)
}

func (m *StorageMock) SetComment(
	ctx context.Context,
	bookID string,
	userID int64,
	comment *string,
	transaction *sql.Tx,
) (*models.SavedBook, error) {
	args := m.Called(ctx, bookID, userID, comment, transaction)
	book, _ := args.Get(0).(*models.SavedBook)
	return book, args.Error(1)
}

func (m *StorageMock) DeleteSavedBook(ctx context.Context, bookID string, userID int64, transaction *sql.Tx) error {
	args := m.Called(ctx, bookID, userID, transaction)
	return args.Error(0)
}

func (m *StorageMock) CountSavedBooks(ctx context.Context, transaction *sql.Tx) (int64, error) {
	args := m.Called(ctx, transaction)
	return args.Get(0).(int64), args.Error(1)
}

// BeginTransaction mocks the beginning of a transaction.
func (m *StorageMock) BeginTransaction(ctx context.Context) (*sql.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(*sql.Tx)
	return tx, args.Error(1)
}

// CommitTransaction mocks committing a transaction.
func (m *StorageMock) CommitTransaction(tx *sql.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// RollbackTransaction mocks rolling back a transaction.
func (m *StorageMock) RollbackTransaction(tx *sql.Tx) error {
	args := m.Called(tx)
	return args.Error(0)
}

// Ping mocks the storage health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
