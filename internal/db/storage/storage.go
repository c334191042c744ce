// Package storage declares the persistence contract shared by every backend.
package storage

import (
	"context"
	"database/sql"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
	"github.com/patric-chuzhbe/bookbuddy/internal/sqlupdate"
)

// UserColumns maps logical user fields onto users table columns.
var UserColumns = map[string]string{
	"username": "username",
	"email":    "email",
	"password": "password_hash",
}

// Storage is implemented by postgresdb, jsondb and memorystorage. Every
// method accepts an optional transaction; nil runs the statement on its own.
type Storage interface {
	InsertUser(ctx context.Context, usr *models.User, transaction *sql.Tx) (*models.User, error)

	GetUserByUsername(ctx context.Context, username string, transaction *sql.Tx) (*models.User, error)

	GetUserIDByUsername(ctx context.Context, username string, transaction *sql.Tx) (int64, error)

	ListUsers(ctx context.Context, limit, offset int, transaction *sql.Tx) ([]models.User, error)

	CountUsers(ctx context.Context, transaction *sql.Tx) (int64, error)

	UpdateUser(
		ctx context.Context,
		username string,
		fields []sqlupdate.Field,
		transaction *sql.Tx,
	) (*models.User, error)

	DeleteUser(ctx context.Context, username string, transaction *sql.Tx) error

	InsertSavedBook(ctx context.Context, book models.NewSavedBook, transaction *sql.Tx) (*models.SavedBook, error)

	FindSavedBook(ctx context.Context, userID int64, bookID string, transaction *sql.Tx) (*models.SavedBook, error)

	ListSavedBooks(ctx context.Context, userID int64, transaction *sql.Tx) ([]models.SavedBook, error)

	GetSavedBook(ctx context.Context, id int64, transaction *sql.Tx) (*models.SavedBook, error)

	SetComment(
		ctx context.Context,
		bookID string,
		userID int64,
		comment *string,
		transaction *sql.Tx,
	) (*models.SavedBook, error)

	DeleteSavedBook(ctx context.Context, bookID string, userID int64, transaction *sql.Tx) error

	CountSavedBooks(ctx context.Context, transaction *sql.Tx) (int64, error)

	BeginTransaction(ctx context.Context) (*sql.Tx, error)

	CommitTransaction(transaction *sql.Tx) error

	RollbackTransaction(transaction *sql.Tx) error

	Ping(ctx context.Context) error

	Close() error
}
