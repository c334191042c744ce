// Package repository holds the user and saved-book operations. Both
// repositories work over an explicit storage handle and never read process
// wide state.
package repository

import (
	"context"
	"database/sql"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
	"github.com/patric-chuzhbe/bookbuddy/internal/sqlupdate"
)

type transactioner interface {
	BeginTransaction(ctx context.Context) (*sql.Tx, error)

	RollbackTransaction(transaction *sql.Tx) error

	CommitTransaction(transaction *sql.Tx) error
}

type userKeeper interface {
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
}

type savedBooksKeeper interface {
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
}

type userStorage interface {
	transactioner
	userKeeper
	savedBooksKeeper
}

type bookStorage interface {
	transactioner
	savedBooksKeeper
}

type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// inTransaction runs fn inside a storage transaction, committing only when
// fn succeeds.
func inTransaction(ctx context.Context, db transactioner, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTransaction(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = db.RollbackTransaction(tx)
		return err
	}

	return db.CommitTransaction(tx)
}
