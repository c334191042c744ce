package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

// BookRepository manages the books saved by each user. Mutations are scoped
// by owner so a caller can only touch its own rows.
type BookRepository struct {
	db bookStorage
}

func NewBookRepository(db bookStorage) *BookRepository {
	return &BookRepository{db: db}
}

// Add saves a book for its owner. Saving the same book twice fails with
// models.ErrConflict.
func (r *BookRepository) Add(ctx context.Context, book models.NewSavedBook) (*models.SavedBook, error) {
	if book.BookID == "" {
		return nil, fmt.Errorf("%w: book id is required", models.ErrBadInput)
	}

	var saved *models.SavedBook
	err := inTransaction(ctx, r.db, func(tx *sql.Tx) error {
		_, err := r.db.FindSavedBook(ctx, book.UserID, book.BookID, tx)
		if err == nil {
			return fmt.Errorf("%w: book %s is already saved", models.ErrConflict, book.BookID)
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		saved, err = r.db.InsertSavedBook(ctx, book, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return saved, nil
}

// ListByOwner returns every book of ownerID, most recently saved first.
func (r *BookRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.SavedBook, error) {
	return r.db.ListSavedBooks(ctx, ownerID, nil)
}

// ListSummariesByOwner is ListByOwner projected onto the catalog fields.
func (r *BookRepository) ListSummariesByOwner(ctx context.Context, ownerID int64) ([]models.BookSummary, error) {
	books, err := r.db.ListSavedBooks(ctx, ownerID, nil)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return []models.BookSummary{}, nil
	}

	return funk.Map(books, func(book models.SavedBook) models.BookSummary {
		return models.BookSummary{
			BookID:       book.BookID,
			Title:        book.Title,
			Authors:      book.Authors,
			ThumbnailURL: book.ThumbnailURL,
		}
	}).([]models.BookSummary), nil
}

func (r *BookRepository) GetByID(ctx context.Context, id int64) (*models.SavedBook, error) {
	return r.db.GetSavedBook(ctx, id, nil)
}

// SetComment replaces the comment of bookID when it is saved by ownerID.
// Books of other owners fail with models.ErrNotFound.
func (r *BookRepository) SetComment(ctx context.Context, bookID string, ownerID int64, comment *string) (*models.SavedBook, error) {
	return r.db.SetComment(ctx, bookID, ownerID, comment, nil)
}

// Remove deletes bookID from the books of ownerID.
func (r *BookRepository) Remove(ctx context.Context, bookID string, ownerID int64) error {
	return r.db.DeleteSavedBook(ctx, bookID, ownerID, nil)
}
