// Package seed fills a storage with demo users and saved books.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/bookbuddy/internal/logger"
	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

const (
	DefaultUsers    = 20
	DefaultPassword = "password"
	DefaultQuery    = "fiction"
	maxBooksPerUser = 5
	sampleComment   = "This is a great book!"
	clearBatchSize  = 100
)

// fallbackBooks are used when the catalog has nothing to offer.
var fallbackBooks = []models.CatalogBook{
	{BookID: "seed-dune", Title: "Dune", Authors: "Frank Herbert"},
	{BookID: "seed-emma", Title: "Emma", Authors: "Jane Austen"},
	{BookID: "seed-ulysses", Title: "Ulysses", Authors: "James Joyce"},
	{BookID: "seed-beloved", Title: "Beloved", Authors: "Toni Morrison"},
	{BookID: "seed-solaris", Title: "Solaris", Authors: "Stanisław Lem"},
	{BookID: "seed-ficciones", Title: "Ficciones", Authors: "Jorge Luis Borges"},
}

type seedStorage interface {
	InsertUser(ctx context.Context, usr *models.User, transaction *sql.Tx) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int, transaction *sql.Tx) ([]models.User, error)
	DeleteUser(ctx context.Context, username string, transaction *sql.Tx) error
	InsertSavedBook(ctx context.Context, book models.NewSavedBook, transaction *sql.Tx) (*models.SavedBook, error)
	BeginTransaction(ctx context.Context) (*sql.Tx, error)
	CommitTransaction(transaction *sql.Tx) error
	RollbackTransaction(transaction *sql.Tx) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

type searcher interface {
	Search(ctx context.Context, query string) ([]models.CatalogBook, error)
}

// Summary reports what a run created.
type Summary struct {
	Users      int
	SavedBooks int
	Comments   int
}

type Seeder struct {
	db       seedStorage
	hasher   passwordHasher
	catalog  searcher
	rand     *rand.Rand
	users    int
	password string
	query    string
}

type Option func(*Seeder)

func WithUsers(n int) Option {
	return func(s *Seeder) {
		s.users = n
	}
}

func WithRand(r *rand.Rand) Option {
	return func(s *Seeder) {
		s.rand = r
	}
}

func WithQuery(query string) Option {
	return func(s *Seeder) {
		s.query = query
	}
}

func New(db seedStorage, hasher passwordHasher, catalog searcher, options ...Option) *Seeder {
	s := &Seeder{
		db:       db,
		hasher:   hasher,
		catalog:  catalog,
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		users:    DefaultUsers,
		password: DefaultPassword,
		query:    DefaultQuery,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *Seeder) candidates(ctx context.Context) []models.CatalogBook {
	books, err := s.catalog.Search(ctx, s.query)
	if err != nil {
		logger.Log.Warnw("catalog search failed, using built-in books", zap.Error(err))
		return fallbackBooks
	}
	if len(books) == 0 {
		logger.Log.Warnw("catalog returned nothing, using built-in books", "query", s.query)
		return fallbackBooks
	}
	return books
}

// Run wipes every user, cascading to their books, and inserts the demo
// data. Everything happens in one transaction.
func (s *Seeder) Run(ctx context.Context) (summary *Summary, err error) {
	books := s.candidates(ctx)

	transaction, err := s.db.BeginTransaction(ctx)
	if err != nil {
		return nil, fmt.Errorf("in internal/seed/seed.go/Run(): error while `s.db.BeginTransaction()` calling: %w", err)
	}
	defer func() {
		if err != nil {
			if rollbackErr := s.db.RollbackTransaction(transaction); rollbackErr != nil {
				logger.Log.Errorw("seed rollback failed", zap.Error(rollbackErr))
			}
		}
	}()

	if err = s.clear(ctx, transaction); err != nil {
		return nil, err
	}

	summary = &Summary{}
	for i := 1; i <= s.users; i++ {
		if err = s.seedUser(ctx, i, books, summary, transaction); err != nil {
			return nil, err
		}
	}

	if err = s.db.CommitTransaction(transaction); err != nil {
		return nil, fmt.Errorf("in internal/seed/seed.go/Run(): error while `s.db.CommitTransaction()` calling: %w", err)
	}

	return summary, nil
}

func (s *Seeder) clear(ctx context.Context, transaction *sql.Tx) error {
	for {
		users, err := s.db.ListUsers(ctx, clearBatchSize, 0, transaction)
		if err != nil {
			return fmt.Errorf("in internal/seed/seed.go/clear(): error while `s.db.ListUsers()` calling: %w", err)
		}
		if len(users) == 0 {
			return nil
		}
		for _, usr := range users {
			if err := s.db.DeleteUser(ctx, usr.Username, transaction); err != nil {
				return fmt.Errorf("in internal/seed/seed.go/clear(): error while `s.db.DeleteUser()` calling: %w", err)
			}
		}
	}
}

func (s *Seeder) seedUser(
	ctx context.Context,
	n int,
	books []models.CatalogBook,
	summary *Summary,
	transaction *sql.Tx,
) error {
	hash, err := s.hasher.Hash(s.password)
	if err != nil {
		return fmt.Errorf("in internal/seed/seed.go/seedUser(): error while `s.hasher.Hash()` calling: %w", err)
	}

	usr, err := s.db.InsertUser(ctx, &models.User{
		Username:     fmt.Sprintf("user%d", n),
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: hash,
	}, transaction)
	if err != nil {
		return fmt.Errorf("in internal/seed/seed.go/seedUser(): error while `s.db.InsertUser()` calling: %w", err)
	}
	summary.Users++

	count := min(s.rand.IntN(maxBooksPerUser)+1, len(books))
	for _, idx := range s.rand.Perm(len(books))[:count] {
		book := books[idx]

		var thumbnail, comment *string
		if book.ThumbnailURL != "" {
			thumbnail = &book.ThumbnailURL
		}
		if s.rand.Float64() > 0.5 {
			text := sampleComment
			comment = &text
			summary.Comments++
		}

		_, err := s.db.InsertSavedBook(ctx, models.NewSavedBook{
			UserID:       usr.ID,
			BookID:       book.BookID,
			Title:        book.Title,
			Authors:      book.Authors,
			ThumbnailURL: thumbnail,
			Comment:      comment,
		}, transaction)
		if err != nil {
			return fmt.Errorf("in internal/seed/seed.go/seedUser(): error while `s.db.InsertSavedBook()` calling: %w", err)
		}
		summary.SavedBooks++
	}

	return nil
}
