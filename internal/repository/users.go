package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
	"github.com/patric-chuzhbe/bookbuddy/internal/sqlupdate"
)

const (
	DefaultPageLimit = 8
	MaxPageLimit     = 100
)

// errBadCredentials is shared by the unknown user and wrong password cases.
var errBadCredentials = fmt.Errorf("%w: invalid username/password", models.ErrUnauthorized)

// UserRepository implements registration, authentication and profile
// management.
type UserRepository struct {
	db     userStorage
	hasher passwordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewUserRepository(db userStorage, hasher passwordHasher) *UserRepository {
	return &UserRepository{
		db:     db,
		hasher: hasher,
	}
}

func publicUser(usr *models.User) *models.User {
	public := *usr
	public.PasswordHash = ""
	return &public
}

// Authenticate checks the password of username. Unknown users and wrong
// passwords fail with the same models.ErrUnauthorized error.
func (r *UserRepository) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	usr, err := r.db.GetUserByUsername(ctx, username, nil)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			r.burnCompare(password)
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("in internal/repository/users.go/Authenticate(): error while `r.db.GetUserByUsername()` calling: %w", err)
	}

	ok, err := r.hasher.Compare(usr.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("in internal/repository/users.go/Authenticate(): error while `r.hasher.Compare()` calling: %w", err)
	}
	if !ok {
		return nil, errBadCredentials
	}

	return publicUser(usr), nil
}

// burnCompare spends one hash comparison so unknown usernames take as long as
// wrong passwords.
func (r *UserRepository) burnCompare(password string) {
	r.dummyOnce.Do(func() {
		r.dummyHash, _ = r.hasher.Hash("not-a-real-password")
	})
	if r.dummyHash == "" {
		return
	}
	_, _ = r.hasher.Compare(r.dummyHash, password)
}

// Register creates a user. A taken username or email fails with
// models.ErrConflict, including when a concurrent registration wins the race
// between the check and the insert.
func (r *UserRepository) Register(ctx context.Context, request models.RegisterRequest) (*models.User, error) {
	hash, err := r.hasher.Hash(request.Password)
	if err != nil {
		return nil, fmt.Errorf("in internal/repository/users.go/Register(): error while `r.hasher.Hash()` calling: %w", err)
	}

	var created *models.User
	err = inTransaction(ctx, r.db, func(tx *sql.Tx) error {
		_, err := r.db.GetUserByUsername(ctx, request.Username, tx)
		if err == nil {
			return fmt.Errorf("%w: duplicate username: %s", models.ErrConflict, request.Username)
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}

		created, err = r.db.InsertUser(
			ctx,
			&models.User{
				Username:     request.Username,
				Email:        request.Email,
				PasswordHash: hash,
			},
			tx,
		)
		return err
	})
	if err != nil {
		return nil, err
	}

	return publicUser(created), nil
}

// ClampPage normalizes caller supplied paging parameters.
func ClampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// ListPage returns one page of users ordered by username together with the
// total number of users and pages.
func (r *UserRepository) ListPage(ctx context.Context, page, limit int) (*models.UserPage, error) {
	page, limit = ClampPage(page, limit)

	total, err := r.db.CountUsers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("in internal/repository/users.go/ListPage(): error while `r.db.CountUsers()` calling: %w", err)
	}

	totalPages := (total + int64(limit) - 1) / int64(limit)

	// Pages past the end are empty; skipping the query also keeps
	// (page-1)*limit from overflowing.
	if int64(page) > totalPages || page-1 > math.MaxInt/limit {
		return &models.UserPage{
			Users:      []models.User{},
			TotalUsers: total,
			TotalPages: totalPages,
		}, nil
	}

	users, err := r.db.ListUsers(ctx, limit, (page-1)*limit, nil)
	if err != nil {
		return nil, fmt.Errorf("in internal/repository/users.go/ListPage(): error while `r.db.ListUsers()` calling: %w", err)
	}
	for i := range users {
		users[i].PasswordHash = ""
	}

	return &models.UserPage{
		Users:      users,
		TotalUsers: total,
		TotalPages: totalPages,
	}, nil
}

// GetByUsername returns the profile of username with every book it saved.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.UserWithBooks, error) {
	usr, err := r.db.GetUserByUsername(ctx, username, nil)
	if err != nil {
		return nil, err
	}

	books, err := r.db.ListSavedBooks(ctx, usr.ID, nil)
	if err != nil {
		return nil, fmt.Errorf("in internal/repository/users.go/GetByUsername(): error while `r.db.ListSavedBooks()` calling: %w", err)
	}

	return &models.UserWithBooks{
		User:       *publicUser(usr),
		SavedBooks: books,
	}, nil
}

// GetIDByUsername resolves a username to the user id.
func (r *UserRepository) GetIDByUsername(ctx context.Context, username string) (int64, error) {
	return r.db.GetUserIDByUsername(ctx, username, nil)
}

// Update applies a partial update. A new password is hashed before it is
// stored. An empty update fails with models.ErrBadInput before any
// statement is issued.
func (r *UserRepository) Update(ctx context.Context, username string, update models.UserUpdate) (*models.User, error) {
	changes := map[string]any{}
	if update.Username != nil {
		changes["username"] = *update.Username
	}
	if update.Email != nil {
		changes["email"] = *update.Email
	}
	if update.Password != nil {
		hash, err := r.hasher.Hash(*update.Password)
		if err != nil {
			return nil, fmt.Errorf("in internal/repository/users.go/Update(): error while `r.hasher.Hash()` calling: %w", err)
		}
		changes["password"] = hash
	}

	fields := sqlupdate.FieldsFromMap(changes)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no data", models.ErrBadInput)
	}

	usr, err := r.db.UpdateUser(ctx, username, fields, nil)
	if err != nil {
		return nil, err
	}

	return publicUser(usr), nil
}

// Remove deletes the user and, by cascade, its saved books.
func (r *UserRepository) Remove(ctx context.Context, username string) error {
	return r.db.DeleteUser(ctx, username, nil)
}

// Stats counts users and saved books.
func (r *UserRepository) Stats(ctx context.Context) (*models.Stats, error) {
	users, err := r.db.CountUsers(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("in internal/repository/users.go/Stats(): error while `r.db.CountUsers()` calling: %w", err)
	}

	books, err := r.db.CountSavedBooks(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("in internal/repository/users.go/Stats(): error while `r.db.CountSavedBooks()` calling: %w", err)
	}

	return &models.Stats{Users: users, SavedBooks: books}, nil
}
