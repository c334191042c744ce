// Package jsondb is an in-process store for users and saved books that keeps
// its state in memory and snapshots it to a JSON file on Close. It enforces
// the same uniqueness and cascade rules as the relational schema.
package jsondb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
	"github.com/patric-chuzhbe/bookbuddy/internal/sqlupdate"
)

// JSONDB holds the whole dataset in Cache. An empty file name disables
// persistence.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	now      func() time.Time
	Cache    CacheStruct
}

// UserRecord is the stored form of a user, password hash included.
type UserRecord struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// CacheStruct is the snapshot written to disk.
type CacheStruct struct {
	Users           map[int64]*UserRecord       `json:"users"`
	SavedBooks      map[int64]*models.SavedBook `json:"saved_books"`
	NextUserID      int64                       `json:"next_user_id"`
	NextSavedBookID int64                       `json:"next_saved_book_id"`
}

// NewCache returns an empty dataset.
func NewCache() CacheStruct {
	return CacheStruct{
		Users:           map[int64]*UserRecord{},
		SavedBooks:      map[int64]*models.SavedBook{},
		NextUserID:      1,
		NextSavedBookID: 1,
	}
}

// New loads fileName, creating it when it does not exist yet.
func New(fileName string) (*JSONDB, error) {
	db := NewInMemory()
	db.fileName = fileName

	err := parseJSONFile(fileName, &db.Cache)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `parseJSONFile()` calling: %w", err)
		}
		if err := writeToJSONFile(fileName, db.Cache); err != nil {
			return nil, fmt.Errorf("in internal/db/jsondb/jsondb.go/New(): error while `writeToJSONFile()` calling: %w", err)
		}
	}
	db.Cache.normalize()

	return db, nil
}

// NewInMemory returns a store that is never written to disk.
func NewInMemory() *JSONDB {
	return &JSONDB{
		now:   func() time.Time { return time.Now().UTC() },
		Cache: NewCache(),
	}
}

func (c *CacheStruct) normalize() {
	if c.Users == nil {
		c.Users = map[int64]*UserRecord{}
	}
	if c.SavedBooks == nil {
		c.SavedBooks = map[int64]*models.SavedBook{}
	}
	if c.NextUserID < 1 {
		c.NextUserID = 1
	}
	if c.NextSavedBookID < 1 {
		c.NextSavedBookID = 1
	}
}

func writeToJSONFile(fileName string, cache CacheStruct) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	if err := os.WriteFile(fileName, jsonData, 0644); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}

	return nil
}

func parseJSONFile(fileName string, cache *CacheStruct) error {
	file, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cache)
}

func (r *UserRecord) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func (db *JSONDB) findUser(username string) *UserRecord {
	for _, usr := range db.Cache.Users {
		if usr.Username == username {
			return usr
		}
	}
	return nil
}

func (db *JSONDB) uniqueUserViolation(skipID int64, username, email string) error {
	for id, usr := range db.Cache.Users {
		if id == skipID {
			continue
		}
		if usr.Username == username {
			return fmt.Errorf("%w: username %q is taken", models.ErrConflict, username)
		}
		if usr.Email == email {
			return fmt.Errorf("%w: email %q is taken", models.ErrConflict, email)
		}
	}
	return nil
}

func (db *JSONDB) findSavedBook(userID int64, bookID string) *models.SavedBook {
	for _, book := range db.Cache.SavedBooks {
		if book.UserID == userID && book.BookID == bookID {
			return book
		}
	}
	return nil
}

func copyBook(book *models.SavedBook) *models.SavedBook {
	result := *book
	return &result
}

// InsertUser stores usr and returns it with its generated id and creation
// time.
func (db *JSONDB) InsertUser(ctx context.Context, usr *models.User, transaction *sql.Tx) (*models.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.uniqueUserViolation(0, usr.Username, usr.Email); err != nil {
		return nil, err
	}

	record := &UserRecord{
		ID:           db.Cache.NextUserID,
		Username:     usr.Username,
		Email:        usr.Email,
		PasswordHash: usr.PasswordHash,
		CreatedAt:    db.now(),
	}
	db.Cache.Users[record.ID] = record
	db.Cache.NextUserID++

	return record.toModel(), nil
}

// GetUserByUsername returns the user including the password hash.
func (db *JSONDB) GetUserByUsername(ctx context.Context, username string, transaction *sql.Tx) (*models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr := db.findUser(username)
	if usr == nil {
		return nil, fmt.Errorf("%w: no user %q", models.ErrNotFound, username)
	}

	return usr.toModel(), nil
}

func (db *JSONDB) GetUserIDByUsername(ctx context.Context, username string, transaction *sql.Tx) (int64, error) {
	usr, err := db.GetUserByUsername(ctx, username, transaction)
	if err != nil {
		return 0, err
	}
	return usr.ID, nil
}

// ListUsers returns users ordered by username.
func (db *JSONDB) ListUsers(ctx context.Context, limit, offset int, transaction *sql.Tx) ([]models.User, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	all := make([]models.User, 0, len(db.Cache.Users))
	for _, usr := range db.Cache.Users {
		public := *usr.toModel()
		public.PasswordHash = ""
		all = append(all, public)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []models.User{}, nil
	}
	end := len(all)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}

	return all[offset:end], nil
}

func (db *JSONDB) CountUsers(ctx context.Context, transaction *sql.Tx) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.Users)), nil
}

// UpdateUser applies fields to the user named username. Field names follow
// storage.UserColumns; "password" carries an already hashed value.
func (db *JSONDB) UpdateUser(
	ctx context.Context,
	username string,
	fields []sqlupdate.Field,
	transaction *sql.Tx,
) (*models.User, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no data", models.ErrBadInput)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	usr := db.findUser(username)
	if usr == nil {
		return nil, fmt.Errorf("%w: no user %q", models.ErrNotFound, username)
	}

	updated := *usr
	for _, field := range fields {
		value, ok := field.Value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: field %q must be a string", models.ErrBadInput, field.Name)
		}
		switch field.Name {
		case "username":
			updated.Username = value
		case "email":
			updated.Email = value
		case "password":
			updated.PasswordHash = value
		default:
			return nil, fmt.Errorf("%w: unknown field %q", models.ErrBadInput, field.Name)
		}
	}

	if err := db.uniqueUserViolation(usr.ID, updated.Username, updated.Email); err != nil {
		return nil, err
	}
	*usr = updated

	return usr.toModel(), nil
}

// DeleteUser removes the user and every book it saved.
func (db *JSONDB) DeleteUser(ctx context.Context, username string, transaction *sql.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	usr := db.findUser(username)
	if usr == nil {
		return fmt.Errorf("%w: no user %q", models.ErrNotFound, username)
	}

	for id, book := range db.Cache.SavedBooks {
		if book.UserID == usr.ID {
			delete(db.Cache.SavedBooks, id)
		}
	}
	delete(db.Cache.Users, usr.ID)

	return nil
}

func (db *JSONDB) InsertSavedBook(
	ctx context.Context,
	book models.NewSavedBook,
	transaction *sql.Tx,
) (*models.SavedBook, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.Cache.Users[book.UserID]; !ok {
		return nil, fmt.Errorf("%w: no user with id %d", models.ErrNotFound, book.UserID)
	}
	if db.findSavedBook(book.UserID, book.BookID) != nil {
		return nil, fmt.Errorf("%w: book %q is already saved", models.ErrConflict, book.BookID)
	}

	saved := &models.SavedBook{
		ID:           db.Cache.NextSavedBookID,
		UserID:       book.UserID,
		BookID:       book.BookID,
		Title:        book.Title,
		Authors:      book.Authors,
		ThumbnailURL: book.ThumbnailURL,
		Comment:      book.Comment,
		SavedAt:      db.now(),
	}
	db.Cache.SavedBooks[saved.ID] = saved
	db.Cache.NextSavedBookID++

	return copyBook(saved), nil
}

func (db *JSONDB) FindSavedBook(
	ctx context.Context,
	userID int64,
	bookID string,
	transaction *sql.Tx,
) (*models.SavedBook, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	book := db.findSavedBook(userID, bookID)
	if book == nil {
		return nil, fmt.Errorf("%w: book %q is not saved", models.ErrNotFound, bookID)
	}

	return copyBook(book), nil
}

// ListSavedBooks returns the books of userID, most recently saved first.
func (db *JSONDB) ListSavedBooks(ctx context.Context, userID int64, transaction *sql.Tx) ([]models.SavedBook, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	result := []models.SavedBook{}
	for _, book := range db.Cache.SavedBooks {
		if book.UserID == userID {
			result = append(result, *book)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].SavedAt.Equal(result[j].SavedAt) {
			return result[i].SavedAt.After(result[j].SavedAt)
		}
		return result[i].ID > result[j].ID
	})

	return result, nil
}

func (db *JSONDB) GetSavedBook(ctx context.Context, id int64, transaction *sql.Tx) (*models.SavedBook, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	book, ok := db.Cache.SavedBooks[id]
	if !ok {
		return nil, fmt.Errorf("%w: no saved book with id %d", models.ErrNotFound, id)
	}

	return copyBook(book), nil
}

func (db *JSONDB) SetComment(
	ctx context.Context,
	bookID string,
	userID int64,
	comment *string,
	transaction *sql.Tx,
) (*models.SavedBook, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	book := db.findSavedBook(userID, bookID)
	if book == nil {
		return nil, fmt.Errorf("%w: book %q is not saved", models.ErrNotFound, bookID)
	}
	book.Comment = comment

	return copyBook(book), nil
}

func (db *JSONDB) DeleteSavedBook(ctx context.Context, bookID string, userID int64, transaction *sql.Tx) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	book := db.findSavedBook(userID, bookID)
	if book == nil {
		return fmt.Errorf("%w: book %q is not saved", models.ErrNotFound, bookID)
	}
	delete(db.Cache.SavedBooks, book.ID)

	return nil
}

func (db *JSONDB) CountSavedBooks(ctx context.Context, transaction *sql.Tx) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return int64(len(db.Cache.SavedBooks)), nil
}

// BeginTransaction returns a nil transaction; every call is applied
// atomically under the store mutex.
func (db *JSONDB) BeginTransaction(ctx context.Context) (*sql.Tx, error) {
	return nil, nil
}

func (db *JSONDB) CommitTransaction(transaction *sql.Tx) error {
	return nil
}

func (db *JSONDB) RollbackTransaction(transaction *sql.Tx) error {
	return nil
}

func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close writes the snapshot when the store is file backed.
func (db *JSONDB) Close() error {
	if db.fileName == "" {
		return nil
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, db.Cache)
}
