// Package models holds the entities, request/response payloads and error
// kinds shared by the storage, repository and transport layers.
package models

import "time"

// User is the public view of a registered user. The password hash is carried
// only between storage and the repository and is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// UserWithBooks is a user profile together with every book the user saved.
type UserWithBooks struct {
	User
	SavedBooks []SavedBook `json:"savedBooks"`
}

// UserPage is one page of the username-ordered user listing.
type UserPage struct {
	Users      []User `json:"users"`
	TotalUsers int64  `json:"totalUsers"`
	TotalPages int64  `json:"totalPages"`
}

// SavedBook is a user's saved reference to an external catalog item.
type SavedBook struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId,omitempty"`
	BookID       string    `json:"bookId"`
	Title        string    `json:"title"`
	Authors      string    `json:"authors"`
	ThumbnailURL *string   `json:"thumbnailUrl"`
	Comment      *string   `json:"comment"`
	SavedAt      time.Time `json:"savedAt"`
}

// BookSummary is the short projection returned by the saved-books listing.
type BookSummary struct {
	BookID       string  `json:"bookId"`
	Title        string  `json:"title"`
	Authors      string  `json:"authors"`
	ThumbnailURL *string `json:"thumbnailUrl"`
}

// NewSavedBook carries the fields needed to save a book for an owner.
type NewSavedBook struct {
	UserID       int64
	BookID       string
	Title        string
	Authors      string
	ThumbnailURL *string
	Comment      *string
}

// CatalogBook is a candidate returned by the external catalog search.
type CatalogBook struct {
	BookID       string `json:"bookId"`
	Title        string `json:"title"`
	Authors      string `json:"authors"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Stats is the payload of the internal statistics endpoint.
type Stats struct {
	Users      int64 `json:"users"`
	SavedBooks int64 `json:"savedBooks"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)
