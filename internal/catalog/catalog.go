// Package catalog searches the external book catalog. Without a configured
// endpoint it falls back to a stub that finds nothing.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/patric-chuzhbe/bookbuddy/internal/models"
)

const unknownAuthor = "Unknown Author"

// Searcher returns catalog candidates for a free text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.CatalogBook, error)
}

func normalizeQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("%w: search term is required", models.ErrBadInput)
	}
	return query, nil
}

// Stub is the catalog used when no endpoint is configured.
type Stub struct{}

func (Stub) Search(ctx context.Context, query string) ([]models.CatalogBook, error) {
	if _, err := normalizeQuery(query); err != nil {
		return nil, err
	}
	return []models.CatalogBook{}, nil
}

// JoinAuthors renders an author list the way it is stored on saved books.
func JoinAuthors(authors []string) string {
	if len(authors) == 0 {
		return unknownAuthor
	}
	return strings.Join(authors, ", ")
}
