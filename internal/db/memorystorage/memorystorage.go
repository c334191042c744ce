// Package memorystorage is the non-persistent store used when neither a
// database DSN nor a storage file is configured.
package memorystorage

import (
	"github.com/patric-chuzhbe/bookbuddy/internal/db/jsondb"
)

type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() *MemoryStorage {
	return &MemoryStorage{
		JSONDB: jsondb.NewInMemory(),
	}
}
