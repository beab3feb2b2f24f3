// Package memorystorage provides a purely in-memory storage implementation.
// It reuses the jsondb cache without touching the filesystem.
package memorystorage

import (
	"context"

	"github.com/patric-chuzhbe/itemstore/internal/db/jsondb"
	"github.com/patric-chuzhbe/itemstore/internal/models"
	"github.com/patric-chuzhbe/itemstore/internal/user"
)

// MemoryStorage keeps all records in memory and discards them on Close.
type MemoryStorage struct {
	*jsondb.JSONDB
}

// New returns an empty in-memory storage.
func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: &jsondb.JSONDB{
			Cache: jsondb.CacheStruct{
				Items: map[int64]models.Item{},
				Users: map[string]*user.User{},
			},
		},
	}, nil
}

// Close is a no-op: nothing is persisted.
func (theStorage *MemoryStorage) Close() error {
	return nil
}

// Ping always succeeds.
func (theStorage *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}
