// Package storage declares the persistence interface consumed by the service
// layer. Implementations live in the sibling packages postgresdb, jsondb and
// memorystorage.
package storage

import (
	"context"

	"github.com/patric-chuzhbe/itemstore/internal/models"
	"github.com/patric-chuzhbe/itemstore/internal/user"
)

// Storage is the persistent store behind the item and user services.
//
// InsertItem and InsertUser must be atomic "insert if absent" operations:
// when the id/username is already taken they return models.ErrConflict and
// leave the store unchanged. The service relies on this to resolve allocation
// races (see service.CreateItem).
type Storage interface {
	InsertItem(ctx context.Context, item models.Item) error

	FindItemByID(ctx context.Context, id int64) (models.Item, bool, error)

	// FindItemsByMessage returns all items whose message equals the given one
	// exactly. Order is unspecified.
	FindItemsByMessage(ctx context.Context, message string) ([]models.Item, error)

	ListItems(ctx context.Context) ([]models.Item, error)

	// ReplaceItem overwrites the whole record stored under item.ID.
	// Returns models.ErrNotFound when no such record exists.
	ReplaceItem(ctx context.Context, item models.Item) error

	// DeleteItem removes the record with the given id; deleting an absent id
	// is not an error.
	DeleteItem(ctx context.Context, id int64) error

	IsItemIDTaken(ctx context.Context, id int64) (bool, error)

	InsertUser(ctx context.Context, usr *user.User) error

	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)

	Ping(ctx context.Context) error

	Close() error
}
