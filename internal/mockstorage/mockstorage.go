// Package mockstorage provides a testify-based mock implementation of the
// storage interface. It is used for unit testing the service and router by
// simulating storage behavior, including injected failures.
package mockstorage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/patric-chuzhbe/itemstore/internal/models"
	"github.com/patric-chuzhbe/itemstore/internal/user"
)

// StorageMock is a testify mock that implements storage.Storage.
type StorageMock struct {
	mock.Mock
}

// InsertItem mocks storing a new item.
func (m *StorageMock) InsertItem(ctx context.Context, item models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// FindItemByID mocks the lookup of an item by id.
func (m *StorageMock) FindItemByID(ctx context.Context, id int64) (models.Item, bool, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(models.Item)
	return item, args.Bool(1), args.Error(2)
}

// FindItemsByMessage mocks the exact-match message search.
func (m *StorageMock) FindItemsByMessage(ctx context.Context, message string) ([]models.Item, error) {
	args := m.Called(ctx, message)
	items, _ := args.Get(0).([]models.Item)
	return items, args.Error(1)
}

// ListItems mocks listing the whole collection.
func (m *StorageMock) ListItems(ctx context.Context) ([]models.Item, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]models.Item)
	return items, args.Error(1)
}

// ReplaceItem mocks the full-record overwrite.
func (m *StorageMock) ReplaceItem(ctx context.Context, item models.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// DeleteItem mocks the idempotent delete.
func (m *StorageMock) DeleteItem(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// IsItemIDTaken mocks the id-occupancy probe.
func (m *StorageMock) IsItemIDTaken(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// InsertUser mocks storing a new user.
func (m *StorageMock) InsertUser(ctx context.Context, usr *user.User) error {
	args := m.Called(ctx, usr)
	return args.Error(0)
}

// FindUserByUsername mocks the lookup of a user by username.
func (m *StorageMock) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	args := m.Called(ctx, username)
	usr, _ := args.Get(0).(*user.User)
	return usr, args.Bool(1), args.Error(2)
}

// Ping mocks the health check.
func (m *StorageMock) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Close mocks closing the storage.
func (m *StorageMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
