package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/itemstore/internal/db/memorystorage"
	"github.com/patric-chuzhbe/itemstore/internal/mockstorage"
	"github.com/patric-chuzhbe/itemstore/internal/models"
)

func newTestService(t *testing.T) *Service {
	theStorage, err := memorystorage.New()
	require.NoError(t, err)

	svc := New(theStorage)
	svc.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}

	return svc
}

func int64Ptr(value int64) *int64 {
	return &value
}

func stringPtr(value string) *string {
	return &value
}

func TestCreateItemWithoutCollision(t *testing.T) {
	svc := newTestService(t)

	item, err := svc.CreateItem(context.Background(), int64Ptr(9), "some message")
	require.NoError(t, err)

	assert.Equal(t, int64(9), item.ID, "a free requested id should be kept as is")
	assert.Equal(t, "some message", item.Message)
	assert.Equal(t, "2024-06-01T12:00:00Z", item.UpdatedAt)

	stored, err := svc.GetItem(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, item, stored)
}

func TestCreateItemResolvesCollisionByProbingUpward(t *testing.T) {
	svc := newTestService(t)

	for _, id := range []int64{5, 6} {
		_, err := svc.CreateItem(context.Background(), int64Ptr(id), "occupied")
		require.NoError(t, err)
	}

	item, err := svc.CreateItem(context.Background(), int64Ptr(5), "squeezed in")
	require.NoError(t, err)

	assert.Equal(t, int64(7), item.ID, "the allocator should assign the smallest free id >= 5")

	stored, err := svc.GetItem(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "squeezed in", stored.Message)
}

func TestCreateItemWithoutRequestedID(t *testing.T) {
	svc := newTestService(t)

	item, err := svc.CreateItem(context.Background(), nil, "first")
	require.NoError(t, err)
	assert.Equal(t, int64(1), item.ID)

	item, err = svc.CreateItem(context.Background(), nil, "second")
	require.NoError(t, err)
	assert.Equal(t, int64(2), item.ID)
}

func TestCreateItemRetriesOnInsertConflict(t *testing.T) {
	// A concurrent create can claim the probed id between the probe and the
	// insert; the service must treat the store's conflict as a retry trigger.
	theStorage := &mockstorage.StorageMock{}
	theStorage.On("IsItemIDTaken", mock.Anything, int64(5)).Return(false, nil).Once()
	theStorage.On("InsertItem", mock.Anything, mock.MatchedBy(func(item models.Item) bool {
		return item.ID == 5
	})).Return(models.ErrConflict).Once()
	theStorage.On("IsItemIDTaken", mock.Anything, int64(6)).Return(false, nil).Once()
	theStorage.On("InsertItem", mock.Anything, mock.MatchedBy(func(item models.Item) bool {
		return item.ID == 6
	})).Return(nil).Once()

	svc := New(theStorage)

	item, err := svc.CreateItem(context.Background(), int64Ptr(5), "raced")
	require.NoError(t, err)
	assert.Equal(t, int64(6), item.ID)

	theStorage.AssertExpectations(t)
}

func TestGetItemNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetItem(context.Background(), 42)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFindItemsByMessage(t *testing.T) {
	svc := newTestService(t)

	for _, id := range []int64{1, 2, 3} {
		message := "shared"
		if id == 3 {
			message = "unique"
		}
		_, err := svc.CreateItem(context.Background(), int64Ptr(id), message)
		require.NoError(t, err)
	}

	items, err := svc.FindItemsByMessage(context.Background(), "shared")
	require.NoError(t, err)
	assert.Len(t, items, 2, "message is not a key, multiple records may share it")

	items, err = svc.FindItemsByMessage(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateItem(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.CreateItem(context.Background(), int64Ptr(1), "original")
	require.NoError(t, err)

	svc.now = func() time.Time {
		return time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)
	}

	updated, err := svc.UpdateItem(context.Background(), 1, stringPtr("changed"))
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID, "id is immutable after creation")
	assert.Equal(t, "changed", updated.Message)
	assert.Equal(t, "2024-06-02T12:00:00Z", updated.UpdatedAt)
}

func TestUpdateItemNoOp(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.CreateItem(context.Background(), int64Ptr(1), "original")
	require.NoError(t, err)

	svc.now = func() time.Time {
		return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	unchanged, err := svc.UpdateItem(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Equal(t, created, unchanged, "an absent message should leave the record untouched")

	stored, err := svc.GetItem(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, created, stored)
}

func TestUpdateItemNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpdateItem(context.Background(), 42, stringPtr("anything"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteItemIsIdempotent(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateItem(context.Background(), int64Ptr(1), "doomed")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(context.Background(), 1))
	require.NoError(t, svc.DeleteItem(context.Background(), 1))

	_, err = svc.GetItem(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRegisterUser(t *testing.T) {
	svc := newTestService(t)

	usr, err := svc.RegisterUser(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", usr.Username)
	assert.NotEqual(t, "s3cret", usr.PasswordHash, "the password must never be stored in plaintext")
	assert.Equal(t, "2024-06-01T12:00:00Z", usr.CreatedAt)

	_, err = svc.RegisterUser(context.Background(), "alice", "another")
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestGetCurrentUser(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.RegisterUser(context.Background(), "alice", "s3cret")
	require.NoError(t, err)

	usr, err := svc.GetCurrentUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", usr.Username)

	_, err = svc.GetCurrentUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
