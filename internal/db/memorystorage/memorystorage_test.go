package memorystorage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/patric-chuzhbe/itemstore/internal/models"
)

func Test(t *testing.T) {
	t.Run("The base memorystorage package test", func(t *testing.T) {
		theStorage, err := New()
		assert.NoError(t, err, "The memorystorage.New() should not return error")

		err = theStorage.InsertItem(context.Background(), models.Item{ID: 7, Message: "some message"})
		assert.NoError(t, err, "The `theStorage.InsertItem()` should not return error")

		item, found, err := theStorage.FindItemByID(context.Background(), 7)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "some message", item.Message)

		err = theStorage.Ping(context.Background())
		assert.NoError(t, err, "The memorystorage.Ping() should not return error")

		err = theStorage.Close()
		assert.NoError(t, err, "The memorystorage.Close() should not return error")
	})
}
