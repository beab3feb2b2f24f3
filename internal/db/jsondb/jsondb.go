// Package jsondb provides a file-backed implementation of the storage
// interface. The whole dataset is held in memory and flushed to a JSON file
// on Close, which makes it suitable for development and tests rather than
// for real deployments.
package jsondb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/itemstore/internal/models"
	"github.com/patric-chuzhbe/itemstore/internal/user"
)

// JSONDB keeps items and users in memory and persists them as a single JSON
// document. All methods are safe for concurrent use; inserts are atomic
// "insert if absent" under the internal lock.
type JSONDB struct {
	fileName string
	mu       sync.RWMutex
	Cache    CacheStruct
}

// CacheStruct is the serialized shape of the database file.
type CacheStruct struct {
	Items map[int64]models.Item
	Users map[string]*user.User
}

func initDBFile(fileName string) error {
	dbFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(dbFile, `{
	"Items": {},
	"Users": {}
}`)
	if err != nil {
		return err
	}
	return dbFile.Close()
}

func writeToJSONFile(fileName string, cache interface{}) error {
	jsonData, err := json.MarshalIndent(cache, "", "\t")
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	file, err := os.OpenFile(fileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return fmt.Errorf("error opening file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(jsonData); err != nil {
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

// New loads the database from fileName, creating an empty one when the file
// does not exist yet.
func New(fileName string) (*JSONDB, error) {
	db := JSONDB{
		fileName: fileName,
		Cache:    CacheStruct{},
	}

	err := parseJSONFile(db.fileName, &db.Cache)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := initDBFile(fileName); err != nil {
			return nil, err
		}
		if err := parseJSONFile(db.fileName, &db.Cache); err != nil {
			return nil, err
		}
	}

	if db.Cache.Items == nil {
		db.Cache.Items = map[int64]models.Item{}
	}
	if db.Cache.Users == nil {
		db.Cache.Users = map[string]*user.User{}
	}

	return &db, nil
}

// InsertItem stores a new item. Returns models.ErrConflict when the id is
// already taken.
func (db *JSONDB) InsertItem(ctx context.Context, item models.Item) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.Items[item.ID]; exists {
		return models.ErrConflict
	}
	db.Cache.Items[item.ID] = item

	return nil
}

// FindItemByID returns the item stored under id, if any.
func (db *JSONDB) FindItemByID(ctx context.Context, id int64) (models.Item, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	item, found := db.Cache.Items[id]

	return item, found, nil
}

// FindItemsByMessage returns all items whose message matches exactly.
func (db *JSONDB) FindItemsByMessage(ctx context.Context, message string) ([]models.Item, error) {
	items, err := db.ListItems(ctx)
	if err != nil {
		return nil, err
	}

	return funk.Filter(items, func(item models.Item) bool {
		return item.Message == message
	}).([]models.Item), nil
}

// ListItems returns the whole item collection in unspecified order.
func (db *JSONDB) ListItems(ctx context.Context) ([]models.Item, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return funk.Values(db.Cache.Items).([]models.Item), nil
}

// ReplaceItem overwrites the record stored under item.ID.
func (db *JSONDB) ReplaceItem(ctx context.Context, item models.Item) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.Items[item.ID]; !exists {
		return models.ErrNotFound
	}
	db.Cache.Items[item.ID] = item

	return nil
}

// DeleteItem removes the record with the given id; absent ids are a no-op.
func (db *JSONDB) DeleteItem(ctx context.Context, id int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.Cache.Items, id)

	return nil
}

// IsItemIDTaken reports whether an item with the given id exists.
func (db *JSONDB) IsItemIDTaken(ctx context.Context, id int64) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	_, exists := db.Cache.Items[id]

	return exists, nil
}

// InsertUser stores a new user. Returns models.ErrConflict when the username
// is already taken.
func (db *JSONDB) InsertUser(ctx context.Context, usr *user.User) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.Cache.Users[usr.Username]; exists {
		return models.ErrConflict
	}
	db.Cache.Users[usr.Username] = usr

	return nil
}

// FindUserByUsername returns the user stored under username, if any.
func (db *JSONDB) FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	usr, found := db.Cache.Users[username]

	return usr, found, nil
}

// Ping always succeeds for the file-backed storage.
func (db *JSONDB) Ping(ctx context.Context) error {
	return nil
}

// Close flushes the in-memory dataset to the backing file.
func (db *JSONDB) Close() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return writeToJSONFile(db.fileName, &db.Cache)
}
