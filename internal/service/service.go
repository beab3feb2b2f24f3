// Package service implements the item and user operations on top of the
// storage interface: id allocation, timestamping, output shaping and the
// uniqueness rules of both collections.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/patric-chuzhbe/itemstore/internal/models"
	"github.com/patric-chuzhbe/itemstore/internal/password"
	"github.com/patric-chuzhbe/itemstore/internal/user"
)

type itemsKeeper interface {
	InsertItem(ctx context.Context, item models.Item) error

	FindItemByID(ctx context.Context, id int64) (models.Item, bool, error)

	FindItemsByMessage(ctx context.Context, message string) ([]models.Item, error)

	ListItems(ctx context.Context) ([]models.Item, error)

	ReplaceItem(ctx context.Context, item models.Item) error

	DeleteItem(ctx context.Context, id int64) error

	IsItemIDTaken(ctx context.Context, id int64) (bool, error)
}

type usersKeeper interface {
	InsertUser(ctx context.Context, usr *user.User) error

	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	itemsKeeper
	usersKeeper
	pinger
}

// Service orchestrates item CRUD and user registration over the storage.
type Service struct {
	db  storage
	now func() time.Time
}

// New returns a Service over the given storage.
func New(db storage) *Service {
	return &Service{
		db:  db,
		now: time.Now,
	}
}

// defaultIDSeed is where probing starts when the caller does not suggest an id.
const defaultIDSeed = 1

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// allocateItemID returns the smallest integer >= seed that no stored item
// uses. Probing only goes upward and never wraps; it terminates because the
// store is finite and ids are unbounded.
func (s *Service) allocateItemID(ctx context.Context, seed int64) (int64, error) {
	candidate := seed
	for {
		taken, err := s.db.IsItemIDTaken(ctx, candidate)
		if err != nil {
			return 0, err
		}
		if !taken {
			return candidate, nil
		}
		candidate++
	}
}

// CreateItem stores a new item under the smallest free id >= the requested
// one (or >= the default seed when no id is requested) and returns the stored
// record, including the id actually assigned.
//
// The probe and the insert are not atomic, so a concurrent create may claim
// the probed id first. The store's uniqueness constraint is the arbiter: on
// ErrConflict the allocation resumes from the next candidate until the insert
// succeeds.
func (s *Service) CreateItem(ctx context.Context, requestedID *int64, message string) (models.Item, error) {
	candidate := int64(defaultIDSeed)
	if requestedID != nil {
		candidate = *requestedID
	}

	for {
		id, err := s.allocateItemID(ctx, candidate)
		if err != nil {
			return models.Item{}, err
		}

		item := models.Item{
			ID:        id,
			Message:   message,
			UpdatedAt: s.timestamp(),
		}

		err = s.db.InsertItem(ctx, item)
		if err == nil {
			return item, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			return models.Item{}, err
		}

		// Lost the race for this id; probe above it.
		candidate = id + 1
	}
}

// GetItem returns the item with the given id or models.ErrNotFound.
func (s *Service) GetItem(ctx context.Context, id int64) (models.Item, error) {
	item, found, err := s.db.FindItemByID(ctx, id)
	if err != nil {
		return models.Item{}, err
	}
	if !found {
		return models.Item{}, models.ErrNotFound
	}

	return item, nil
}

// FindItemsByMessage returns all items with exactly the given message.
// Message is not a key, so the result may hold any number of records.
func (s *Service) FindItemsByMessage(ctx context.Context, message string) ([]models.Item, error) {
	return s.db.FindItemsByMessage(ctx, message)
}

// ListItems returns the whole item collection.
func (s *Service) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.db.ListItems(ctx)
}

// UpdateItem replaces the message and timestamp of the item with the given
// id, keeping the id itself. A nil message leaves the record untouched and
// returns it as stored. Returns models.ErrNotFound when the id is absent.
func (s *Service) UpdateItem(ctx context.Context, id int64, message *string) (models.Item, error) {
	item, found, err := s.db.FindItemByID(ctx, id)
	if err != nil {
		return models.Item{}, err
	}
	if !found {
		return models.Item{}, models.ErrNotFound
	}

	if message == nil {
		return item, nil
	}

	item.Message = *message
	item.UpdatedAt = s.timestamp()

	if err := s.db.ReplaceItem(ctx, item); err != nil {
		return models.Item{}, err
	}

	return item, nil
}

// DeleteItem removes the item with the given id. Deleting an absent id is
// not an error.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	return s.db.DeleteItem(ctx, id)
}

// RegisterUser digests the password, stamps the creation time and stores the
// new user. Returns models.ErrConflict when the username is already taken.
func (s *Service) RegisterUser(ctx context.Context, username, plaintext string) (*user.User, error) {
	_, found, err := s.db.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, models.ErrConflict
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return nil, err
	}

	usr := &user.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.timestamp(),
	}

	// The storage constraint stays the arbiter for concurrent registrations
	// with the same username.
	if err := s.db.InsertUser(ctx, usr); err != nil {
		return nil, err
	}

	return usr, nil
}

// GetCurrentUser returns the stored record of an already-authenticated user.
func (s *Service) GetCurrentUser(ctx context.Context, username string) (*user.User, error) {
	usr, found, err := s.db.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrNotFound
	}

	return usr, nil
}

// Ping checks the health of the storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}
