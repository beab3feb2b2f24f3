// Package models defines the data model of the item collection together with
// the request/response shapes of the HTTP API and the sentinel errors shared
// between the storage, service and router layers.
package models

import "errors"

// Item is a single stored record of the item collection.
// ID is unique across all items at any point in time; UpdatedAt is an
// RFC 3339 UTC timestamp refreshed on create and on every update.
type Item struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	UpdatedAt string `json:"updated_at"`
}

// CreateItemRequest is the payload for creating a new item.
// ID is the caller-suggested identifier; when omitted the service picks the
// smallest free one. The identifier actually assigned may differ and is
// echoed back in the response.
type CreateItemRequest struct {
	ID      *int64 `json:"id,omitempty" validate:"omitempty,min=0"`
	Message string `json:"message" validate:"required"`
}

// UpdateItemRequest is the payload for updating an existing item.
// A nil Message leaves the stored record untouched.
type UpdateItemRequest struct {
	Message *string `json:"message,omitempty"`
}

// RegisterUserRequest is the payload for creating a new user.
type RegisterUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1"`
}

// LoginRequest carries credentials for the session-token endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse carries a signed session token issued after a successful
// credentials check.
type SessionResponse struct {
	Token string `json:"token"`
}

// StatusResponse is the uniform body for endpoints that report only an outcome.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrNotFound is returned when the target of a read/update does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an insert violates a uniqueness constraint
// (duplicate item id or duplicate username).
var ErrConflict = errors.New("record already exists")

// ErrUnauthorized is returned for any failed credentials check. It never
// distinguishes an unknown username from a wrong password.
var ErrUnauthorized = errors.New("invalid credentials")
