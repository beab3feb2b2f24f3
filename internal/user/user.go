// Package user defines the user model used for authentication and for the
// current-user profile endpoint.
package user

// User represents a system user. Username is the unique key of the users
// collection. PasswordHash holds the encoded argon2id digest of the password
// and is never serialized into API responses.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    string `json:"created_at"`
}
