// Package auth implements credential verification against the users
// collection and the middleware protecting the item endpoints. Requests may
// authenticate with HTTP Basic credentials or with a signed session token
// previously issued by the login endpoint.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/itemstore/internal/logger"
	"github.com/patric-chuzhbe/itemstore/internal/models"
	"github.com/patric-chuzhbe/itemstore/internal/password"
	"github.com/patric-chuzhbe/itemstore/internal/user"
)

type userFinder interface {
	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)
}

// Auth verifies credentials, issues session tokens and guards HTTP handlers.
type Auth struct {
	db               userFinder
	signingSecretKey []byte
	tokenTTL         time.Duration
}

// Claims represents the JWT claims of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UsernameKey is the context key under which the authenticated username is
// stored for downstream handlers.
const UsernameKey ContextKey = "username"

const realm = `Basic realm="itemstore"`

// New creates a new Auth handler over the given user storage.
func New(db userFinder, signingSecretKey []byte, tokenTTL time.Duration) *Auth {
	return &Auth{
		db:               db,
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
	}
}

// VerifyCredentials resolves whether username/plaintext match a stored user.
// An unknown username and a wrong password both yield models.ErrUnauthorized;
// the digest comparison itself is constant-time.
func (a *Auth) VerifyCredentials(ctx context.Context, username, plaintext string) (*user.User, error) {
	usr, found, err := a.db.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.ErrUnauthorized
	}

	matches, err := password.Verify(usr.PasswordHash, plaintext)
	if err != nil {
		return nil, fmt.Errorf("verifying stored hash for %q: %w", username, err)
	}
	if !matches {
		return nil, models.ErrUnauthorized
	}

	return usr, nil
}

// IssueSessionToken returns a signed token accepted by RequireUser as an
// alternative to Basic credentials.
func (a *Auth) IssueSessionToken(username string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(a.signingSecretKey)
}

// RequireUser is an HTTP middleware that authenticates the request via the
// Authorization header (Basic credentials or Bearer session token), stores
// the username in the request context and rejects everything else with 401.
func (a *Auth) RequireUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		username, err := a.resolveUsername(request)
		if err != nil {
			if errors.Is(err, models.ErrUnauthorized) {
				response.Header().Set("WWW-Authenticate", realm)
				response.WriteHeader(http.StatusUnauthorized)
				return
			}
			logger.Log.Debugln("Error calling the `a.resolveUsername()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(request.Context(), UsernameKey, username)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

func (a *Auth) resolveUsername(request *http.Request) (string, error) {
	if username, pass, ok := request.BasicAuth(); ok {
		usr, err := a.VerifyCredentials(request.Context(), username, pass)
		if err != nil {
			return "", err
		}
		return usr.Username, nil
	}

	header := request.Header.Get("Authorization")
	if token, isBearer := strings.CutPrefix(header, "Bearer "); isBearer {
		return a.usernameFromToken(token)
	}

	return "", models.ErrUnauthorized
}

func (a *Auth) usernameFromToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
	)
	if err != nil || !token.Valid || claims.Username == "" {
		return "", models.ErrUnauthorized
	}

	return claims.Username, nil
}
