package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/itemstore/internal/db/memorystorage"
	"github.com/patric-chuzhbe/itemstore/internal/logger"
	"github.com/patric-chuzhbe/itemstore/internal/models"
	"github.com/patric-chuzhbe/itemstore/internal/password"
	"github.com/patric-chuzhbe/itemstore/internal/user"
)

func TestMain(m *testing.M) {
	if err := logger.Init("debug"); err != nil {
		panic(err)
	}
	m.Run()
}

func newTestAuth(t *testing.T) *Auth {
	theStorage, err := memorystorage.New()
	require.NoError(t, err)

	hash, err := password.Hash("s3cret")
	require.NoError(t, err)

	err = theStorage.InsertUser(context.Background(), &user.User{
		Username:     "alice",
		PasswordHash: hash,
		CreatedAt:    "2024-06-01T12:00:00Z",
	})
	require.NoError(t, err)

	return New(theStorage, []byte("test-signing-key"), time.Hour)
}

func TestVerifyCredentials(t *testing.T) {
	theAuth := newTestAuth(t)

	usr, err := theAuth.VerifyCredentials(context.Background(), "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", usr.Username)
}

func TestVerifyCredentialsRejectionsAreIndistinguishable(t *testing.T) {
	theAuth := newTestAuth(t)

	_, wrongPasswordErr := theAuth.VerifyCredentials(context.Background(), "alice", "wrong")
	_, unknownUserErr := theAuth.VerifyCredentials(context.Background(), "ghost", "x")

	assert.ErrorIs(t, wrongPasswordErr, models.ErrUnauthorized)
	assert.ErrorIs(t, unknownUserErr, models.ErrUnauthorized)
	assert.Equal(t, wrongPasswordErr, unknownUserErr, "the error must not leak which check failed")
}

func usernameEchoHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		username, ok := request.Context().Value(UsernameKey).(string)
		require.True(t, ok, "the username should be stored in the request context")
		_, err := response.Write([]byte(username))
		require.NoError(t, err)
	})
}

func TestRequireUserWithBasicCredentials(t *testing.T) {
	theAuth := newTestAuth(t)
	handler := theAuth.RequireUser(usernameEchoHandler(t))

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.SetBasicAuth("alice", "s3cret")
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "alice", recorder.Body.String())
}

func TestRequireUserWithSessionToken(t *testing.T) {
	theAuth := newTestAuth(t)
	handler := theAuth.RequireUser(usernameEchoHandler(t))

	token, err := theAuth.IssueSessionToken("alice")
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "alice", recorder.Body.String())
}

func TestRequireUserRejections(t *testing.T) {
	theAuth := newTestAuth(t)
	handler := theAuth.RequireUser(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("the protected handler should not be reached")
	}))

	cases := []struct {
		name    string
		prepare func(*http.Request)
	}{
		{"no credentials", func(*http.Request) {}},
		{"wrong password", func(r *http.Request) { r.SetBasicAuth("alice", "wrong") }},
		{"unknown user", func(r *http.Request) { r.SetBasicAuth("ghost", "x") }},
		{"garbage bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer not-a-token") }},
		{"token signed with another key", func(r *http.Request) {
			other := New(nil, []byte("other-key"), time.Hour)
			token, err := other.IssueSessionToken("alice")
			require.NoError(t, err)
			r.Header.Set("Authorization", "Bearer "+token)
		}},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/", nil)
			testCase.prepare(request)
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.NotEmpty(t, recorder.Header().Get("WWW-Authenticate"))
		})
	}
}
