package authenticator

import "net/http"

// Authenticator is the middleware surface the router needs from the auth
// layer.
type Authenticator interface {
	RequireUser(h http.Handler) http.Handler
}
