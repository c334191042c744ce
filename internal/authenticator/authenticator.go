// Package authenticator declares the middleware set the router needs from an
// authentication provider.
package authenticator

import "net/http"

// Authenticator derives the caller's identity and gates routes on it.
type Authenticator interface {
	Authenticate(h http.Handler) http.Handler
	EnsureLoggedIn(h http.Handler) http.Handler
	EnsureCorrectUser(h http.Handler) http.Handler
}
