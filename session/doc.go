// Package session derives the caller's identity from session cookies on
// each request. Nothing is stored server-side; a request is authenticated
// exactly when one of its token cookies verifies against the provider's
// signing keys.
package session
