// Package api exposes the auth flow over HTTP: login, callback, refresh,
// logout, and the session introspection endpoint.
package api
