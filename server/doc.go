// Package server provides the HTTP server the auth endpoints mount on:
// a Gin engine behind an h2c-capable http.Server, with the standard
// middleware stack and operational endpoints.
package server
