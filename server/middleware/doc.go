// Package middleware provides the HTTP middleware stack for the auth
// service: panic recovery, request IDs, CORS, body-size limits, tracing,
// and request logging.
package middleware
