// Package resilience provides retry with exponential backoff, used to
// guard outbound calls to the identity provider's key set endpoint.
package resilience
