// Package httpclient provides the outbound HTTP client used for identity
// provider calls (token endpoint, key-set fetch).
//
// Every request carries a bounded timeout and failures are classified into
// typed errors so callers can map them onto the application error taxonomy
// instead of inspecting raw transport errors.
package httpclient
