// Package endpoint provides the operational HTTP handlers: health and
// probe endpoints, build version, and runtime metrics.
package endpoint
