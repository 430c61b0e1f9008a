// Package validation provides struct-tag validation and a small fluent
// validator for request inputs. Failures surface as VALIDATION_ERROR
// application errors with per-field details.
package validation
