// Package errors provides unified error handling for the auth service.
// It implements structured error types with error codes, HTTP status mapping,
// and retryable detection so callers handle every failure kind explicitly
// instead of relying on panic/recover or sentinel strings.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// --- Flow Error Constructors ---

// InvalidCallback creates a new AppError for malformed or incomplete callback requests.
// The message is intentionally generic; which part was missing is an internal detail.
func InvalidCallback() *AppError {
	return &AppError{
		Code: ErrCodeInvalidCallback, Message: "Invalid callback",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// StateMismatch creates a new AppError for a failed anti-CSRF state check.
func StateMismatch() *AppError {
	return &AppError{
		Code: ErrCodeStateMismatch, Message: "State mismatch or missing code verifier",
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// TokenExchangeFailed creates a new AppError for a rejected authorization-code grant.
// The provider's raw error body is carried as a detail for operator diagnostics.
func TokenExchangeFailed(providerBody string) *AppError {
	e := &AppError{
		Code: ErrCodeTokenExchangeFailed, Message: "Token exchange failed",
		HTTPStatus: http.StatusBadGateway, Retryable: false,
	}
	if providerBody != "" {
		e.WithDetail("provider_error", providerBody)
	}
	return e
}

// RefreshFailed creates a new AppError for a rejected refresh-token grant.
// A failed refresh means the session is no longer valid, hence 401 rather than 502.
func RefreshFailed(providerBody string) *AppError {
	e := &AppError{
		Code: ErrCodeRefreshFailed, Message: "Refresh failed",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
	if providerBody != "" {
		e.WithDetail("provider_error", providerBody)
	}
	return e
}

// MissingRefreshToken creates a new AppError for a refresh request without a refresh cookie.
func MissingRefreshToken() *AppError {
	return &AppError{
		Code: ErrCodeMissingRefreshToken, Message: "Missing refresh token",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// --- Token Error Constructors ---

// TokenInvalid creates a new AppError for a token that failed verification.
func TokenInvalid(cause error) *AppError {
	return &AppError{
		Code: ErrCodeTokenInvalid, Message: "Invalid authentication token",
		HTTPStatus: http.StatusUnauthorized, Retryable: false, Cause: cause,
	}
}

// TokenExpired creates a new AppError for a token past its expiry.
func TokenExpired() *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: "Your session has expired. Please log in again.",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// TokenUseMismatch creates a new AppError for a token of the wrong classification.
func TokenUseMismatch(expected, got string) *AppError {
	return &AppError{
		Code: ErrCodeTokenUseMismatch, Message: "Invalid authentication token",
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
		Details: map[string]any{"expected_use": expected, "got_use": got},
	}
}

// KeySetUnavailable creates a new AppError for a failed provider key-set fetch.
// Distinguished from TokenInvalid because it is potentially retryable and not
// the caller's fault.
func KeySetUnavailable(cause error) *AppError {
	return &AppError{
		Code: ErrCodeKeySetUnavailable, Message: "Unable to verify token at this time",
		HTTPStatus: http.StatusUnauthorized, Retryable: true, Cause: cause,
	}
}

// Unauthorized creates a new AppError for a request with no usable token.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized, Retryable: false,
	}
}

// --- Generic Constructors ---

// NotFound creates a new AppError for an unmatched route or resource.
func NotFound(resource string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"resource": resource},
	}
}

// MissingField creates a new AppError for a missing required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"field": field},
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// Timeout creates a new AppError for a request that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The request took too long. Please try again.",
		HTTPStatus: http.StatusGatewayTimeout, Retryable: true,
		Details: map[string]any{"operation": operation},
	}
}

// Internal creates a new AppError for an internal server error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred. Please try again or contact support.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}

// ExternalServiceError creates a new AppError for an error from an external service.
func ExternalServiceError(service string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalService, Message: fmt.Sprintf("The %s service encountered an error. Please try again.", service),
		HTTPStatus: http.StatusBadGateway, Retryable: true,
		Details: map[string]any{"service": service}, Cause: cause,
	}
}
