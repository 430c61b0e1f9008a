package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Authorization-flow errors
const (
	// ErrCodeInvalidCallback indicates missing or malformed callback parameters,
	// or an absent/expired flow cookie.
	ErrCodeInvalidCallback ErrorCode = "INVALID_CALLBACK"
	// ErrCodeStateMismatch indicates the callback state did not match the flow cookie.
	ErrCodeStateMismatch ErrorCode = "STATE_MISMATCH"
	// ErrCodeTokenExchangeFailed indicates the provider rejected the authorization-code grant.
	ErrCodeTokenExchangeFailed ErrorCode = "TOKEN_EXCHANGE_FAILED"
	// ErrCodeRefreshFailed indicates the provider rejected the refresh-token grant.
	ErrCodeRefreshFailed ErrorCode = "REFRESH_FAILED"
	// ErrCodeMissingRefreshToken indicates no refresh-token cookie was present.
	ErrCodeMissingRefreshToken ErrorCode = "MISSING_REFRESH_TOKEN"
)

// Token-verification errors
const (
	// ErrCodeTokenInvalid indicates signature, issuer, audience, or claim validation failed.
	ErrCodeTokenInvalid ErrorCode = "TOKEN_INVALID"
	// ErrCodeTokenExpired indicates the token passed all checks except expiry.
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	// ErrCodeTokenUseMismatch indicates the token_use claim did not match the expected value.
	ErrCodeTokenUseMismatch ErrorCode = "TOKEN_USE_MISMATCH"
	// ErrCodeKeySetUnavailable indicates the provider key set could not be fetched or parsed.
	ErrCodeKeySetUnavailable ErrorCode = "KEYSET_UNAVAILABLE"
	// ErrCodeUnauthorized indicates no usable token was present on the request.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeMissingField indicates a required field is missing.
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Generic errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeExternalService indicates an error from an external service.
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeKeySetUnavailable: true,
	ErrCodeTimeout:           true,
	ErrCodeExternalService:   true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
