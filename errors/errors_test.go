package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeKeySetUnavailable, "jwks fetch failed", http.StatusUnauthorized)
	if !err.Retryable {
		t.Error("KEYSET_UNAVAILABLE should be retryable")
	}
}

func TestAppError_FlowTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"invalid callback", InvalidCallback(), ErrCodeInvalidCallback, http.StatusBadRequest},
		{"state mismatch", StateMismatch(), ErrCodeStateMismatch, http.StatusBadRequest},
		{"exchange failed", TokenExchangeFailed(""), ErrCodeTokenExchangeFailed, http.StatusBadGateway},
		{"refresh failed", RefreshFailed(""), ErrCodeRefreshFailed, http.StatusUnauthorized},
		{"missing refresh", MissingRefreshToken(), ErrCodeMissingRefreshToken, http.StatusUnauthorized},
		{"token invalid", TokenInvalid(nil), ErrCodeTokenInvalid, http.StatusUnauthorized},
		{"token expired", TokenExpired(), ErrCodeTokenExpired, http.StatusUnauthorized},
		{"use mismatch", TokenUseMismatch("id", "access"), ErrCodeTokenUseMismatch, http.StatusUnauthorized},
		{"keyset unavailable", KeySetUnavailable(nil), ErrCodeKeySetUnavailable, http.StatusUnauthorized},
		{"unauthorized", Unauthorized(""), ErrCodeUnauthorized, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.HTTPStatus)
			}
		})
	}
}

func TestAppError_TokenExchangeFailed_CarriesProviderBody(t *testing.T) {
	err := TokenExchangeFailed(`{"error":"invalid_grant"}`)
	if err.Details["provider_error"] != `{"error":"invalid_grant"}` {
		t.Errorf("expected provider body in details, got %v", err.Details)
	}
}

func TestAppError_StateMismatch_GenericMessage(t *testing.T) {
	// The message must not reveal which part of the check failed.
	err := StateMismatch()
	if err.Message == "" || err.Details != nil {
		t.Errorf("expected generic message with no details, got %q %v", err.Message, err.Details)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := KeySetUnavailable(cause)
	if err.Unwrap() != cause {
		t.Error("expected Unwrap to return cause")
	}
}

func TestAppError_HasCode(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", TokenExpired())
	if !HasCode(wrapped, ErrCodeTokenExpired) {
		t.Error("expected HasCode to see through wrapping")
	}
	if HasCode(wrapped, ErrCodeTokenInvalid) {
		t.Error("expected HasCode to reject other codes")
	}
	if HasCode(fmt.Errorf("plain"), ErrCodeTokenExpired) {
		t.Error("expected HasCode false for non-AppError")
	}
}

func TestAppError_ToResponse(t *testing.T) {
	resp := RefreshFailed("upstream said no").ToResponse()
	if resp.Error.Code != ErrCodeRefreshFailed {
		t.Errorf("expected REFRESH_FAILED, got %s", resp.Error.Code)
	}
	if resp.Error.Details["provider_error"] != "upstream said no" {
		t.Errorf("expected provider_error detail, got %v", resp.Error.Details)
	}
}

func TestAppError_IsAppError(t *testing.T) {
	if !IsAppError(InvalidCallback()) {
		t.Error("expected IsAppError true")
	}
	if IsAppError(fmt.Errorf("nope")) {
		t.Error("expected IsAppError false")
	}
}
