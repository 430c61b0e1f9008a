package oidc

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
)

const (
	// verifierBytes is the entropy of the PKCE code verifier.
	verifierBytes = 64
	// stateBytes is the entropy of the anti-CSRF state value.
	stateBytes = 32
)

// PKCE holds a PKCE (Proof Key for Code Exchange) challenge/verifier pair.
// Send CodeChallenge in the authorization URL and CodeVerifier in the token
// exchange.
type PKCE struct {
	// CodeVerifier is the random secret (kept in the flow cookie, sent during exchange).
	CodeVerifier string

	// CodeChallenge is the SHA-256 hash of the verifier (sent in the auth URL).
	CodeChallenge string

	// CodeChallengeMethod is always "S256".
	CodeChallengeMethod string
}

// GeneratePKCE generates a new PKCE challenge/verifier pair using the S256
// method. The verifier is 64 random bytes, base64url-encoded.
func GeneratePKCE() (*PKCE, error) {
	raw := make([]byte, verifierBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return nil, err
	}

	verifier := base64.RawURLEncoding.EncodeToString(raw)
	h := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(h[:])

	return &PKCE{
		CodeVerifier:        verifier,
		CodeChallenge:       challenge,
		CodeChallengeMethod: "S256",
	}, nil
}

// GenerateState creates a cryptographically secure random state string for
// CSRF protection, binding one authorize request to its callback.
// Returns a base64url encoding of 32 random bytes.
func GenerateState() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
