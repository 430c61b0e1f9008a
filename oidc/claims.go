package oidc

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims is the raw claim set parsed out of provider tokens.
// Cognito carries the username and group list under namespaced claims.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email           string   `json:"email,omitempty"`
	Name            string   `json:"name,omitempty"`
	CognitoUsername string   `json:"cognito:username,omitempty"`
	Groups          []string `json:"cognito:groups,omitempty"`
	TokenUse        string   `json:"token_use,omitempty"`
	ClientID        string   `json:"client_id,omitempty"`
}

// VerifiedClaims is the signature-checked payload of a token. It is derived
// on every request that needs identity and never stored.
type VerifiedClaims struct {
	// Subject is the provider's unique user ID ("sub").
	Subject string

	// Email is the user's email address (may be empty).
	Email string

	// Name is the display name, falling back to the provider username claim.
	Name string

	// Groups are the provider group memberships.
	Groups []string

	// TokenUse is the token classification ("id", "access"), empty if absent.
	TokenUse string

	// Issuer is the "iss" claim.
	Issuer string

	// Audience is the "aud" claim.
	Audience []string

	// ExpiresAt is the "exp" claim.
	ExpiresAt time.Time

	// IssuedAt is the "iat" claim.
	IssuedAt time.Time
}

// toVerified projects the parsed claim set into the exported view.
func (c *sessionClaims) toVerified() *VerifiedClaims {
	v := &VerifiedClaims{
		Subject:  c.Subject,
		Email:    c.Email,
		Name:     c.Name,
		Groups:   c.Groups,
		TokenUse: c.TokenUse,
		Issuer:   c.Issuer,
		Audience: c.Audience,
	}
	if v.Name == "" {
		v.Name = c.CognitoUsername
	}
	if c.ExpiresAt != nil {
		v.ExpiresAt = c.ExpiresAt.Time
	}
	if c.IssuedAt != nil {
		v.IssuedAt = c.IssuedAt.Time
	}
	return v
}
