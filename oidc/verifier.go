package oidc

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/skillsenselab/authgate/errors"
	"github.com/skillsenselab/authgate/util"
)

// clockLeeway absorbs small clock skew between this service and the provider
// when validating exp/nbf/iat.
const clockLeeway = 60 * time.Second

// Token classification values carried in the token_use claim.
const (
	TokenUseID     = "id"
	TokenUseAccess = "access"
)

// Expect narrows what a specific verification call accepts beyond the
// verifier's configured issuer.
type Expect struct {
	// Audience, when non-empty, must appear in the token's "aud" claim.
	// Left empty for provider access tokens, which carry client_id instead.
	Audience string

	// TokenUse, when non-empty, must match the token_use claim if the token
	// carries one. Tokens without the claim pass this check.
	TokenUse string
}

// Verifier validates provider-signed tokens against the issuer's published
// key set. It is safe for concurrent use.
type Verifier struct {
	cfg   Config
	cache *KeyCache
}

// NewVerifier creates a verifier for the configured issuer. The key fetcher
// is injected so tests can supply a fake key source.
func NewVerifier(cfg Config, fetcher KeyFetcher) *Verifier {
	cfg.ApplyDefaults()
	return &Verifier{
		cfg:   cfg,
		cache: NewKeyCache(fetcher),
	}
}

// Verify checks the token's signature, issuer, expiry, and the expectations
// in expect, returning the verified claims.
//
// Failures map onto the application taxonomy: TOKEN_EXPIRED when only the
// expiry check fails, KEYSET_UNAVAILABLE when the key set could not be
// fetched, TOKEN_USE_MISMATCH for a wrong token classification, and
// TOKEN_INVALID for everything else.
func (v *Verifier) Verify(ctx context.Context, rawToken string, expect Expect) (*VerifiedClaims, error) {
	claims := &sessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods(v.cfg.SupportedSigningAlgs),
		jwt.WithLeeway(clockLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)

	_, err := parser.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token header missing kid")
		}
		return v.cache.Key(ctx, v.cfg.Issuer, kid)
	})
	if err != nil {
		return nil, mapParseError(err)
	}

	// Signature and time checks passed; enforce identity checks exactly.
	if claims.Issuer != v.cfg.Issuer {
		return nil, apperrors.TokenInvalid(fmt.Errorf("issuer mismatch"))
	}
	if expect.Audience != "" && !util.StringInSlice(expect.Audience, claims.Audience) {
		return nil, apperrors.TokenInvalid(fmt.Errorf("audience mismatch"))
	}
	if expect.TokenUse != "" && claims.TokenUse != "" && claims.TokenUse != expect.TokenUse {
		return nil, apperrors.TokenUseMismatch(expect.TokenUse, claims.TokenUse)
	}

	return claims.toVerified(), nil
}

// Issuer returns the issuer this verifier is bound to.
func (v *Verifier) Issuer() string {
	return v.cfg.Issuer
}

// ClientID returns the audience expected on identity tokens.
func (v *Verifier) ClientID() string {
	return v.cfg.ClientID
}

// mapParseError converts golang-jwt parse failures into the application
// taxonomy. Keyfunc errors already carry their own classification.
func mapParseError(err error) error {
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		return apperrors.TokenExpired()
	}
	return apperrors.TokenInvalid(err)
}
