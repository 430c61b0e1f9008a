package session

import (
	"context"

	"github.com/skillsenselab/authgate/config"
	apperrors "github.com/skillsenselab/authgate/errors"
	"github.com/skillsenselab/authgate/logger"
	"github.com/skillsenselab/authgate/oidc"
)

// Profile is the public view of an authenticated user, safe to return to
// the browser.
type Profile struct {
	Sub    string   `json:"sub"`
	Email  string   `json:"email,omitempty"`
	Name   string   `json:"name,omitempty"`
	Groups []string `json:"groups,omitempty"`
}

// Reader resolves request cookies into verified identities.
type Reader struct {
	verifier *oidc.Verifier
	cookies  config.CookieConfig
	log      *logger.Logger
}

// NewReader creates a session reader over the given verifier.
func NewReader(verifier *oidc.Verifier, cookies config.CookieConfig, log *logger.Logger) *Reader {
	return &Reader{
		verifier: verifier,
		cookies:  cookies,
		log:      log.WithComponent("session"),
	}
}

// ReadProfile returns the user profile for the request's cookies, or nil
// when no token verifies. The id token is preferred for its profile claims;
// the access token serves as a fallback when the id cookie has expired but
// the access cookie is still valid. Verification failures are expected here
// (expired sessions, anonymous visitors) and never surface as errors.
func (r *Reader) ReadProfile(ctx context.Context, cookies map[string]string) *Profile {
	if raw := cookies[r.cookies.IDName()]; raw != "" {
		claims, err := r.verifier.Verify(ctx, raw, oidc.Expect{
			Audience: r.verifier.ClientID(),
			TokenUse: oidc.TokenUseID,
		})
		if err == nil {
			return profileFrom(claims)
		}
		r.log.Debug("id token rejected", logger.ErrorFields("read_profile", err))
	}

	if raw := cookies[r.cookies.AccessName()]; raw != "" {
		// Access tokens carry client_id rather than aud.
		claims, err := r.verifier.Verify(ctx, raw, oidc.Expect{TokenUse: oidc.TokenUseAccess})
		if err == nil {
			return profileFrom(claims)
		}
		r.log.Debug("access token rejected", logger.ErrorFields("read_profile", err))
	}

	return nil
}

// RequireClaims verifies the access token cookie and returns its claims.
// Guards use this where an unauthenticated request must be rejected.
func (r *Reader) RequireClaims(ctx context.Context, cookies map[string]string) (*oidc.VerifiedClaims, error) {
	raw := cookies[r.cookies.AccessName()]
	if raw == "" {
		return nil, apperrors.Unauthorized("")
	}
	claims, err := r.verifier.Verify(ctx, raw, oidc.Expect{TokenUse: oidc.TokenUseAccess})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func profileFrom(claims *oidc.VerifiedClaims) *Profile {
	return &Profile{
		Sub:    claims.Subject,
		Email:  claims.Email,
		Name:   claims.Name,
		Groups: claims.Groups,
	}
}
