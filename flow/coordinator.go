package flow

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/skillsenselab/authgate/config"
	"github.com/skillsenselab/authgate/cookie"
	apperrors "github.com/skillsenselab/authgate/errors"
	"github.com/skillsenselab/authgate/httpclient"
	"github.com/skillsenselab/authgate/logger"
	"github.com/skillsenselab/authgate/oidc"
	"github.com/skillsenselab/authgate/util"
)

// Redirect is a browser redirect plus the Set-Cookie headers that must
// accompany it.
type Redirect struct {
	URL     string
	Cookies []string
}

// RefreshResult carries the reissued session cookies after a successful
// refresh grant.
type RefreshResult struct {
	Cookies []string
}

// Coordinator drives the authorization-code flow against the identity
// provider's hosted endpoints.
type Coordinator struct {
	provider config.ProviderConfig
	cookies  config.CookieConfig
	frontend config.FrontendConfig
	client   *httpclient.Client
	log      *logger.Logger
}

// New creates a Coordinator. The HTTP client authenticates to the token
// endpoint with the client credentials over Basic auth.
func New(cfg *config.AppConfig, log *logger.Logger) (*Coordinator, error) {
	client, err := httpclient.New(httpclient.Config{
		Auth: httpclient.BasicAuth(cfg.Provider.ClientID, cfg.Provider.ClientSecret),
	})
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		provider: cfg.Provider,
		cookies:  cfg.Cookie,
		frontend: cfg.Frontend,
		client:   client,
		log:      log.WithComponent("flow"),
	}, nil
}

// BeginLogin generates fresh PKCE material and state, parks both in the
// transient flow cookie, and builds the hosted authorization redirect.
func (c *Coordinator) BeginLogin(ctx context.Context) (*Redirect, error) {
	pkce, err := oidc.GeneratePKCE()
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	state, err := oidc.GenerateState()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	flowState := &State{State: state, CodeVerifier: pkce.CodeVerifier}
	encoded, err := flowState.Encode()
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.provider.ClientID)
	q.Set("redirect_uri", c.provider.CallbackURL)
	q.Set("scope", strings.Join(c.provider.Scopes, " "))
	q.Set("state", state)
	q.Set("code_challenge", pkce.CodeChallenge)
	q.Set("code_challenge_method", pkce.CodeChallengeMethod)

	flowTTL := int(c.cookies.FlowTTL.Seconds())
	c.log.Info("login initiated")

	return &Redirect{
		URL:     c.provider.AuthorizeEndpoint() + "?" + q.Encode(),
		Cookies: []string{cookie.Encode(c.cookies.FlowName(), encoded, c.attrs(util.Ptr(flowTTL)))},
	}, nil
}

// CompleteCallback validates the provider callback, exchanges the code for
// tokens, and projects them into session cookies. The transient flow cookie
// is cleared on success regardless of which tokens came back.
func (c *Coordinator) CompleteCallback(ctx context.Context, code, state, flowCookie string) (*Redirect, error) {
	if code == "" || state == "" || flowCookie == "" {
		return nil, apperrors.InvalidCallback()
	}

	flowState, err := DecodeState(flowCookie)
	if err != nil || flowState.State == "" || flowState.CodeVerifier == "" {
		return nil, apperrors.InvalidCallback()
	}
	if subtle.ConstantTimeCompare([]byte(flowState.State), []byte(state)) != 1 {
		return nil, apperrors.StateMismatch()
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.provider.ClientID)
	form.Set("code", code)
	form.Set("redirect_uri", c.provider.CallbackURL)
	form.Set("code_verifier", flowState.CodeVerifier)

	tokens, err := c.grant(ctx, form)
	if err != nil {
		c.log.Error("token exchange failed", logger.ErrorFields("exchange", err))
		return nil, apperrors.TokenExchangeFailed(providerBody(err)).WithCause(err)
	}

	cookies := c.sessionCookies(tokens, true)
	cookies = append(cookies, cookie.Clear(c.cookies.FlowName(), c.attrs(nil)))

	c.log.Info("login completed", map[string]interface{}{
		"expires_in": tokens.ExpiresIn,
	})
	return &Redirect{URL: c.frontend.RedirectURL(), Cookies: cookies}, nil
}

// Refresh exchanges the refresh token for a fresh access token. A missing
// token fails locally without touching the provider. A rejected grant means
// the session is over, not that the provider is down.
func (c *Coordinator) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if refreshToken == "" {
		return nil, apperrors.MissingRefreshToken()
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.provider.ClientID)
	form.Set("refresh_token", refreshToken)

	tokens, err := c.grant(ctx, form)
	if err != nil {
		c.log.Warn("refresh failed", logger.ErrorFields("refresh", err))
		return nil, apperrors.RefreshFailed(providerBody(err)).WithCause(err)
	}

	c.log.Debug("session refreshed", map[string]interface{}{
		"expires_in": tokens.ExpiresIn,
		"rotated":    tokens.RefreshToken != "",
	})
	return &RefreshResult{Cookies: c.sessionCookies(tokens, false)}, nil
}

// BuildLogout returns the hosted logout redirect plus clears for every
// session cookie, the transient flow cookie included.
func (c *Coordinator) BuildLogout() *Redirect {
	q := url.Values{}
	q.Set("client_id", c.provider.ClientID)
	q.Set("logout_uri", strings.TrimSuffix(c.frontend.URL, "/")+"/")

	attrs := c.attrs(nil)
	return &Redirect{
		URL: c.provider.LogoutEndpoint() + "?" + q.Encode(),
		Cookies: []string{
			cookie.Clear(c.cookies.AccessName(), attrs),
			cookie.Clear(c.cookies.IDName(), attrs),
			cookie.Clear(c.cookies.RefreshName(), attrs),
			cookie.Clear(c.cookies.FlowName(), attrs),
		},
	}
}

// providerBody extracts the provider's raw error body, if the failure came
// from a non-2xx token endpoint response.
func providerBody(err error) string {
	var hcErr *httpclient.Error
	if stderrors.As(err, &hcErr) {
		return string(hcErr.Body)
	}
	return ""
}

// grant posts a form grant to the token endpoint and decodes the response.
func (c *Coordinator) grant(ctx context.Context, form url.Values) (*tokenResponse, error) {
	resp, err := c.client.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   c.provider.TokenEndpoint(),
		Body:   form,
	})
	if err != nil {
		return nil, err
	}

	var tokens tokenResponse
	if err := json.Unmarshal(resp.Body, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// sessionCookies projects a token response into Set-Cookie headers. The
// access and id cookies live as long as the access token; the refresh
// cookie gets the configured long TTL. On refresh grants the provider may
// omit the id token or the rotated refresh token, in which case the
// browser keeps the cookies it already has.
func (c *Coordinator) sessionCookies(tokens *tokenResponse, initial bool) []string {
	tokenTTL := util.Ptr(tokens.ExpiresIn)
	refreshTTL := util.Ptr(int(c.cookies.RefreshTTL.Seconds()))

	cookies := []string{
		cookie.Encode(c.cookies.AccessName(), tokens.AccessToken, c.attrs(tokenTTL)),
	}
	if tokens.IDToken != "" || initial {
		cookies = append(cookies, cookie.Encode(c.cookies.IDName(), tokens.IDToken, c.attrs(tokenTTL)))
	}
	if tokens.RefreshToken != "" {
		cookies = append(cookies, cookie.Encode(c.cookies.RefreshName(), tokens.RefreshToken, c.attrs(refreshTTL)))
	}
	return cookies
}

func (c *Coordinator) attrs(maxAge *int) cookie.Attributes {
	return cookie.Attributes{
		Path:     "/",
		Domain:   c.cookies.Domain,
		HTTPOnly: true,
		Secure:   !c.cookies.Insecure,
		SameSite: c.cookies.SameSite,
		MaxAge:   maxAge,
	}
}
