package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/skillsenselab/authgate/observability"
	"github.com/skillsenselab/authgate/server"
	"github.com/skillsenselab/authgate/validation"
)

// ServiceName is the canonical name used for config file discovery and as
// the default logging tag.
const ServiceName = "authgate"

// AppConfig is the full authgate configuration.
type AppConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Stage selects a provider profile (preprod, prod). Empty means the
	// top-level provider section plus environment fallbacks.
	Stage string `yaml:"stage" mapstructure:"stage" validate:"omitempty,oneof=preprod prod"`

	// Provider holds the identity provider settings used when no stage
	// profile overrides them.
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`

	// Profiles holds per-stage provider settings keyed by stage name.
	Profiles map[string]ProviderConfig `yaml:"profiles" mapstructure:"profiles"`

	Cookie        CookieConfig         `yaml:"cookie" mapstructure:"cookie"`
	Frontend      FrontendConfig       `yaml:"frontend" mapstructure:"frontend"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ProviderConfig describes one identity provider deployment.
type ProviderConfig struct {
	// Domain is the provider's hosted auth domain
	// (e.g. "https://auth.example.com").
	Domain string `yaml:"domain" mapstructure:"domain" validate:"required,url"`

	ClientID     string `yaml:"client_id" mapstructure:"client_id" validate:"required"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret" validate:"required"`

	// CallbackURL is the redirect URI registered with the provider.
	CallbackURL string `yaml:"callback_url" mapstructure:"callback_url" validate:"required,url"`

	// Region and UserPoolID locate the Cognito user pool whose signing keys
	// verify issued tokens.
	Region     string `yaml:"region" mapstructure:"region" validate:"required"`
	UserPoolID string `yaml:"user_pool_id" mapstructure:"user_pool_id" validate:"required"`

	// Scopes requested on login. Default: openid email profile.
	Scopes []string `yaml:"scopes" mapstructure:"scopes"`
}

// Issuer returns the user pool's token issuer URL.
func (p *ProviderConfig) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", p.Region, p.UserPoolID)
}

// AuthorizeEndpoint returns the hosted authorization endpoint.
func (p *ProviderConfig) AuthorizeEndpoint() string {
	return strings.TrimSuffix(p.Domain, "/") + "/oauth2/authorize"
}

// TokenEndpoint returns the token grant endpoint.
func (p *ProviderConfig) TokenEndpoint() string {
	return strings.TrimSuffix(p.Domain, "/") + "/oauth2/token"
}

// LogoutEndpoint returns the hosted logout endpoint.
func (p *ProviderConfig) LogoutEndpoint() string {
	return strings.TrimSuffix(p.Domain, "/") + "/logout"
}

// merge fills empty fields from other.
func (p *ProviderConfig) merge(other ProviderConfig) {
	if p.Domain == "" {
		p.Domain = other.Domain
	}
	if p.ClientID == "" {
		p.ClientID = other.ClientID
	}
	if p.ClientSecret == "" {
		p.ClientSecret = other.ClientSecret
	}
	if p.CallbackURL == "" {
		p.CallbackURL = other.CallbackURL
	}
	if p.Region == "" {
		p.Region = other.Region
	}
	if p.UserPoolID == "" {
		p.UserPoolID = other.UserPoolID
	}
	if len(p.Scopes) == 0 {
		p.Scopes = other.Scopes
	}
}

// CookieConfig controls how session cookies are issued.
type CookieConfig struct {
	// AppName prefixes every cookie name (e.g. "myapp" yields
	// myapp_access_token, myapp_id_token, myapp_refresh_token,
	// myapp_auth_tmp).
	AppName string `yaml:"app_name" mapstructure:"app_name" validate:"required"`

	// Domain scopes cookies to a parent domain so sibling subdomains share
	// the session. Empty means host-only cookies.
	Domain string `yaml:"domain" mapstructure:"domain"`

	// SameSite is the SameSite attribute value. Default: None.
	SameSite string `yaml:"same_site" mapstructure:"same_site" validate:"omitempty,oneof=Lax Strict None"`

	// Insecure drops the Secure attribute for local development over HTTP.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`

	// RefreshTTL is the refresh cookie lifetime. Default: 30 days.
	RefreshTTL time.Duration `yaml:"refresh_ttl" mapstructure:"refresh_ttl"`

	// FlowTTL is the transient login-flow cookie lifetime. Default: 5 minutes.
	FlowTTL time.Duration `yaml:"flow_ttl" mapstructure:"flow_ttl"`
}

// Cookie name suffixes appended to the app name.
const (
	suffixAccessToken  = "_access_token"
	suffixIDToken      = "_id_token"
	suffixRefreshToken = "_refresh_token"
	suffixFlow         = "_auth_tmp"
)

// AccessName returns the access token cookie name.
func (c *CookieConfig) AccessName() string { return c.AppName + suffixAccessToken }

// IDName returns the identity token cookie name.
func (c *CookieConfig) IDName() string { return c.AppName + suffixIDToken }

// RefreshName returns the refresh token cookie name.
func (c *CookieConfig) RefreshName() string { return c.AppName + suffixRefreshToken }

// FlowName returns the transient login-flow cookie name.
func (c *CookieConfig) FlowName() string { return c.AppName + suffixFlow }

// FrontendConfig locates the browser application this service fronts.
type FrontendConfig struct {
	// URL is the frontend origin users land on after auth operations.
	URL string `yaml:"url" mapstructure:"url" validate:"required,url"`

	// RedirectPath is appended to URL after a successful callback.
	// Default: "/".
	RedirectPath string `yaml:"redirect_path" mapstructure:"redirect_path"`
}

// RedirectURL returns the absolute post-login destination.
func (f *FrontendConfig) RedirectURL() string {
	return strings.TrimSuffix(f.URL, "/") + f.RedirectPath
}

// ApplyDefaults resolves the stage profile, applies bare environment
// variable fallbacks, and fills remaining defaults.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = ServiceName
	}
	c.ServiceConfig.ApplyDefaults()

	if c.Stage == "" {
		if c.Environment == "production" {
			c.Stage = "prod"
		} else {
			c.Stage = "preprod"
		}
	}
	if profile, ok := c.Profiles[c.Stage]; ok {
		c.Provider.merge(profile)
	}
	c.applyEnvFallbacks()

	if len(c.Provider.Scopes) == 0 {
		c.Provider.Scopes = []string{"openid", "email", "profile"}
	}
	if c.Cookie.SameSite == "" {
		c.Cookie.SameSite = "None"
	}
	if c.Cookie.RefreshTTL == 0 {
		c.Cookie.RefreshTTL = 30 * 24 * time.Hour
	}
	if c.Cookie.FlowTTL == 0 {
		c.Cookie.FlowTTL = 5 * time.Minute
	}
	if c.Frontend.RedirectPath == "" {
		c.Frontend.RedirectPath = "/"
	}
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// applyEnvFallbacks fills empty fields from the bare environment variable
// names the service historically shipped with, so a deployment configured
// purely through env vars keeps working.
func (c *AppConfig) applyEnvFallbacks() {
	fallback(&c.Provider.Domain, "COGNITO_DOMAIN")
	fallback(&c.Provider.ClientID, "CLIENT_ID")
	fallback(&c.Provider.ClientSecret, "CLIENT_SECRET")
	fallback(&c.Provider.CallbackURL, "CALLBACK_URL")
	fallback(&c.Provider.Region, "REGION")
	fallback(&c.Provider.UserPoolID, "USER_POOL_ID")
	fallback(&c.Cookie.AppName, "APP_NAME")
	fallback(&c.Cookie.Domain, "COOKIE_DOMAIN")
	fallback(&c.Frontend.URL, "FRONT_URL")
	fallback(&c.Frontend.RedirectPath, "FRONT_REDIRECT_PATH")
}

func fallback(dst *string, envKey string) {
	if *dst == "" {
		*dst = os.Getenv(envKey)
	}
}

// Validate checks the resolved configuration.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c.Provider); err != nil {
		return fmt.Errorf("config.provider: %w", err)
	}
	if err := validation.Validate(c.Cookie); err != nil {
		return fmt.Errorf("config.cookie: %w", err)
	}
	if err := validation.Validate(c.Frontend); err != nil {
		return fmt.Errorf("config.frontend: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return nil
}

// LoadApp loads, resolves, and validates the service configuration.
func LoadApp(opts ...LoaderOption) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := Load(ServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var (
	appMu    sync.RWMutex
	appCfg   *AppConfig
	appGroup singleflight.Group
)

// App returns the process-wide configuration, loading it on first use.
// Concurrent first calls collapse to a single load; a failed load is not
// cached, so the next call retries.
func App(opts ...LoaderOption) (*AppConfig, error) {
	appMu.RLock()
	cached := appCfg
	appMu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := appGroup.Do(ServiceName, func() (any, error) {
		cfg, err := LoadApp(opts...)
		if err != nil {
			return nil, err
		}
		appMu.Lock()
		appCfg = cfg
		appMu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*AppConfig), nil
}
