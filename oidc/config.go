package oidc

import (
	"fmt"
	"time"
)

// Config configures token verification against a single OIDC issuer.
// Loadable from YAML/env via mapstructure tags.
type Config struct {
	// Issuer is the OIDC provider's issuer URL
	// (e.g. "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_AbCdEf").
	Issuer string `mapstructure:"issuer"`

	// ClientID is the OAuth2 client ID, expected as the "aud" claim of
	// identity tokens.
	ClientID string `mapstructure:"client_id"`

	// SupportedSigningAlgs restricts allowed signing algorithms.
	// Default: ["RS256"].
	SupportedSigningAlgs []string `mapstructure:"supported_signing_algs"`

	// HTTPTimeout bounds key-set fetch requests (default: 10s).
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if len(c.SupportedSigningAlgs) == 0 {
		c.SupportedSigningAlgs = []string{"RS256"}
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 10 * time.Second
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("issuer is required")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	return nil
}
