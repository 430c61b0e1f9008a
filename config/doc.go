// Package config loads and validates authgate configuration.
//
// Configuration comes from three layers, later layers overriding earlier
// ones: a YAML config file, a .env file, and process environment variables.
// Provider settings can be declared per deployment stage under profiles,
// with bare environment variables (COGNITO_DOMAIN, CLIENT_ID, ...) as the
// final fallback so the service runs with nothing but env vars set.
package config
