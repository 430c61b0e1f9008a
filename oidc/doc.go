// Package oidc provides the OpenID Connect building blocks of the auth
// service: PKCE and state generation for the authorization-code flow, and
// a token verifier backed by the provider's published key set.
//
// The verifier caches the key set per issuer and refreshes it once on an
// unknown key-id miss, so provider key rotation does not require a restart.
// Concurrent cache misses collapse to a single in-flight fetch.
//
// Usage:
//
//	pair, err := oidc.GeneratePKCE()
//	state, err := oidc.GenerateState()
//
//	v := oidc.NewVerifier(cfg, oidc.NewRemoteKeyFetcher(10*time.Second))
//	claims, err := v.Verify(ctx, rawToken, oidc.Expect{TokenUse: "id"})
package oidc
