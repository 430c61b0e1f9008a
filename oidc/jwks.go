package oidc

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "github.com/skillsenselab/authgate/errors"
	"github.com/skillsenselab/authgate/httpclient"
	"github.com/skillsenselab/authgate/resilience"
)

// KeyFetcher retrieves an issuer's published key set. It is injected into the
// verifier so tests can supply a fake key source.
type KeyFetcher interface {
	FetchKeySet(ctx context.Context, issuer string) (map[string]crypto.PublicKey, error)
}

// RemoteKeyFetcher fetches JWKS documents over HTTPS. Timeouts and 5xx
// responses are retried with backoff before the failure surfaces.
type RemoteKeyFetcher struct {
	client *httpclient.Client
	retry  resilience.RetryConfig
}

// NewRemoteKeyFetcher creates a fetcher with a bounded request timeout.
func NewRemoteKeyFetcher(timeout time.Duration) *RemoteKeyFetcher {
	client, _ := httpclient.New(httpclient.Config{Timeout: timeout})
	retry := resilience.DefaultRetryConfig()
	retry.RetryIf = httpclient.IsRetryable
	return &RemoteKeyFetcher{client: client, retry: retry}
}

// FetchKeySet downloads and parses {issuer}/.well-known/jwks.json.
func (f *RemoteKeyFetcher) FetchKeySet(ctx context.Context, issuer string) (map[string]crypto.PublicKey, error) {
	return resilience.Retry(ctx, f.retry, func() (map[string]crypto.PublicKey, error) {
		return f.fetchOnce(ctx, issuer)
	})
}

func (f *RemoteKeyFetcher) fetchOnce(ctx context.Context, issuer string) (map[string]crypto.PublicKey, error) {
	resp, err := f.client.Do(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   issuer + "/.well-known/jwks.json",
	})
	if err != nil {
		return nil, fmt.Errorf("fetch JWKS: %w", err)
	}

	var doc jwksDoc
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("decode JWKS: %w", err)
	}

	keys := make(map[string]crypto.PublicKey, len(doc.Keys))
	for i := range doc.Keys {
		k := doc.Keys[i]
		if k.Use != "sig" && k.Use != "" {
			continue
		}
		pub, err := k.publicKey()
		if err != nil {
			return nil, fmt.Errorf("parse JWK %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}
	return keys, nil
}

// KeyCache holds the most recently fetched key set for a single issuer.
// The cache key is the issuer string: a change of issuer replaces the cached
// set, never merges. An unknown key id triggers one refetch before failing,
// which tolerates provider key rotation without restarting the process.
type KeyCache struct {
	fetcher KeyFetcher
	group   singleflight.Group

	mu     sync.RWMutex
	issuer string
	keys   map[string]crypto.PublicKey
}

// NewKeyCache creates a cache backed by the given fetcher.
func NewKeyCache(fetcher KeyFetcher) *KeyCache {
	return &KeyCache{fetcher: fetcher}
}

// Key resolves the public key for kid under issuer, refreshing the cached
// key set at most once on a miss.
func (c *KeyCache) Key(ctx context.Context, issuer, kid string) (crypto.PublicKey, error) {
	if k, ok := c.lookup(issuer, kid); ok {
		return k, nil
	}

	if err := c.refresh(ctx, issuer); err != nil {
		return nil, apperrors.KeySetUnavailable(err)
	}

	if k, ok := c.lookup(issuer, kid); ok {
		return k, nil
	}
	return nil, apperrors.TokenInvalid(fmt.Errorf("key %q not found in key set", kid))
}

func (c *KeyCache) lookup(issuer, kid string) (crypto.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.issuer != issuer || c.keys == nil {
		return nil, false
	}
	k, ok := c.keys[kid]
	return k, ok
}

// refresh fetches the issuer's key set and replaces the cache. Concurrent
// refreshes for the same issuer collapse to a single in-flight fetch.
func (c *KeyCache) refresh(ctx context.Context, issuer string) error {
	_, err, _ := c.group.Do(issuer, func() (any, error) {
		keys, err := c.fetcher.FetchKeySet(ctx, issuer)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.issuer = issuer
		c.keys = keys
		c.mu.Unlock()
		return nil, nil
	})
	return err
}

// --- JWK parsing ---

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`

	// RSA fields
	N string `json:"n"`
	E string `json:"e"`

	// EC fields
	Crv string `json:"crv"`
	X   string `json:"x"`
	Y   string `json:"y"`
}

type jwksDoc struct {
	Keys []jwk `json:"keys"`
}

// publicKey converts a JWK to a Go crypto.PublicKey.
func (k *jwk) publicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		return k.rsaPublicKey()
	case "EC":
		return k.ecPublicKey()
	default:
		return nil, fmt.Errorf("unsupported key type: %s", k.Kty)
	}
}

func (k *jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode RSA N: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode RSA E: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}

func (k *jwk) ecPublicKey() (*ecdsa.PublicKey, error) {
	xBytes, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("decode EC X: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("decode EC Y: %w", err)
	}

	var curve elliptic.Curve
	switch k.Crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("unsupported curve: %s", k.Crv)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
