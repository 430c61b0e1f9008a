package oidc

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/skillsenselab/authgate/errors"
)

const (
	testIssuer   = "https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_TestPool"
	testClientID = "test-client-id"
)

// fakeKeyFetcher serves canned key sets and counts fetches.
type fakeKeyFetcher struct {
	keys    map[string]crypto.PublicKey
	err     error
	fetches int
}

func (f *fakeKeyFetcher) FetchKeySet(_ context.Context, _ string) (map[string]crypto.PublicKey, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.keys, nil
}

func mustKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate RSA key: %v", err)
	}
	return key
}

func signToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":       testIssuer,
		"aud":       testClientID,
		"sub":       "user-123",
		"exp":       now.Add(time.Hour).Unix(),
		"iat":       now.Unix(),
		"token_use": "id",
		"email":     "jane@example.com",
	}
}

func newTestVerifier(fetcher KeyFetcher) *Verifier {
	return NewVerifier(Config{Issuer: testIssuer, ClientID: testClientID}, fetcher)
}

func TestVerify_ValidIDToken(t *testing.T) {
	key := mustKey(t)
	fetcher := &fakeKeyFetcher{keys: map[string]crypto.PublicKey{"k1": &key.PublicKey}}
	v := newTestVerifier(fetcher)

	claims := baseClaims()
	claims["cognito:username"] = "jane.doe"
	claims["cognito:groups"] = []string{"admins", "users"}
	raw := signToken(t, key, "k1", claims)

	got, err := v.Verify(context.Background(), raw, Expect{Audience: testClientID, TokenUse: TokenUseID})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Subject != "user-123" {
		t.Errorf("subject: got %s", got.Subject)
	}
	if got.Email != "jane@example.com" {
		t.Errorf("email: got %s", got.Email)
	}
	if got.Name != "jane.doe" {
		t.Errorf("expected name fallback to cognito:username, got %q", got.Name)
	}
	if len(got.Groups) != 2 || got.Groups[0] != "admins" {
		t.Errorf("groups: got %v", got.Groups)
	}
	if got.TokenUse != "id" {
		t.Errorf("token_use: got %s", got.TokenUse)
	}
}

func TestVerify_NameClaimPreferredOverUsername(t *testing.T) {
	key := mustKey(t)
	fetcher := &fakeKeyFetcher{keys: map[string]crypto.PublicKey{"k1": &key.PublicKey}}
	v := newTestVerifier(fetcher)

	claims := baseClaims()
	claims["name"] = "Jane Doe"
	claims["cognito:username"] = "jane.doe"
	raw := signToken(t, key, "k1", claims)

	got, err := v.Verify(context.Background(), raw, Expect{})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Name != "Jane Doe" {
		t.Errorf("expected explicit name claim to win, got %q", got.Name)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	key := mustKey(t)
	fetcher := &fakeKeyFetcher{keys: map[string]crypto.PublicKey{"k1": &key.PublicKey}}
	v := newTestVerifier(fetcher)

	claims := baseClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	claims["iat"] = time.Now().Add(-2 * time.Hour).Unix()
	raw := signToken(t, key, "k1", claims)

	_, err := v.Verify(context.Background(), raw, Expect{})
	if !apperrors.HasCode(err, apperrors.ErrCodeTokenExpired) {
		t.Fatalf("expected TOKEN_EXPIRED, got %v", err)
	}
}

func TestVerify_WrongKeySignature(t *testing.T) {
	trusted := mustKey(t)
	rogue := mustKey(t)
	fetcher := &fakeKeyFetcher{keys: map[string]crypto.PublicKey{"k1": &trusted.PublicKey}}
	v := newTestVerifier(fetcher)

	raw := signToken(t, rogue, "k1", baseClaims())

	_, err := v.Verify(context.Background(), raw, Expect{})
	if !apperrors.HasCode(err, apperrors.ErrCodeTokenInvalid) {
		t.Fatalf("expected TOKEN_INVALID, got %v", err)
	}
}

func TestVerify_KeySetFetchFailure(t *testing.T) {
	key := mustKey(t)
	fetcher := &fakeKeyFetcher{err: fmt.Errorf("connection refused")}
	v := newTestVerifier(fetcher)

	raw := signToken(t, key, "k1", baseClaims())

	_, err := v.Verify(context.Background(), raw, Expect{})
	if !apperrors.HasCode(err, apperrors.ErrCodeKeySetUnavailable) {
		t.Fatalf("expected KEYSET_UNAVAILABLE, got %v", err)
	}
	appErr, _ := apperrors.AsAppError(err)
	if !appErr.Retryable {
		t.Error("key set fetch failures should be retryable")
	}
}

func TestVerify_TokenUseMismatch(t *testing.T) {
	key := mustKey(t)
	fetcher := &fakeKeyFetcher{keys: map[string]crypto.PublicKey{"k1": &key.PublicKey}}
	v := newTestVerifier(fetcher)

	claims := baseClaims()
	claims["token_use"] = "id"
	raw := signToken(t, key, "k1", claims)

	_, err := v.Verify(context.Background(), raw, Expect{TokenUse: TokenUseAccess})
	if !apperrors.HasCode(err, apperrors.ErrCodeTokenUseMismatch) {
		t.Fatalf("expected TOKEN_USE_MISMATCH, got %v", err)
	}
}

func TestVerify_MissingTokenUsePasses(t *testing.T) {
	key := mustKey(t)
	fetcher := &fakeKeyFetcher{keys: map[string]crypto.PublicKey{"k1": &key.PublicKey}}
	v := newTestVerifier(fetcher)

	claims := baseClaims()
	delete(claims, "token_use")
	raw := signToken(t, key, "k1", claims)

	if _, err := v.Verify(context.Background(), raw, Expect{TokenUse: TokenUseID}); err != nil {
		t.Fatalf("token without token_use claim should pass: %v", err)
	}
}

func TestVerify_IssuerMismatch(t *testing.T) {
	key := mustKey(t)
	fetcher := &fakeKeyFetcher{keys: map[string]crypto.PublicKey{"k1": &key.PublicKey}}
	v := newTestVerifier(fetcher)

	claims := baseClaims()
	claims["iss"] = "https://evil.example.com"
	raw := signToken(t, key, "k1", claims)

	_, err := v.Verify(context.Background(), raw, Expect{})
	if !apperrors.HasCode(err, apperrors.ErrCodeTokenInvalid) {
		t.Fatalf("expected TOKEN_INVALID, got %v", err)
	}
}

func TestVerify_AudienceMismatch(t *testing.T) {
	key := mustKey(t)
	fetcher := &fakeKeyFetcher{keys: map[string]crypto.PublicKey{"k1": &key.PublicKey}}
	v := newTestVerifier(fetcher)

	claims := baseClaims()
	claims["aud"] = "some-other-client"
	raw := signToken(t, key, "k1", claims)

	_, err := v.Verify(context.Background(), raw, Expect{Audience: testClientID})
	if !apperrors.HasCode(err, apperrors.ErrCodeTokenInvalid) {
		t.Fatalf("expected TOKEN_INVALID, got %v", err)
	}
}

func TestVerify_MissingKid(t *testing.T) {
	key := mustKey(t)
	fetcher := &fakeKeyFetcher{keys: map[string]crypto.PublicKey{"k1": &key.PublicKey}}
	v := newTestVerifier(fetcher)

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims())
	raw, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	_, err = v.Verify(context.Background(), raw, Expect{})
	if !apperrors.HasCode(err, apperrors.ErrCodeTokenInvalid) {
		t.Fatalf("expected TOKEN_INVALID, got %v", err)
	}
}

func TestVerify_KeyRotationRefetchesOnce(t *testing.T) {
	oldKey := mustKey(t)
	newKey := mustKey(t)
	fetcher := &fakeKeyFetcher{keys: map[string]crypto.PublicKey{"old": &oldKey.PublicKey}}
	v := newTestVerifier(fetcher)

	// Warm the cache with the old key.
	if _, err := v.Verify(context.Background(), signToken(t, oldKey, "old", baseClaims()), Expect{}); err != nil {
		t.Fatalf("warm-up verify: %v", err)
	}
	if fetcher.fetches != 1 {
		t.Fatalf("expected 1 fetch after warm-up, got %d", fetcher.fetches)
	}

	// The provider rotates keys; an unknown kid forces exactly one refetch.
	fetcher.keys = map[string]crypto.PublicKey{"new": &newKey.PublicKey}
	if _, err := v.Verify(context.Background(), signToken(t, newKey, "new", baseClaims()), Expect{}); err != nil {
		t.Fatalf("verify after rotation: %v", err)
	}
	if fetcher.fetches != 2 {
		t.Errorf("expected 2 fetches after rotation, got %d", fetcher.fetches)
	}

	// A kid absent from the fresh set fails without looping.
	_, err := v.Verify(context.Background(), signToken(t, oldKey, "gone", baseClaims()), Expect{})
	if !apperrors.HasCode(err, apperrors.ErrCodeTokenInvalid) {
		t.Fatalf("expected TOKEN_INVALID for unknown kid, got %v", err)
	}
	if fetcher.fetches != 3 {
		t.Errorf("expected exactly one refetch per miss, got %d fetches", fetcher.fetches)
	}
}

func TestRemoteKeyFetcher_ParsesRSAKeySet(t *testing.T) {
	key := mustKey(t)
	doc := map[string]any{
		"keys": []map[string]string{
			{
				"kty": "RSA",
				"kid": "k1",
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			},
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/jwks.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			t.Errorf("encode JWKS: %v", err)
		}
	}))
	defer srv.Close()

	fetcher := NewRemoteKeyFetcher(5 * time.Second)
	keys, err := fetcher.FetchKeySet(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch key set: %v", err)
	}
	pub, ok := keys["k1"].(*rsa.PublicKey)
	if !ok {
		t.Fatalf("expected *rsa.PublicKey for k1, got %T", keys["k1"])
	}
	if pub.N.Cmp(key.PublicKey.N) != 0 || pub.E != key.PublicKey.E {
		t.Error("parsed key does not match served key")
	}
}

func TestRemoteKeyFetcher_UnreachableIssuer(t *testing.T) {
	fetcher := NewRemoteKeyFetcher(500 * time.Millisecond)
	_, err := fetcher.FetchKeySet(context.Background(), "http://127.0.0.1:1")
	if err == nil {
		t.Fatal("expected error for unreachable issuer")
	}
}
