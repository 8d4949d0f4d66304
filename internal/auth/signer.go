// Package auth builds per-request authentication material for providers.
// Two strategies exist: a static header value, and a short-lived HMAC-signed
// token recomputed on every call. Headers are constructed fresh per request;
// nothing here mutates shared state, so concurrent workers are safe.
package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
)

// Token lifetime claims. Polling loops can span minutes, so tokens are never
// cached beyond one request; a cached token could expire mid-poll.
const (
	tokenTTL       = 1800 * time.Second
	tokenNotBefore = 5 * time.Second
)

// Signer produces the authentication headers for one outbound request.
type Signer interface {
	Headers() (http.Header, error)
}

// StaticKey returns the same immutable bearer header on every call.
type StaticKey struct {
	key    string
	prefix string
}

// NewStaticKey builds a signer emitting "Authorization: Bearer <key>".
func NewStaticKey(key string) *StaticKey {
	return &StaticKey{key: key, prefix: "Bearer "}
}

// NewRawKey builds a signer emitting the key verbatim, for backends that
// reject a Bearer prefix.
func NewRawKey(key string) *StaticKey {
	return &StaticKey{key: key}
}

// Headers returns a freshly allocated header map. A new map per call keeps
// callers from sharing one mutable header set across requests.
func (s *StaticKey) Headers() (http.Header, error) {
	if s.key == "" {
		return nil, fmt.Errorf("static key is empty")
	}
	h := make(http.Header, 1)
	h.Set("Authorization", s.prefix+s.key)
	return h, nil
}

// TokenSigner generates a short-lived HS256 JWT per call with issuer,
// expiry and not-before claims, the scheme Kling-family APIs require.
type TokenSigner struct {
	accessID string
	secret   string
	now      func() time.Time
}

// TokenOption configures a TokenSigner.
type TokenOption func(*TokenSigner)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenSigner) {
		s.now = now
	}
}

// NewTokenSigner builds a signed-token signer from an access id and secret.
func NewTokenSigner(accessID, secret string, opts ...TokenOption) *TokenSigner {
	s := &TokenSigner{
		accessID: accessID,
		secret:   secret,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Headers signs a fresh token and returns it as a bearer header.
func (s *TokenSigner) Headers() (http.Header, error) {
	token, err := s.Token()
	if err != nil {
		return nil, err
	}
	h := make(http.Header, 1)
	h.Set("Authorization", "Bearer "+token)
	return h, nil
}

// Token generates one signed token. Recompute cost is negligible relative to
// network latency.
func (s *TokenSigner) Token() (string, error) {
	if s.accessID == "" || s.secret == "" {
		return "", fmt.Errorf("access id and secret are required")
	}
	now := s.now().Unix()
	claims := jwt.MapClaims{
		"iss": s.accessID,
		"exp": now + int64(tokenTTL.Seconds()),
		"nbf": now - int64(tokenNotBefore.Seconds()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
