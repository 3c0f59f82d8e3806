package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// jwksDocument is the subset of RFC 7517 we consume from the control
// plane.
type jwksDocument struct {
	Keys []jwksKey `json:"keys"`
}

type jwksKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// KeySource fetches and caches the control plane's signing key. The key
// is fetched once and held for the process lifetime; a cold-start
// stampede collapses into a single network call.
type KeySource struct {
	url    string
	client *http.Client

	mu     sync.RWMutex
	cached *rsa.PublicKey

	group singleflight.Group
}

func NewKeySource(url string) *KeySource {
	return &KeySource{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Key returns the cached verification key, fetching the JWKS document on
// first use.
func (s *KeySource) Key(ctx context.Context) (*rsa.PublicKey, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := s.group.Do("jwks", func() (any, error) {
		key, err := s.fetch(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cached = key
		s.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*rsa.PublicKey), nil
}

// Ready reports whether a key has been fetched at least once.
func (s *KeySource) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached != nil
}

func (s *KeySource) fetch(ctx context.Context) (*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create jwks request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch jwks: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch jwks: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read jwks response: %w", err)
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse jwks document: %w", err)
	}
	if len(doc.Keys) == 0 {
		return nil, fmt.Errorf("jwks document contains no keys")
	}

	return rsaKeyFromJWK(doc.Keys[0])
}

func rsaKeyFromJWK(k jwksKey) (*rsa.PublicKey, error) {
	if k.Kty != "RSA" {
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode exponent: %w", err)
	}

	e := 0
	for _, b := range eBytes {
		e = e<<8 | int(b)
	}
	if e == 0 {
		return nil, fmt.Errorf("invalid public exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
