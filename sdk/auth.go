package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshBuffer is how long before expiry a token is treated as stale.
const refreshBuffer = 5 * time.Minute

// TokenManager holds an access token and its expiry.
type TokenManager struct {
	mu      sync.RWMutex
	token   string
	expires time.Time
}

// Set stores a token that expires in expiresIn seconds.
func (m *TokenManager) Set(token string, expiresIn int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.expires = time.Now().Add(time.Duration(expiresIn) * time.Second)
}

// Token returns the stored token, or ErrTokenExpired when it is missing
// or inside the refresh buffer.
func (m *TokenManager) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" || time.Until(m.expires) < refreshBuffer {
		return "", ErrTokenExpired
	}
	return m.token, nil
}

// AuthProvider exchanges an API key for access tokens and keeps the
// current one fresh. Concurrent refreshes collapse into one network
// call.
type AuthProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	tokens  TokenManager
	group   singleflight.Group
}

func NewAuthProvider(baseURL, apiKey string, client *http.Client) *AuthProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &AuthProvider{baseURL: baseURL, apiKey: apiKey, client: client}
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type authErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Authenticate performs the credential exchange and caches the token.
func (p *AuthProvider) Authenticate(ctx context.Context) error {
	payload, err := json.Marshal(tokenRequest{APIKey: p.apiKey})
	if err != nil {
		return fmt.Errorf("marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/auth/token", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		var authErr authErrorResponse
		_ = json.Unmarshal(body, &authErr)
		if authErr.Error == "" {
			authErr.Error = "invalid API key"
		}
		return &AuthenticationError{Code: authErr.Code, Message: authErr.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("token endpoint returned an empty token")
	}

	p.tokens.Set(tok.AccessToken, tok.ExpiresIn)
	return nil
}

// ValidToken returns a fresh access token, refreshing if the cached one
// is stale. A stampede of callers performs a single refresh.
func (p *AuthProvider) ValidToken(ctx context.Context) (string, error) {
	if tok, err := p.tokens.Token(); err == nil {
		return tok, nil
	}

	_, err, _ := p.group.Do("refresh", func() (any, error) {
		// Another caller may have refreshed while we queued.
		if _, err := p.tokens.Token(); err == nil {
			return nil, nil
		}
		return nil, p.Authenticate(ctx)
	})
	if err != nil {
		return "", err
	}
	return p.tokens.Token()
}

// AuthHeaders returns the headers every API call carries.
func (p *AuthProvider) AuthHeaders(ctx context.Context) (map[string]string, error) {
	tok, err := p.ValidToken(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"Authorization": "Bearer " + tok,
		"X-API-Key":     p.apiKey,
	}, nil
}
