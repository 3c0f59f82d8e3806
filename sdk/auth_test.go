package sdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/token", r.URL.Path)
		var req tokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.APIKey != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(authErrorResponse{Error: "invalid API key", Code: "INVALID_KEY"})
			return
		}
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok-1", ExpiresIn: 3600})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthenticate(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(t, &calls)

	p := NewAuthProvider(srv.URL, "good-key", nil)
	require.NoError(t, p.Authenticate(context.Background()))

	tok, err := p.tokens.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
}

func TestAuthenticateRejected(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(t, &calls)

	p := NewAuthProvider(srv.URL, "bad-key", nil)
	err := p.Authenticate(context.Background())

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "INVALID_KEY", authErr.Code)
	assert.Equal(t, int64(0), calls.Load())
}

func TestValidTokenCollapsesRefreshes(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(t, &calls)
	p := NewAuthProvider(srv.URL, "good-key", nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := p.ValidToken(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "tok-1", tok)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), calls.Load())
}

func TestTokenManagerRefreshBuffer(t *testing.T) {
	var m TokenManager

	_, err := m.Token()
	assert.ErrorIs(t, err, ErrTokenExpired)

	// Expires within the 5-minute buffer: treated as stale.
	m.Set("short-lived", 60)
	_, err = m.Token()
	assert.ErrorIs(t, err, ErrTokenExpired)

	m.Set("long-lived", 3600)
	tok, err := m.Token()
	require.NoError(t, err)
	assert.Equal(t, "long-lived", tok)
}

func TestAuthHeaders(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(t, &calls)
	p := NewAuthProvider(srv.URL, "good-key", &http.Client{Timeout: 5 * time.Second})

	headers, err := p.AuthHeaders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", headers["Authorization"])
	assert.Equal(t, "good-key", headers["X-API-Key"])
}
