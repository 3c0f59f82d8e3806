package cluster

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := New(srv.URL, WithTimeout(time.Second))
	_, err := c.ListNodes(context.Background(), "ws-1")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestAPIErrorWithoutBodyDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListNodes(context.Background(), "ws-1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Empty(t, apiErr.Detail)
}

func TestRestartDeployment(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
	}))
	defer srv.Close()

	c := New(srv.URL)
	require.NoError(t, c.RestartDeployment(context.Background(), "ws-1", "web-api"))
	assert.Equal(t, "/internal/v1/workspaces/ws-1/deployments/web-api/restart", path)
}
