package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hexabase/hexabase-ai/internal/cluster"
	"github.com/hexabase/hexabase-ai/internal/orchestrator"
)

func newRegistryAgainst(t *testing.T, handler http.HandlerFunc) *orchestrator.Registry {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	registry, err := NewRegistry(cluster.New(srv.URL))
	require.NoError(t, err)
	return registry
}

func invoke(t *testing.T, registry *orchestrator.Registry, name string, input orchestrator.Input) (string, error) {
	t.Helper()
	tool, ok := registry.Lookup(name)
	require.True(t, ok)
	return tool.Invoke(context.Background(), input)
}

func TestRegistryOrder(t *testing.T) {
	registry, err := NewRegistry(cluster.New("http://unused"))
	require.NoError(t, err)
	assert.Equal(t, []string{"get_kubernetes_nodes", "scale_deployment", "query_logs"}, registry.Names())
}

func TestGetNodes(t *testing.T) {
	registry := newRegistryAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/internal/v1/workspaces/ws-1/nodes", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]cluster.Node{
			{Name: "node-a", Status: "Ready"},
			{Name: "node-b", Status: "Ready"},
			{Name: "node-c", Status: "NotReady"},
		})
	})

	summary, err := invoke(t, registry, "get_kubernetes_nodes", orchestrator.Input{"workspace_id": "ws-1"})
	require.NoError(t, err)
	assert.Equal(t,
		"Found 3 nodes for workspace ws-1.\n"+
			"- Node 'node-a' is Ready.\n"+
			"- Node 'node-b' is Ready.\n"+
			"- Node 'node-c' is NotReady.",
		summary)
}

func TestGetNodesEmpty(t *testing.T) {
	registry := newRegistryAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]cluster.Node{})
	})

	summary, err := invoke(t, registry, "get_kubernetes_nodes", orchestrator.Input{"workspace_id": "ws-1"})
	require.NoError(t, err)
	assert.Equal(t, "No nodes found for workspace ws-1.", summary)
}

func TestScaleDeployment(t *testing.T) {
	var body map[string]any
	registry := newRegistryAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/internal/v1/workspaces/ws-1/deployments/web-api/scale", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
	})

	summary, err := invoke(t, registry, "scale_deployment", orchestrator.Input{
		"workspace_id":    "ws-1",
		"deployment_name": "web-api",
		"replicas":        5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Successfully scaled deployment 'web-api' to 5 replicas.", summary)
	// The request body carries the replica count and nothing else.
	assert.Equal(t, map[string]any{"replicas": float64(5)}, body)
}

func TestScaleDeploymentUpstreamError(t *testing.T) {
	registry := newRegistryAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "deployment not found"})
	})

	_, err := invoke(t, registry, "scale_deployment", orchestrator.Input{
		"workspace_id":    "ws-1",
		"deployment_name": "ghost",
		"replicas":        2,
	})
	var apiErr *cluster.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "deployment not found", apiErr.Detail)
}

func TestQueryLogsWrappedResponse(t *testing.T) {
	var filter cluster.LogFilter
	registry := newRegistryAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/internal/v1/logs/query", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&filter))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"logs": []cluster.LogEntry{
				{Timestamp: "2026-08-30T10:00:00Z", Level: "ERROR", Message: "oom killed"},
				{Timestamp: "2026-08-30T10:01:00Z", Level: "WARN", Message: "restart backoff"},
			},
			"total_count": 2,
		})
	})

	summary, err := invoke(t, registry, "query_logs", orchestrator.Input{
		"workspace_id": "ws-1",
		"search_term":  "oom",
		"level":        "ERROR",
		"limit":        50,
	})
	require.NoError(t, err)
	assert.Equal(t,
		"Found 2 log entries:\n"+
			"- [2026-08-30T10:00:00Z] [ERROR] oom killed\n"+
			"- [2026-08-30T10:01:00Z] [WARN] restart backoff",
		summary)
	assert.Equal(t, "ws-1", filter.WorkspaceID)
	assert.Equal(t, "oom", filter.SearchTerm)
	assert.Equal(t, 50, filter.Limit)
}

func TestQueryLogsBareArrayAccepted(t *testing.T) {
	registry := newRegistryAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]cluster.LogEntry{
			{Timestamp: "t1", Level: "INFO", Message: "hello"},
		})
	})

	summary, err := invoke(t, registry, "query_logs", orchestrator.Input{"workspace_id": "ws-1"})
	require.NoError(t, err)
	assert.Contains(t, summary, "Found 1 log entries:")
}

func TestQueryLogsEmpty(t *testing.T) {
	registry := newRegistryAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"logs": []cluster.LogEntry{}, "total_count": 0})
	})

	summary, err := invoke(t, registry, "query_logs", orchestrator.Input{"workspace_id": "ws-1"})
	require.NoError(t, err)
	assert.Equal(t, "No logs found for workspace ws-1 with the given criteria.", summary)
}

func TestQueryLogsDefaultLimit(t *testing.T) {
	var filter cluster.LogFilter
	registry := newRegistryAgainst(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&filter))
		_ = json.NewEncoder(w).Encode(map[string]any{"logs": []cluster.LogEntry{}})
	})

	_, err := invoke(t, registry, "query_logs", orchestrator.Input{"workspace_id": "ws-1"})
	require.NoError(t, err)
	assert.Equal(t, defaultLogLimit, filter.Limit)
}
