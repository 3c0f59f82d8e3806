// Package cluster is the client for the HKS internal API: the fixed REST
// surface the orchestrator's tools execute against.
package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response from the cluster API. Detail carries the
// body's "error" field when the body had one.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cluster api status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("cluster api status %d", e.StatusCode)
}

// TransportError wraps a request that got no response at all.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("cluster api unreachable: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// Client talks to the HKS internal API. Safe for concurrent use.
type Client struct {
	baseURL string
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

// WithTimeout bounds every request.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.client.Timeout = d }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Node is one Kubernetes node as reported by the internal API.
type Node struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// LogEntry is one log line from the log query API.
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// LogFilter is the log query request body. Zero-valued fields are omitted.
type LogFilter struct {
	WorkspaceID string `json:"workspace_id"`
	SearchTerm  string `json:"search_term,omitempty"`
	Level       string `json:"level,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// logQueryResponse is the canonical log query reply shape. Older control
// planes return a bare array instead; QueryLogs accepts both.
type logQueryResponse struct {
	Logs       []LogEntry `json:"logs"`
	TotalCount int        `json:"total_count"`
}

type scaleRequest struct {
	Replicas int `json:"replicas"`
}

// ListNodes fetches the node inventory for a workspace.
func (c *Client) ListNodes(ctx context.Context, workspaceID string) ([]Node, error) {
	path := fmt.Sprintf("/internal/v1/workspaces/%s/nodes", workspaceID)
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var nodes []Node
	if err := json.Unmarshal(body, &nodes); err != nil {
		return nil, fmt.Errorf("decoding node list: %w", err)
	}
	return nodes, nil
}

// ScaleDeployment sets the replica count of a deployment. The request body
// is exactly {"replicas": N}.
func (c *Client) ScaleDeployment(ctx context.Context, workspaceID, deployment string, replicas int) error {
	path := fmt.Sprintf("/internal/v1/workspaces/%s/deployments/%s/scale", workspaceID, deployment)
	_, err := c.do(ctx, http.MethodPost, path, scaleRequest{Replicas: replicas})
	return err
}

// RestartDeployment triggers a rolling restart of a deployment.
func (c *Client) RestartDeployment(ctx context.Context, workspaceID, deployment string) error {
	path := fmt.Sprintf("/internal/v1/workspaces/%s/deployments/%s/restart", workspaceID, deployment)
	_, err := c.do(ctx, http.MethodPost, path, nil)
	return err
}

// QueryLogs searches workspace logs. The canonical reply is the
// {"logs": [...], "total_count": N} wrapper; a bare top-level array from
// older deployments is accepted too.
func (c *Client) QueryLogs(ctx context.Context, filter LogFilter) ([]LogEntry, error) {
	body, err := c.do(ctx, http.MethodPost, "/internal/v1/logs/query", filter)
	if err != nil {
		return nil, err
	}

	var wrapped logQueryResponse
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Logs != nil {
		return wrapped.Logs, nil
	}

	var bare []LogEntry
	if err := json.Unmarshal(body, &bare); err != nil {
		return nil, fmt.Errorf("decoding log query response: %w", err)
	}
	return bare, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(body)}
	}
	return body, nil
}

// errorDetail pulls the "error" field out of a failure body, when present.
func errorDetail(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}
