// Package llm is the client for the Ollama generate API that backs intent
// resolution.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hexabase/hexabase-ai/internal/metrics"
)

const (
	generatePath   = "/api/generate"
	defaultTimeout = 60 * time.Second
)

// OllamaClient calls the Ollama /api/generate endpoint, non-streaming,
// with JSON-formatted output requested. Failures are reported inside the
// reply as an {"error": ...} container rather than as Go errors, so the
// resolver owns classification of everything the model service produces.
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

// Option configures an OllamaClient.
type Option func(*OllamaClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *OllamaClient) { o.client = c }
}

// WithTimeout bounds every generate call.
func WithTimeout(d time.Duration) Option {
	return func(o *OllamaClient) { o.client.Timeout = d }
}

func NewOllamaClient(baseURL, model string, opts ...Option) *OllamaClient {
	c := &OllamaClient{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// -- Ollama wire types --

type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type errorContainer struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Predict sends the prompt pair and returns the raw response body. The
// body is the Ollama envelope: the model's JSON text sits under its
// "response" key. Transport and HTTP failures come back as an error
// container in the same shape, never as a Go error.
func (c *OllamaClient) Predict(ctx context.Context, systemPrompt, userQuery string) (string, error) {
	payload := generateRequest{
		Model:  c.model,
		System: systemPrompt,
		Prompt: "User Query: " + userQuery,
		Format: "json",
		Stream: false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+generatePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordLLMRequest("transport_error", time.Since(start))
		return c.errorReply(errorContainer{
			Error:  "Failed to connect to LLM service",
			Detail: err.Error(),
		}), nil
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordLLMRequest("transport_error", time.Since(start))
		return c.errorReply(errorContainer{
			Error:  "Failed to read LLM response",
			Detail: err.Error(),
		}), nil
	}

	if resp.StatusCode != http.StatusOK {
		metrics.RecordLLMRequest("http_error", time.Since(start))
		return c.errorReply(errorContainer{
			Error:      fmt.Sprintf("HTTP error connecting to LLM: %d", resp.StatusCode),
			StatusCode: resp.StatusCode,
			Detail:     string(respBody),
		}), nil
	}

	metrics.RecordLLMRequest("success", time.Since(start))
	return string(respBody), nil
}

func (c *OllamaClient) errorReply(ec errorContainer) string {
	data, err := json.Marshal(ec)
	if err != nil {
		return `{"error": "An unexpected error occurred"}`
	}
	return string(data)
}
