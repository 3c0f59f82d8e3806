package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.hexabase.ai"
	defaultTimeout = 30 * time.Second

	// maxAttempts bounds retries on network errors.
	maxAttempts  = 3
	retryBackoff = 500 * time.Millisecond
)

// Client talks to the function platform API.
type Client struct {
	baseURL string
	http    *http.Client
	auth    *AuthProvider
	cleanup *CleanupManager
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithTimeout bounds every API call.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a Client. The API key comes from the argument or,
// when empty, the HEXABASE_API_KEY environment variable.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("HEXABASE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required (argument or HEXABASE_API_KEY)")
	}

	c := &Client{
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	c.auth = NewAuthProvider(c.baseURL, apiKey, c.http)
	c.cleanup = NewCleanupManager(c)
	return c, nil
}

// Cleanup returns the cleanup manager bound to this client.
func (c *Client) Cleanup() *CleanupManager {
	return c.cleanup
}

// GetFunction fetches a function's live metadata.
func (c *Client) GetFunction(ctx context.Context, functionID string) (*Function, error) {
	var fn Function
	if err := c.call(ctx, http.MethodGet, "/functions/"+functionID, nil, &fn); err != nil {
		return nil, err
	}
	return &fn, nil
}

// DeleteFunction removes a deployed function.
func (c *Client) DeleteFunction(ctx context.Context, functionID string) error {
	return c.call(ctx, http.MethodDelete, "/functions/"+functionID, nil, nil)
}

// ExecuteFunction invokes a function with a JSON payload.
func (c *Client) ExecuteFunction(ctx context.Context, functionID string, payload map[string]any) (*FunctionExecution, error) {
	var exec FunctionExecution
	if err := c.call(ctx, http.MethodPost, "/functions/"+functionID+"/execute", payload, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// GetExecutionStatus fetches the state of an asynchronous execution.
func (c *Client) GetExecutionStatus(ctx context.Context, executionID string) (*FunctionExecution, error) {
	var exec FunctionExecution
	if err := c.call(ctx, http.MethodGet, "/executions/"+executionID, nil, &exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// call performs one authenticated API request with bounded retries on
// network errors.
func (c *Client) call(ctx context.Context, method, path string, payload, out any) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * retryBackoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := c.doOnce(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload, out any) error {
	headers, err := c.auth.AuthHeaders(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode == http.StatusNotFound && strings.HasPrefix(path, "/functions/") {
		return ErrFunctionNotFound
	}
	if resp.StatusCode >= 400 {
		apiErr := &Error{}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return apiErr
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
