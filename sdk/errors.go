// Package sdk is the Go client for the Hexabase serverless function
// platform: deploy, execute and auto-clean functions under a workspace
// API key.
package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors callers can test with errors.Is.
var (
	// ErrTokenExpired reports that the cached access token is past its
	// refresh window and no refresh has succeeded.
	ErrTokenExpired = errors.New("access token expired")

	// ErrFunctionNotFound reports a 404 from a /functions/{id} path.
	ErrFunctionNotFound = errors.New("function not found")
)

// Error is a structured API error returned by the platform.
type Error struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// AuthenticationError reports a rejected credential exchange.
type AuthenticationError struct {
	Code    string
	Message string
}

func (e *AuthenticationError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("authentication failed (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// NetworkError wraps a transport-level failure; requests that fail with
// one are retried.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }
