package orchestrator

import (
	"fmt"
	"strings"
)

// FailureKind tags every recoverable failure in the resolve/execute path.
type FailureKind string

const (
	// KindModelError is an upstream model/service failure reported by the
	// LLM container reply.
	KindModelError FailureKind = "model_error"
	// KindMalformedReply is a model reply that does not parse as JSON.
	KindMalformedReply FailureKind = "malformed_reply"
	// KindMissingField is a parsed reply missing tool_name or tool_input.
	KindMissingField FailureKind = "missing_field"
	// KindUnknownTool is a tool_name with no registry entry.
	KindUnknownTool FailureKind = "unknown_tool"
	// KindInvalidInput is a schema validation rejection.
	KindInvalidInput FailureKind = "invalid_input"
	// KindUpstreamError is a non-2xx response from a downstream API.
	KindUpstreamError FailureKind = "upstream_error"
	// KindTransportError is a downstream call that got no response.
	KindTransportError FailureKind = "transport_error"
	// KindInternalError covers anything unexpected, including panics.
	KindInternalError FailureKind = "internal_error"
)

// Failure is a recoverable resolve/execute failure. Message is safe to show
// to callers; Detail carries diagnostics (raw model text, upstream bodies)
// for logs only, except for UnknownTool where Detail lists valid tool names
// and is surfaced to aid retry.
type Failure struct {
	Kind    FailureKind
	Message string
	Detail  string

	// StatusCode is set for KindUpstreamError.
	StatusCode int
}

func (f *Failure) Error() string {
	if f.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", f.Kind, f.Message, f.Detail)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// CallerText renders the short caller-facing form of the failure. Internal
// detail never leaks here; UnknownTool appends the valid names because
// callers use them to rephrase.
func (f *Failure) CallerText() string {
	switch f.Kind {
	case KindUnknownTool:
		return fmt.Sprintf("%s Valid tools: %s.", f.Message, f.Detail)
	default:
		return f.Message
	}
}

func modelErrorFailure(detail string) *Failure {
	return &Failure{
		Kind:    KindModelError,
		Message: "Error: The AI model service reported a failure.",
		Detail:  detail,
	}
}

func malformedReplyFailure(raw string) *Failure {
	return &Failure{
		Kind:    KindMalformedReply,
		Message: "Error: The AI model failed to produce a valid tool selection.",
		Detail:  raw,
	}
}

func missingFieldFailure(field string) *Failure {
	return &Failure{
		Kind:    KindMissingField,
		Message: fmt.Sprintf("Error: The AI model reply was missing the '%s' field.", field),
		Detail:  field,
	}
}

func unknownToolFailure(name string, valid []string) *Failure {
	return &Failure{
		Kind:    KindUnknownTool,
		Message: fmt.Sprintf("Error: The AI selected an invalid tool ('%s').", name),
		Detail:  strings.Join(valid, ", "),
	}
}

func invalidInputFailure(tool, reason string) *Failure {
	return &Failure{
		Kind:    KindInvalidInput,
		Message: fmt.Sprintf("Error: Invalid input for tool '%s': %s.", tool, reason),
		Detail:  reason,
	}
}

func upstreamFailure(tool string, status int, detail string) *Failure {
	msg := fmt.Sprintf("Error: Could not complete '%s'. The API returned a %d status", tool, status)
	if detail != "" {
		msg += ": " + detail
	}
	return &Failure{
		Kind:       KindUpstreamError,
		Message:    msg + ".",
		Detail:     detail,
		StatusCode: status,
	}
}

func transportFailure(tool string, err error) *Failure {
	return &Failure{
		Kind:    KindTransportError,
		Message: fmt.Sprintf("Error: Could not reach the cluster API for '%s'.", tool),
		Detail:  err.Error(),
	}
}

func internalFailure(tool string, detail string) *Failure {
	return &Failure{
		Kind:    KindInternalError,
		Message: fmt.Sprintf("Error: An unexpected error occurred while running '%s'.", tool),
		Detail:  detail,
	}
}
