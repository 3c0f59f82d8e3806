package orchestrator

import "context"

// ParamType is the wire type of a tool parameter.
type ParamType string

const (
	ParamString ParamType = "string"
	ParamInt    ParamType = "int"
)

// Parameter describes one field of a tool's input schema.
type Parameter struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool

	// Min and Max bound int parameters when set. Ignored for strings.
	Min *int
	Max *int
}

// Descriptor is the immutable identity of a tool: the name the model
// dispatches on, the description rendered into the system prompt, and the
// input schema the executor validates against.
type Descriptor struct {
	Name        string
	Description string
	Parameters  []Parameter
}

// Input is a tool's parameter set as decoded from the model reply. Values
// are JSON-decoded (strings and float64 numbers).
type Input map[string]any

// Tool is a single cluster-management action the orchestrator can perform.
// Invoke returns a human-readable summary on success. Transport and API
// failures are returned as errors and classified by the executor.
type Tool interface {
	Descriptor() Descriptor
	Invoke(ctx context.Context, input Input) (string, error)
}

// Intent is the (tool, input) pair resolved from a model reply. It is
// created per request and discarded after execution. The workspace scope is
// injected by the orchestration loop, never taken from the model's output.
type Intent struct {
	ToolName string
	Input    Input
}

// Result is the outcome of executing an intent: readable summary text or a
// Failure. Exactly one of the two is set.
type Result struct {
	Text    string
	Failure *Failure
}

// WorkspaceParam is the parameter name carrying the caller's authenticated
// workspace scope. The orchestration loop overwrites it on every intent.
const WorkspaceParam = "workspace_id"
