package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hexabase/hexabase-ai/internal/cluster"
)

// Executor validates intent input against the tool's schema and runs the
// tool, normalizing every outcome into a Result. It never panics out: a
// panicking tool becomes an internal-error Result with the panic detail
// kept to logs.
type Executor struct{}

func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs tool with input. Validation failures reject the call before
// the tool is invoked.
func (e *Executor) Execute(ctx context.Context, tool Tool, input Input) (result Result) {
	desc := tool.Descriptor()

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("tool panicked", "tool", desc.Name, "panic", fmt.Sprint(rec))
			result = Result{Failure: internalFailure(desc.Name, fmt.Sprint(rec))}
		}
	}()

	if f := validateInput(desc, input); f != nil {
		return Result{Failure: f}
	}

	text, err := tool.Invoke(ctx, input)
	if err != nil {
		return Result{Failure: classifyInvokeError(desc.Name, err)}
	}
	return Result{Text: text}
}

// ClassifyError maps a cluster call error into the failure taxonomy for
// operations that bypass the executor. The caller-facing message never
// carries the raw error; that stays in Detail for logs.
func ClassifyError(operation string, err error) *Failure {
	return classifyInvokeError(operation, err)
}

func classifyInvokeError(tool string, err error) *Failure {
	var apiErr *cluster.APIError
	if errors.As(err, &apiErr) {
		return upstreamFailure(tool, apiErr.StatusCode, apiErr.Detail)
	}
	// No response at all: connection refused, DNS failure, timeout.
	if isTransportError(err) {
		return transportFailure(tool, err)
	}
	return internalFailure(tool, err.Error())
}

func isTransportError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var transport *cluster.TransportError
	return errors.As(err, &transport)
}

func validateInput(desc Descriptor, input Input) *Failure {
	for _, p := range desc.Parameters {
		val, present := input[p.Name]
		if !present || val == nil {
			if p.Required {
				return invalidInputFailure(desc.Name, fmt.Sprintf("missing required parameter '%s'", p.Name))
			}
			continue
		}

		switch p.Type {
		case ParamString:
			if _, ok := val.(string); !ok {
				return invalidInputFailure(desc.Name, fmt.Sprintf("parameter '%s' must be a string", p.Name))
			}
		case ParamInt:
			n, ok := asInt(val)
			if !ok {
				return invalidInputFailure(desc.Name, fmt.Sprintf("parameter '%s' must be an integer", p.Name))
			}
			if p.Min != nil && n < *p.Min {
				return invalidInputFailure(desc.Name, fmt.Sprintf("parameter '%s' must be >= %d", p.Name, *p.Min))
			}
			if p.Max != nil && n > *p.Max {
				return invalidInputFailure(desc.Name, fmt.Sprintf("parameter '%s' must be <= %d", p.Name, *p.Max))
			}
		}
	}
	return nil
}

// asInt accepts the JSON decoder's float64 as well as Go ints from direct
// (non-model) callers. Fractional values are rejected.
func asInt(val any) (int, bool) {
	switch n := val.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// IntField reads an int parameter from validated input.
func (in Input) IntField(name string) (int, bool) {
	v, ok := in[name]
	if !ok {
		return 0, false
	}
	return asInt(v)
}

// StringField reads a string parameter from validated input.
func (in Input) StringField(name string) (string, bool) {
	v, ok := in[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
