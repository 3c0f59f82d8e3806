// Package orchestrator implements the tool-selection loop: a language
// model picks one tool from a fixed registry, the executor validates and
// runs it against the cluster API, and the outcome comes back as readable
// text. Resolver and executor failures are values, not errors — the loop
// always answers the caller.
package orchestrator

import (
	"context"
	"log/slog"

	"github.com/hexabase/hexabase-ai/internal/metrics"
)

// Recorder persists one row per tool invocation for operational debugging.
// A nil Recorder disables auditing; recording failures never fail requests.
type Recorder interface {
	Record(ctx context.Context, rec Invocation) error
}

// Invocation is the audit view of one tool execution.
type Invocation struct {
	WorkspaceID string
	UserID      string
	Tool        string
	Status      string
	Detail      string
}

type Orchestrator struct {
	resolver *Resolver
	executor *Executor
	registry *Registry
	audit    Recorder
}

func New(resolver *Resolver, executor *Executor, registry *Registry, audit Recorder) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		executor: executor,
		registry: registry,
		audit:    audit,
	}
}

// Handle runs one request/response cycle: resolve the intent, force the
// caller's workspace scope into the input, execute, and return the
// result's text. One resolver call and one execution attempt; every
// failure comes back as caller-facing text rather than an error.
func (o *Orchestrator) Handle(ctx context.Context, userQuery, workspaceID, userID string) string {
	intent, failure := o.resolver.Resolve(ctx, userQuery)
	if failure != nil {
		slog.Warn("intent resolution failed",
			"workspace_id", workspaceID,
			"kind", failure.Kind,
			"detail", failure.Detail)
		metrics.RecordToolExecution("none", string(failure.Kind))
		return failure.CallerText()
	}

	// The caller's authenticated workspace always wins over anything the
	// model put in tool_input.
	if intent.Input == nil {
		intent.Input = Input{}
	}
	intent.Input[WorkspaceParam] = workspaceID

	// Second lookup, after resolution: the loop does not assume the name
	// the resolver validated is still good.
	tool, ok := o.registry.Lookup(intent.ToolName)
	if !ok {
		failure := unknownToolFailure(intent.ToolName, o.registry.Names())
		metrics.RecordToolExecution(intent.ToolName, string(failure.Kind))
		return failure.CallerText()
	}

	result := o.executor.Execute(ctx, tool, intent.Input)
	o.record(ctx, workspaceID, userID, intent.ToolName, result)
	if result.Failure != nil {
		slog.Warn("tool execution failed",
			"workspace_id", workspaceID,
			"tool", intent.ToolName,
			"kind", result.Failure.Kind,
			"detail", result.Failure.Detail)
		metrics.RecordToolExecution(intent.ToolName, string(result.Failure.Kind))
		return result.Failure.CallerText()
	}

	metrics.RecordToolExecution(intent.ToolName, "success")
	return result.Text
}

// RunTool executes a named tool directly, bypassing the model. Used by the
// remediation endpoint. The same workspace injection and validation rules
// apply as in Handle.
func (o *Orchestrator) RunTool(ctx context.Context, toolName string, input Input, workspaceID, userID string) Result {
	tool, ok := o.registry.Lookup(toolName)
	if !ok {
		return Result{Failure: unknownToolFailure(toolName, o.registry.Names())}
	}

	if input == nil {
		input = Input{}
	}
	input[WorkspaceParam] = workspaceID

	result := o.executor.Execute(ctx, tool, input)
	o.record(ctx, workspaceID, userID, toolName, result)

	status := "success"
	if result.Failure != nil {
		status = string(result.Failure.Kind)
	}
	metrics.RecordToolExecution(toolName, status)
	return result
}

func (o *Orchestrator) record(ctx context.Context, workspaceID, userID, tool string, result Result) {
	if o.audit == nil {
		return
	}
	rec := Invocation{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Tool:        tool,
		Status:      "success",
	}
	if result.Failure != nil {
		rec.Status = string(result.Failure.Kind)
		rec.Detail = result.Failure.Detail
	}
	if err := o.audit.Record(ctx, rec); err != nil {
		slog.Warn("audit write failed", "tool", tool, "error", err)
	}
}
