package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// LLMClient sends a prompt pair to the language model and returns the raw
// reply body. Implementations report service failures inside the reply
// (an {"error": ...} container) rather than as Go errors where possible,
// so the resolver owns all reply classification.
type LLMClient interface {
	Predict(ctx context.Context, systemPrompt, userQuery string) (string, error)
}

// Resolver renders the tool catalog into a system prompt, delegates to the
// model, and parses the reply into an Intent.
type Resolver struct {
	llm      LLMClient
	registry *Registry

	// prompt is rendered once: the registry is immutable after startup, and
	// a byte-identical prompt per request keeps model behavior reproducible.
	prompt string
}

func NewResolver(llm LLMClient, registry *Registry) *Resolver {
	return &Resolver{
		llm:      llm,
		registry: registry,
		prompt:   renderSystemPrompt(registry),
	}
}

// SystemPrompt returns the prompt sent with every request.
func (r *Resolver) SystemPrompt() string {
	return r.prompt
}

func renderSystemPrompt(registry *Registry) string {
	var sb strings.Builder
	sb.WriteString("You are the Hexabase AIOps Orchestrator. Your role is to understand a user's request and use the available tools to answer it. ")
	sb.WriteString("You must respond in a specific JSON format. Based on the user's query, select exactly one tool to use.\n\n")
	sb.WriteString("Available Tools:\n")

	for _, tool := range registry.List() {
		desc := tool.Descriptor()
		sb.WriteString(fmt.Sprintf("- %s: %s\n", desc.Name, desc.Description))
	}

	sb.WriteString("\n")
	sb.WriteString("Your response MUST be a single JSON object with two keys: 'tool_name' and 'tool_input'. ")
	sb.WriteString("'tool_name' must be a string matching one of the available tool names. ")
	sb.WriteString("'tool_input' must be a JSON object containing the parameters for that tool.")

	return sb.String()
}

// container is the envelope shape the model service may wrap replies in:
// either an error report or a double-encoded reply under "response".
type container struct {
	Error    *string          `json:"error"`
	Response *string          `json:"response"`
	ToolName *string          `json:"tool_name"`
	ToolInp  *json.RawMessage `json:"tool_input"`
}

// Resolve asks the model to select a tool for the query and parses its
// reply. The returned Intent has no workspace scope yet; injecting the
// caller's workspace is the orchestration loop's job.
func (r *Resolver) Resolve(ctx context.Context, userQuery string) (Intent, *Failure) {
	reply, err := r.llm.Predict(ctx, r.prompt, userQuery)
	if err != nil {
		return Intent{}, modelErrorFailure(err.Error())
	}
	return r.parseReply(reply)
}

// parseReply accepts either a reply directly containing tool_name and
// tool_input, or a container carrying an upstream error or a
// double-encoded reply under "response".
func (r *Resolver) parseReply(reply string) (Intent, *Failure) {
	var outer container
	if err := json.Unmarshal([]byte(reply), &outer); err != nil {
		return Intent{}, malformedReplyFailure(reply)
	}

	if outer.Error != nil {
		return Intent{}, modelErrorFailure(*outer.Error)
	}

	if outer.Response != nil {
		inner := *outer.Response
		var sel container
		if err := json.Unmarshal([]byte(inner), &sel); err != nil {
			return Intent{}, malformedReplyFailure(inner)
		}
		return r.toIntent(sel)
	}

	return r.toIntent(outer)
}

func (r *Resolver) toIntent(sel container) (Intent, *Failure) {
	if sel.ToolName == nil {
		return Intent{}, missingFieldFailure("tool_name")
	}
	if sel.ToolInp == nil {
		return Intent{}, missingFieldFailure("tool_input")
	}

	var input Input
	if err := json.Unmarshal(*sel.ToolInp, &input); err != nil {
		return Intent{}, missingFieldFailure("tool_input")
	}

	if _, ok := r.registry.Lookup(*sel.ToolName); !ok {
		return Intent{}, unknownToolFailure(*sel.ToolName, r.registry.Names())
	}

	return Intent{ToolName: *sel.ToolName, Input: input}, nil
}
