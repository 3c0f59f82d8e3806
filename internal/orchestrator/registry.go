package orchestrator

import "fmt"

// Registry is the fixed catalog of tools. It is populated once at startup
// and never mutated afterwards, so lookups are safe for concurrent use
// without locking. List returns tools in registration order: the ordering
// is rendered verbatim into the system prompt, and a stable prompt is what
// keeps model behavior reproducible.
type Registry struct {
	tools []Tool
	index map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]Tool)}
}

// Register adds a tool. Duplicate names are a startup configuration error.
func (r *Registry) Register(tool Tool) error {
	name := tool.Descriptor().Name
	if name == "" {
		return fmt.Errorf("tool name is required")
	}
	if _, exists := r.index[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools = append(r.tools, tool)
	r.index[name] = tool
	return nil
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	tool, ok := r.index[name]
	return tool, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for _, t := range r.tools {
		names = append(names, t.Descriptor().Name)
	}
	return names
}
