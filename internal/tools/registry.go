package tools

import (
	"fmt"

	"github.com/kisanmitra/kisan/internal/llm"
)

// Registry holds the tool definitions advertised to the model and validates
// model-issued invocations against their parameter schemas. It is populated
// at startup and read-only afterwards, so it is safe for concurrent use
// across requests.
type Registry struct {
	defs  []llm.ToolDef
	index map[string]llm.ToolDef
}

// UnknownToolError is returned when a requested tool name is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

// ValidationError is returned when tool arguments fail schema validation.
// It is terminal for that one call, never for the whole turn.
type ValidationError struct {
	Tool   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]llm.ToolDef),
	}
}

// Register adds a tool definition. Names must be unique.
func (r *Registry) Register(def llm.ToolDef) error {
	if def.Name == "" {
		return fmt.Errorf("tool definition missing name")
	}
	if _, exists := r.index[def.Name]; exists {
		return fmt.Errorf("tool already registered: %s", def.Name)
	}
	r.defs = append(r.defs, def)
	r.index[def.Name] = def
	return nil
}

// Definitions returns all registered tools in registration order.
func (r *Registry) Definitions() []llm.ToolDef {
	return r.defs
}

// Validate checks args against the named tool's parameter schema. Returns
// *UnknownToolError or *ValidationError on failure.
func (r *Registry) Validate(name string, args map[string]any) error {
	def, ok := r.index[name]
	if !ok {
		return &UnknownToolError{Name: name}
	}
	if err := validateSchema(args, def.Parameters); err != nil {
		return &ValidationError{Tool: name, Reason: err.Error()}
	}
	return nil
}
