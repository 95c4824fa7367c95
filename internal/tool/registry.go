// Package tool exposes the tutor's conversation tools: recall and remember,
// plus the per-turn memory preload hook for the chat agent.
package tool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/jsonschema-go/jsonschema"
	adktool "google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// Handler executes one tool invocation. Results are JSON-shaped maps so they
// can be returned directly through a function-calling surface; handlers
// return structured errors in the result, never panic.
type Handler func(ctx context.Context, args map[string]any) map[string]any

// Definition describes one callable tool.
type Definition struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
	Handler     Handler
}

// AgentTool wraps the definition as a callable ADK tool so the
// conversational agent can invoke it mid-turn.
func (d *Definition) AgentTool() (adktool.Tool, error) {
	handler := d.Handler
	return functiontool.New(functiontool.Config{
		Name:         d.Name,
		Description:  d.Description,
		InputSchema:  d.Parameters,
		OutputSchema: &jsonschema.Schema{Type: "object"},
	}, func(ctx adktool.Context, args map[string]any) (map[string]any, error) {
		return handler(ctx, args), nil
	})
}

// Registry resolves (name, args) invocations against registered tools.
type Registry struct {
	tools map[string]*Definition
	order []string
}

// NewRegistry creates a Registry from the given definitions.
func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{tools: make(map[string]*Definition, len(defs))}
	for _, def := range defs {
		r.tools[def.Name] = def
		r.order = append(r.order, def.Name)
	}
	return r
}

// AgentTools wraps every registered tool in registration order, for the
// chat agent's tool list.
func (r *Registry) AgentTools() ([]adktool.Tool, error) {
	tools := make([]adktool.Tool, 0, len(r.order))
	for _, name := range r.order {
		wrapped, err := r.tools[name].AgentTool()
		if err != nil {
			return nil, fmt.Errorf("failed to wrap tool %s: %w", name, err)
		}
		tools = append(tools, wrapped)
	}
	return tools, nil
}

// Invoke runs one tool synchronously. Unknown tools produce a structured
// error result rather than an error return, matching the contract that a
// tool call never raises into the conversation loop.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) map[string]any {
	def, ok := r.tools[name]
	if !ok {
		slog.Warn("unknown tool invoked", "tool", name)
		return map[string]any{"error": fmt.Sprintf("Unknown tool: %s", name)}
	}
	if args == nil {
		args = map[string]any{}
	}
	return def.Handler(ctx, args)
}

// stringArg extracts a string argument, tolerating absent or mistyped
// values.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
