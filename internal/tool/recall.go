package tool

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/memory"
)

// GatewayProvider returns the memory gateway scoped to the currently active
// tutor. It is called once per invocation, so each tool call keeps the owner
// that was current when it was issued.
type GatewayProvider func() *memory.Gateway

// NewRecallTool builds the tool that searches persistent learner memory.
func NewRecallTool(gateway GatewayProvider) *Definition {
	return &Definition{
		Name: "recall",
		Description: "Search your memory for information about this learner from previous sessions. " +
			"Use this to check their progress, preferences, or past struggles before giving advice.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type: "string",
					Description: "What to search for, e.g., 'vocabulary struggles', 'preferred topics', " +
						"'last session progress', 'grammar they find difficult'",
				},
			},
			Required: []string{"query"},
		},
		Handler: func(ctx context.Context, args map[string]any) map[string]any {
			result := gateway().Recall(ctx, stringArg(args, "query"))
			out := map[string]any{
				"memories": result.Memories,
				"count":    result.Count,
			}
			if result.Error != "" {
				out["error"] = result.Error
			}
			return out
		},
	}
}
