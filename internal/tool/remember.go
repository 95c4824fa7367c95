package tool

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/types"
)

// NewRememberTool builds the tool that stores learner facts for future
// sessions.
func NewRememberTool(gateway GatewayProvider) *Definition {
	categories := make([]any, 0, len(types.Categories))
	for _, c := range types.Categories {
		categories = append(categories, string(c))
	}

	return &Definition{
		Name: "remember",
		Description: "Store an important fact about this learner for future sessions. " +
			"Use this to record progress, struggles, preferences, or successes " +
			"so you can provide personalized tutoring next time.",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"fact": {
					Type: "string",
					Description: "The fact to remember, e.g., 'Learner struggles with subjunctive', " +
						"'Prefers topics about Mexican culture', 'Successfully used preterite vs imperfect today'",
				},
				"category": {
					Type: "string",
					Enum: categories,
					Description: "Category of the memory: progress (general notes), preference (what they like), " +
						"struggle (what's difficult), success (what they mastered)",
				},
			},
			Required: []string{"fact", "category"},
		},
		Handler: func(ctx context.Context, args map[string]any) map[string]any {
			fact := stringArg(args, "fact")
			category := types.Category(stringArg(args, "category"))
			result := gateway().Remember(ctx, fact, category)
			out := map[string]any{"stored": result.Stored}
			if result.Stored {
				out["fact"] = result.Fact
				out["category"] = result.Category
			}
			if result.Error != "" {
				out["error"] = result.Error
			}
			return out
		},
	}
}
