package profile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Generator produces the instruction set for a novel language pair. It never
// fails: any backend error degrades to a deterministic template, so callers
// always receive a usable instruction set.
type Generator interface {
	Generate(ctx context.Context, source, target string) string
}

const (
	generatorSystemPrompt = "You are an expert in language education and cross-linguistic pedagogy."

	defaultGenerationModel   = "gpt-4o-mini"
	defaultGenerationTimeout = 60 * time.Second
	generationTemperature    = 0.7
	generationMaxTokens      = 4000
)

// OpenAIGenerator synthesizes tutor profiles with a single chat-completions
// call.
type OpenAIGenerator struct {
	client  openai.Client
	apiKey  string
	model   string
	timeout time.Duration
}

// NewOpenAIGenerator creates a generator. An empty apiKey is allowed; every
// Generate call then short-circuits to the fallback template.
func NewOpenAIGenerator(apiKey, model string) *OpenAIGenerator {
	if model == "" {
		model = defaultGenerationModel
	}
	return &OpenAIGenerator{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		apiKey:  apiKey,
		model:   model,
		timeout: defaultGenerationTimeout,
	}
}

// Generate returns instructions for tutoring target to native source
// speakers. Languages must already be normalized by the caller.
func (g *OpenAIGenerator) Generate(ctx context.Context, source, target string) string {
	sourceName := DisplayName(source)
	targetName := DisplayName(target)

	if g.apiKey == "" {
		slog.Warn("openai api key not configured, using template profile",
			"source", source, "target", target)
		return FallbackInstructions(source, target)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(generatorSystemPrompt),
			openai.UserMessage(buildGenerationPrompt(sourceName, targetName)),
		},
		Temperature: openai.Float(generationTemperature),
		MaxTokens:   openai.Int(generationMaxTokens),
	})
	if err != nil {
		slog.Error("profile generation call failed, using template profile",
			"source", source, "target", target, "error", err.Error())
		return FallbackInstructions(source, target)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		slog.Error("profile generation returned empty completion, using template profile",
			"source", source, "target", target)
		return FallbackInstructions(source, target)
	}
	return resp.Choices[0].Message.Content
}

func buildGenerationPrompt(sourceName, targetName string) string {
	return fmt.Sprintf(`Create a language tutor profile for teaching %[2]s to native %[1]s speakers.

The profile should be a system prompt for an AI language tutor robot. Include:

1. IDENTITY: A friendly tutor persona with a name appropriate for the target language
2. LANGUAGE PAIR: Clearly state source (%[1]s) and target (%[2]s) languages
3. PROACTIVE ENGAGEMENT: How to greet learners, check memory for returning users
4. LANGUAGE BEHAVIOR: When to use %[1]s for explanations vs %[2]s for practice
5. ADAPTIVE SUPPORT: How to detect and respond to learner struggles
6. LANGUAGE-SPECIFIC CHALLENGES: Common difficulties %[1]s speakers have learning %[2]s:
   - Pronunciation challenges (sounds that don't exist in %[1]s)
   - Grammar differences (structures that work differently)
   - Cultural/communication style differences
7. CORRECTION STYLE: How to gently correct mistakes
8. GRAMMAR EXPLANATION: How to explain grammar in %[1]s
9. ROBOT EXPRESSIVENESS: Use dance, emotions, head movements for engagement
10. MEMORY USAGE: Store learner name, track struggles, celebrate progress

Format as a system prompt with ## headers. Be specific about the linguistic challenges between these two languages.
Include example phrases in both languages where helpful.
The tutor should primarily explain in %[1]s while teaching %[2]s phrases.`, sourceName, targetName)
}

// FallbackInstructions is the deterministic template used when generation is
// unavailable. It always mentions both language display names.
func FallbackInstructions(source, target string) string {
	sourceName := DisplayName(source)
	targetName := DisplayName(target)
	return fmt.Sprintf(`## IDENTITY
You are a friendly %[2]s tutor for %[1]s speakers.

## LANGUAGE PAIR
- Learner's native language: %[1]s
- Language being learned: %[2]s

## APPROACH
- Explain concepts in %[1]s
- Teach %[2]s phrases with translations
- Be patient and encouraging
- Celebrate progress with dances and emotions

## MEMORY
- Remember learner's name
- Track their progress and struggles
`, sourceName, targetName)
}
