package tool

import (
	"strings"

	"google.golang.org/adk/model"
	adktool "google.golang.org/adk/tool"
	"google.golang.org/genai"

	"github.com/mwvaughn/reachy-mini-language-tutor/internal/utils"
)

const (
	preloadToolName        = "preload_memory"
	preloadToolDescription = "Preloads relevant learner memories into the system instruction before each turn."
)

// PreloadMemoryTool injects recalled learner facts into the system
// instruction of the chat agent before each turn. It is a request processor,
// not a callable function tool.
type PreloadMemoryTool struct {
	gateway GatewayProvider
}

// NewPreloadMemoryTool creates a PreloadMemoryTool.
func NewPreloadMemoryTool(gateway GatewayProvider) *PreloadMemoryTool {
	return &PreloadMemoryTool{gateway: gateway}
}

// Name implements tool.Tool.
func (t *PreloadMemoryTool) Name() string {
	return preloadToolName
}

// Description implements tool.Tool.
func (t *PreloadMemoryTool) Description() string {
	return preloadToolDescription
}

// IsLongRunning implements tool.Tool.
func (t *PreloadMemoryTool) IsLongRunning() bool {
	return false
}

// ProcessRequest searches learner memory for the user's message and appends
// matching facts to the system instruction. Memory failures leave the
// request untouched.
func (t *PreloadMemoryTool) ProcessRequest(ctx adktool.Context, req *model.LLMRequest) error {
	if ctx == nil || req == nil {
		return nil
	}

	query := strings.TrimSpace(utils.ExtractContentText(ctx.UserContent()))
	if query == "" {
		return nil
	}

	result := t.gateway().Recall(ctx, query)
	if len(result.Memories) == 0 {
		return nil
	}

	appendInstruction(req, buildMemoryInstruction(result.Memories))
	return nil
}

func buildMemoryInstruction(memories []string) string {
	var instruction strings.Builder
	instruction.WriteString(`The following notes are from your previous sessions with this learner.
They may be useful for personalizing your tutoring in the current turn.
<PAST_SESSION_NOTES>
`)
	for _, m := range memories {
		if strings.TrimSpace(m) == "" {
			continue
		}
		instruction.WriteString("- " + m + "\n")
	}
	instruction.WriteString("</PAST_SESSION_NOTES>\n")
	return instruction.String()
}

func appendInstruction(req *model.LLMRequest, instruction string) {
	if strings.TrimSpace(instruction) == "" {
		return
	}
	if req.Config == nil {
		req.Config = &genai.GenerateContentConfig{}
	}
	if req.Config.SystemInstruction == nil {
		req.Config.SystemInstruction = genai.NewContentFromText(instruction, genai.RoleUser)
		return
	}
	req.Config.SystemInstruction.Parts = append(req.Config.SystemInstruction.Parts, genai.NewPartFromText(instruction))
}
