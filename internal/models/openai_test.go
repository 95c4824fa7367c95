package models

import (
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func TestConvertContentsRebuildsToolCalls(t *testing.T) {
	contents := []*genai.Content{
		genai.NewContentFromText("What did we cover last time?", "user"),
		{
			Role: "model",
			Parts: []*genai.Part{
				{Text: "Let me check."},
				{FunctionCall: &genai.FunctionCall{
					ID:   "call_1",
					Name: "recall",
					Args: map[string]any{"query": "last lesson"},
				}},
			},
		},
		{
			Role: "user",
			Parts: []*genai.Part{
				{FunctionResponse: &genai.FunctionResponse{
					ID:       "call_1",
					Name:     "recall",
					Response: map[string]any{"count": float64(0)},
				}},
			},
		},
	}

	messages := convertContentsToMessages(contents)
	if len(messages) != 3 {
		t.Fatalf("unexpected message count: %d", len(messages))
	}

	asst := messages[1].OfAssistant
	if asst == nil {
		t.Fatal("model turn did not become an assistant message")
	}
	if asst.Content.OfString.Value != "Let me check." {
		t.Fatalf("unexpected assistant text: %q", asst.Content.OfString.Value)
	}
	if len(asst.ToolCalls) != 1 {
		t.Fatalf("unexpected tool calls: %v", asst.ToolCalls)
	}
	call := asst.ToolCalls[0].OfFunction
	if call == nil || call.ID != "call_1" || call.Function.Name != "recall" {
		t.Fatalf("unexpected tool call: %v", asst.ToolCalls[0])
	}
	if call.Function.Arguments != `{"query":"last lesson"}` {
		t.Fatalf("unexpected arguments: %s", call.Function.Arguments)
	}

	if messages[2].OfTool == nil {
		t.Fatal("function response did not become a tool message")
	}
}

func TestConvertContentsToolCallWithoutArgs(t *testing.T) {
	contents := []*genai.Content{
		{
			Role: "model",
			Parts: []*genai.Part{
				{FunctionCall: &genai.FunctionCall{ID: "call_2", Name: "recall"}},
			},
		},
	}

	messages := convertContentsToMessages(contents)
	if len(messages) != 1 || messages[0].OfAssistant == nil {
		t.Fatalf("unexpected messages: %v", messages)
	}
	call := messages[0].OfAssistant.ToolCalls[0].OfFunction
	if call.Function.Arguments != "{}" {
		t.Fatalf("unexpected arguments: %s", call.Function.Arguments)
	}
}

func TestBuildParamsIncludesTools(t *testing.T) {
	m := &openaiModel{name: "gpt-4o-mini"}
	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("hola", "user")},
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{
				FunctionDeclarations: []*genai.FunctionDeclaration{{
					Name:        "recall",
					Description: "Search stored learner memories.",
					ParametersJsonSchema: map[string]any{
						"type": "object",
						"properties": map[string]any{
							"query": map[string]any{"type": "string"},
						},
					},
				}},
			}},
		},
	}

	params := m.buildParams(req)
	if len(params.Tools) != 1 {
		t.Fatalf("unexpected tools: %v", params.Tools)
	}
	fn := params.Tools[0].OfFunction
	if fn == nil || fn.Function.Name != "recall" {
		t.Fatalf("unexpected tool param: %v", params.Tools[0])
	}
	if fn.Function.Parameters["type"] != "object" {
		t.Fatalf("unexpected parameters: %v", fn.Function.Parameters)
	}
}
