// Package models adapts chat model providers to the ADK model interface.
package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// openaiModel wraps an OpenAI-compatible chat client behind model.LLM.
type openaiModel struct {
	client *openai.Client
	name   string
}

// NewOpenAIModel creates the chat model driving the console tutor session.
func NewOpenAIModel(apiKey, modelName string) (model.LLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiModel{
		name:   modelName,
		client: &client,
	}, nil
}

func (m *openaiModel) Name() string {
	return m.name
}

func (m *openaiModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	m.maybeAppendUserContent(req)

	if stream {
		return m.generateStream(ctx, req)
	}
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *openaiModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	params := m.buildParams(req)

	resp, err := m.client.Chat.Completions.New(ctx, *params)
	if err != nil {
		slog.Error("failed to call chat API", "model", m.name, "error", err.Error())
		return nil, fmt.Errorf("failed to call chat API: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return &model.LLMResponse{}, nil
	}

	message := resp.Choices[0].Message
	content := &genai.Content{
		Role:  string(message.Role),
		Parts: []*genai.Part{},
	}
	if message.Content != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: message.Content})
	}
	for _, tc := range message.ToolCalls {
		if tc.Type != "function" || tc.ID == "" || tc.Function.Name == "" {
			continue
		}
		content.Parts = append(content.Parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   tc.ID,
				Name: tc.Function.Name,
				Args: parseFunctionArgs(tc.Function.Arguments),
			},
		})
	}

	return &model.LLMResponse{Content: content}, nil
}

func (m *openaiModel) generateStream(ctx context.Context, req *model.LLMRequest) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		params := m.buildParams(req)

		stream := m.client.Chat.Completions.NewStreaming(ctx, *params)
		defer func() {
			if err := stream.Close(); err != nil {
				slog.Error("failed to close stream", "error", err.Error())
			}
		}()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			choice := chunk.Choices[0]
			if choice.Delta.Content == "" && choice.FinishReason == "" {
				continue
			}

			resp := &model.LLMResponse{
				Content: &genai.Content{
					Role:  "model",
					Parts: []*genai.Part{{Text: choice.Delta.Content}},
				},
				Partial:      choice.FinishReason == "",
				TurnComplete: choice.FinishReason != "",
			}
			if !yield(resp, nil) {
				return
			}
		}

		if err := stream.Err(); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				yield(nil, fmt.Errorf("context cancelled: %w", err))
				return
			}
			slog.Error("failed to stream chat API", "model", m.name, "error", err.Error())
			yield(nil, fmt.Errorf("stream error: %w", err))
		}
	}
}

// buildParams converts an ADK request into OpenAI chat parameters.
func (m *openaiModel) buildParams(req *model.LLMRequest) *openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{Model: req.Model}
	if params.Model == "" {
		params.Model = m.name
	}

	params.Messages = convertContentsToMessages(req.Contents)

	if req.Config != nil {
		if req.Config.SystemInstruction != nil {
			if text := extractText(req.Config.SystemInstruction); text != "" {
				params.Messages = append(
					[]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(text)},
					params.Messages...)
			}
		}
		if req.Config.Temperature != nil {
			params.Temperature = openai.Float(float64(*req.Config.Temperature))
		}
		if req.Config.MaxOutputTokens > 0 {
			params.MaxTokens = openai.Int(int64(req.Config.MaxOutputTokens))
		}
		params.Tools = convertToolsToParams(req.Config.Tools)
	}

	return &params
}

// convertToolsToParams maps function declarations onto the OpenAI tools
// parameter so the model can request tool calls.
func convertToolsToParams(tools []*genai.Tool) []openai.ChatCompletionToolUnionParam {
	var params []openai.ChatCompletionToolUnionParam
	for _, t := range tools {
		if t == nil {
			continue
		}
		for _, fn := range t.FunctionDeclarations {
			if fn == nil || fn.Name == "" {
				continue
			}
			def := openai.FunctionDefinitionParam{
				Name:       fn.Name,
				Parameters: functionParameters(fn),
			}
			if fn.Description != "" {
				def.Description = openai.String(fn.Description)
			}
			params = append(params, openai.ChatCompletionToolUnionParam{
				OfFunction: &openai.ChatCompletionFunctionToolParam{Function: def},
			})
		}
	}
	return params
}

func functionParameters(fn *genai.FunctionDeclaration) openai.FunctionParameters {
	if fn.ParametersJsonSchema == nil {
		return nil
	}
	if m, ok := fn.ParametersJsonSchema.(map[string]any); ok {
		return m
	}
	raw, err := json.Marshal(fn.ParametersJsonSchema)
	if err != nil {
		slog.Error("failed to marshal tool schema", "tool", fn.Name, "error", err.Error())
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		slog.Error("failed to convert tool schema", "tool", fn.Name, "error", err.Error())
		return nil
	}
	return m
}

// maybeAppendUserContent keeps the message list valid for chat completion:
// the conversation must end on a user turn.
func (m *openaiModel) maybeAppendUserContent(req *model.LLMRequest) {
	if len(req.Contents) == 0 {
		req.Contents = append(req.Contents, genai.NewContentFromText("Handle the requests as specified in the System Instruction.", "user"))
		return
	}
	if last := req.Contents[len(req.Contents)-1]; last != nil && last.Role != "user" {
		req.Contents = append(req.Contents, genai.NewContentFromText("Continue processing previous requests as instructed.", "user"))
	}
}

func convertContentsToMessages(contents []*genai.Content) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, content := range contents {
		if content == nil {
			continue
		}

		var hasFunctionResponse bool
		for _, part := range content.Parts {
			if part.FunctionResponse != nil && part.FunctionResponse.ID != "" {
				hasFunctionResponse = true
			}
		}
		if hasFunctionResponse {
			for _, part := range content.Parts {
				if part.FunctionResponse == nil || part.FunctionResponse.ID == "" {
					continue
				}
				payload, err := json.Marshal(part.FunctionResponse.Response)
				if err != nil {
					slog.Error("failed to marshal function response", "error", err.Error())
					continue
				}
				messages = append(messages, openai.ToolMessage(string(payload), part.FunctionResponse.ID))
			}
			continue
		}

		text := extractText(content)
		switch content.Role {
		case "model":
			if calls := toolCallParams(content); len(calls) > 0 {
				asst := openai.ChatCompletionAssistantMessageParam{ToolCalls: calls}
				if text != "" {
					asst.Content.OfString = openai.String(text)
				}
				messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &asst})
				continue
			}
			messages = append(messages, openai.AssistantMessage(text))
		case "system":
			messages = append(messages, openai.SystemMessage(text))
		default:
			messages = append(messages, openai.UserMessage(text))
		}
	}
	return messages
}

// toolCallParams rebuilds the assistant tool_calls entries for a model turn
// so that tool result messages replay against a matching request.
func toolCallParams(content *genai.Content) []openai.ChatCompletionMessageToolCallUnionParam {
	var calls []openai.ChatCompletionMessageToolCallUnionParam
	for _, part := range content.Parts {
		if part == nil || part.FunctionCall == nil || part.FunctionCall.ID == "" {
			continue
		}
		args := "{}"
		if len(part.FunctionCall.Args) > 0 {
			if raw, err := json.Marshal(part.FunctionCall.Args); err == nil {
				args = string(raw)
			} else {
				slog.Error("failed to marshal function call args", "tool", part.FunctionCall.Name, "error", err.Error())
			}
		}
		calls = append(calls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: part.FunctionCall.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      part.FunctionCall.Name,
					Arguments: args,
				},
			},
		})
	}
	return calls
}

func extractText(content *genai.Content) string {
	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func parseFunctionArgs(jsonStr string) map[string]any {
	if jsonStr == "" {
		return make(map[string]any)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(jsonStr), &args); err != nil {
		slog.Error("failed to parse function arguments", "error", err.Error(), "json", jsonStr)
		return make(map[string]any)
	}
	return args
}
