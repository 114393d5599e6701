package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/arborlabs/agentcore/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider against OpenAI's chat completion API,
// grounded on internal/agent/providers/openai.go's streaming
// accumulate-by-index shape, extended with the §4.4.1 behaviors the
// teacher's version lacks: reasoning-model handling, developer-role system
// prompts, the explicit [DONE] sentinel, and embedded-image splitting.
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider builds an OpenAI provider. An empty apiKey produces a
// provider whose Complete always fails, matching the teacher's
// fail-closed-not-panic convention for unconfigured credentials.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	if apiKey == "" {
		return &OpenAIProvider{}
	}
	return &OpenAIProvider{client: openai.NewClient(apiKey)}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) SupportsTools() bool { return true }

func (p *OpenAIProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "gpt-5", Name: "GPT-5", ContextSize: 256000, SupportsVision: true},
		{ID: "gpt-4o", Name: "GPT-4o", ContextSize: 128000, SupportsVision: true},
		{ID: "o1", Name: "o1", ContextSize: 200000, SupportsVision: false},
		{ID: "gpt-4-turbo", Name: "GPT-4 Turbo", ContextSize: 128000, SupportsVision: true},
	}
}

// isReasoningModel reports whether model is one of the o1/o3/o4/gpt-5
// family, which OpenAI serves through the reasoning-specific request shape
// (developer role instead of system, max_completion_tokens instead of
// max_tokens, no temperature, reasoning_effort instead of a free-form
// prompt). Matches "o1", "o1-mini", "o3", "o4-mini", "gpt-5",
// "gpt-5-mini", and a trailing "-low"/"-medium"/"-high" effort suffix on
// any of those.
func isReasoningModel(model string) bool {
	base, _ := splitReasoningEffort(model)
	switch {
	case base == "gpt-5" || strings.HasPrefix(base, "gpt-5-"):
		return true
	case base == "o1" || strings.HasPrefix(base, "o1-"):
		return true
	case base == "o3" || strings.HasPrefix(base, "o3-"):
		return true
	case base == "o4" || strings.HasPrefix(base, "o4-"):
		return true
	default:
		return false
	}
}

// splitReasoningEffort splits a trailing "-low"|"-medium"|"-high" suffix
// off a model name, returning the base model and the effort level (empty
// if no suffix was present).
func splitReasoningEffort(model string) (base string, effort string) {
	for _, suffix := range []string{"-low", "-medium", "-high"} {
		if strings.HasSuffix(model, suffix) {
			return strings.TrimSuffix(model, suffix), strings.TrimPrefix(suffix, "-")
		}
	}
	return model, ""
}

func (p *OpenAIProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	if p.client == nil {
		return nil, fmt.Errorf("openai: API key not configured")
	}

	baseModel, effort := splitReasoningEffort(req.Model)
	reasoning := isReasoningModel(req.Model)

	messages, err := convertOpenAIMessages(req.Messages, req.System, reasoning)
	if err != nil {
		return nil, fmt.Errorf("openai: convert messages: %w", err)
	}

	tools, err := convertOpenAITools(req.Tools)
	if err != nil {
		return nil, fmt.Errorf("openai: convert tools: %w", err)
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    baseModel,
		Messages: messages,
		Stream:   true,
		Tools:    tools,
	}

	if reasoning {
		if req.MaxTokens > 0 {
			chatReq.MaxCompletionTokens = req.MaxTokens
		}
		if effort != "" {
			chatReq.ReasoningEffort = effort
		}
	} else if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai: create stream: %w", err)
	}

	chunks := make(chan *CompletionChunk)
	go streamOpenAI(ctx, stream, chunks)
	return chunks, nil
}

func streamOpenAI(ctx context.Context, stream *openai.ChatCompletionStream, chunks chan<- *CompletionChunk) {
	defer close(chunks)
	defer stream.Close()

	toolCalls := make(map[int]*models.ToolCall)
	var reasoningDetails strings.Builder

	flushToolCalls := func() {
		for _, tc := range toolCalls {
			if tc.Name != "" {
				chunks <- &CompletionChunk{ToolCall: tc}
			}
		}
		toolCalls = make(map[int]*models.ToolCall)
	}

	for {
		select {
		case <-ctx.Done():
			chunks <- &CompletionChunk{Error: ctx.Err(), Done: true}
			return
		default:
		}

		response, err := stream.Recv()
		if err != nil {
			// go-openai surfaces the explicit "[DONE]" sentinel as io.EOF
			// already, but some proxies forward it as a literal chunk; both
			// paths terminate the stream identically.
			if err == io.EOF || strings.Contains(err.Error(), "[DONE]") {
				flushToolCalls()
				chunks <- &CompletionChunk{Done: true}
				return
			}
			chunks <- &CompletionChunk{Error: err, Done: true}
			return
		}

		if len(response.Choices) == 0 {
			continue
		}
		choice := response.Choices[0]
		delta := choice.Delta

		if delta.Content != "" {
			chunks <- &CompletionChunk{Text: delta.Content}
		}
		if delta.ReasoningContent != "" {
			reasoningDetails.WriteString(delta.ReasoningContent)
			chunks <- &CompletionChunk{Thinking: delta.ReasoningContent}
		}

		for _, tc := range delta.ToolCalls {
			index := 0
			if tc.Index != nil {
				index = *tc.Index
			}
			if toolCalls[index] == nil {
				toolCalls[index] = &models.ToolCall{}
			}
			if tc.Function.Name != "" {
				toolCalls[index].Name = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				toolCalls[index].Arguments = append(toolCalls[index].Arguments, []byte(tc.Function.Arguments)...)
			}
		}

		if choice.FinishReason == openai.FinishReasonToolCalls {
			flushToolCalls()
		}
		if choice.FinishReason == openai.FinishReasonStop {
			flushToolCalls()
			chunks <- &CompletionChunk{Done: true}
			return
		}
	}
}

// convertOpenAIMessages flattens the section-3 model into OpenAI chat
// messages. Reasoning models use the "developer" role for the system
// prompt instead of "system"; every other role splits identically.
// Tool-response images are split into a trailing user message, since
// OpenAI's tool role cannot itself carry image parts.
func convertOpenAIMessages(msgs []*models.Message, system string, reasoning bool) ([]openai.ChatCompletionMessage, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)

	if system != "" {
		role := openai.ChatMessageRoleSystem
		if reasoning {
			role = "developer"
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: system})
	}

	var splitImages []openai.ChatMessagePart

	for _, msg := range msgs {
		role := string(msg.Role)
		var text strings.Builder
		var toolCalls []openai.ToolCall

		for _, part := range msg.Content {
			switch part.Type {
			case models.ContentText:
				text.WriteString(part.Text)
			case models.ContentToolRequest:
				if part.ToolRequest != nil && part.ToolRequest.Call.IsOk() {
					call := part.ToolRequest.Call.Value
					toolCalls = append(toolCalls, openai.ToolCall{
						ID:   part.ToolRequest.ID,
						Type: openai.ToolTypeFunction,
						Function: openai.FunctionCall{
							Name:      call.Name,
							Arguments: string(call.Arguments),
						},
					})
				}
			case models.ContentToolResponse:
				if part.ToolResponse == nil || !part.ToolResponse.Result.IsOk() {
					continue
				}
				result := part.ToolResponse.Result.Value
				var resultText strings.Builder
				for _, c := range result.Content {
					switch c.Type {
					case "text":
						resultText.WriteString(c.Text)
					case "image":
						splitImages = append(splitImages, openai.ChatMessagePart{
							Type: openai.ChatMessagePartTypeImageURL,
							ImageURL: &openai.ChatMessageImageURL{
								URL:    "data:" + c.MimeType + ";base64," + c.Data,
								Detail: openai.ImageURLDetailAuto,
							},
						})
					}
				}
				out = append(out, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    resultText.String(),
					ToolCallID: part.ToolResponse.ID,
				})
			case models.ContentImage:
				if part.Image != nil {
					splitImages = append(splitImages, openai.ChatMessagePart{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    "data:" + part.Image.MimeType + ";base64," + part.Image.DataBase64,
							Detail: openai.ImageURLDetailAuto,
						},
					})
				}
			}
		}

		if text.Len() == 0 && len(toolCalls) == 0 {
			continue
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:      role,
			Content:   text.String(),
			ToolCalls: toolCalls,
		})
	}

	if len(splitImages) > 0 {
		out = append(out, openai.ChatCompletionMessage{
			Role:         openai.ChatMessageRoleUser,
			MultiContent: splitImages,
		})
	}

	return out, nil
}

// convertOpenAITools converts ToolSpecs to OpenAI function definitions,
// rejecting duplicate tool names and defaulting malformed schemas to an
// empty object, recursively filling in missing "properties"/"required"
// keys one level deep so a tool author's partial schema still validates.
func convertOpenAITools(tools []ToolSpec) ([]openai.Tool, error) {
	seen := make(map[string]struct{}, len(tools))
	out := make([]openai.Tool, 0, len(tools))

	for _, tool := range tools {
		if _, dup := seen[tool.Name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", tool.Name)
		}
		seen[tool.Name] = struct{}{}

		var schema map[string]any
		if err := json.Unmarshal(tool.Schema, &schema); err != nil || schema == nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		if schema["type"] == nil {
			schema["type"] = "object"
		}
		if schema["properties"] == nil {
			schema["properties"] = map[string]any{}
		}
		if schema["required"] == nil {
			schema["required"] = []string{}
		}

		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  schema,
			},
		})
	}

	return out, nil
}
