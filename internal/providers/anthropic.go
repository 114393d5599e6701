package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/arborlabs/agentcore/internal/models"
)

// AnthropicProvider implements Provider against the Claude Messages API,
// grounded on internal/agent/providers/anthropic.go's content-block
// start/delta/stop accumulation, trimmed to the non-beta streaming path
// (computer-use tools are out of scope per the Non-goals).
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider builds an Anthropic provider from an API key.
func NewAnthropicProvider(apiKey string) *AnthropicProvider {
	return &AnthropicProvider{client: anthropic.NewClient(option.WithAPIKey(apiKey))}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) SupportsTools() bool { return true }

func (p *AnthropicProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "claude-opus-4-1-20250805", Name: "Claude Opus 4.1", ContextSize: 200000, SupportsVision: true},
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextSize: 200000, SupportsVision: true},
	}
}

func (p *AnthropicProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	messages, err := convertAnthropicMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("anthropic: convert messages: %w", err)
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = convertAnthropicTools(req.Tools)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	chunks := make(chan *CompletionChunk)
	go streamAnthropic(ctx, stream, chunks)
	return chunks, nil
}

func streamAnthropic(ctx context.Context, stream *ssestream.Stream[anthropic.MessageStreamEventUnion], chunks chan<- *CompletionChunk) {
	defer close(chunks)

	var currentTool *models.ToolCall
	var toolArgs strings.Builder
	var inputTokens, outputTokens int

	for stream.Next() {
		select {
		case <-ctx.Done():
			chunks <- &CompletionChunk{Error: ctx.Err(), Done: true}
			return
		default:
		}

		event := stream.Current()
		switch event.Type {
		case "message_start":
			inputTokens = int(event.AsMessageStart().Message.Usage.InputTokens)

		case "content_block_start":
			if block := event.AsContentBlockStart().ContentBlock; block.Type == "tool_use" {
				toolUse := block.AsToolUse()
				currentTool = &models.ToolCall{Name: toolUse.Name}
				toolArgs.Reset()
			}

		case "content_block_delta":
			delta := event.AsContentBlockDelta().Delta
			switch delta.Type {
			case "text_delta":
				if delta.Text != "" {
					chunks <- &CompletionChunk{Text: delta.Text}
				}
			case "thinking_delta":
				if delta.Thinking != "" {
					chunks <- &CompletionChunk{Thinking: delta.Thinking}
				}
			case "input_json_delta":
				toolArgs.WriteString(delta.PartialJSON)
			}

		case "content_block_stop":
			if currentTool != nil {
				currentTool.Arguments = json.RawMessage(toolArgs.String())
				chunks <- &CompletionChunk{ToolCall: currentTool}
				currentTool = nil
			}

		case "message_delta":
			if usage := event.AsMessageDelta().Usage; usage.OutputTokens > 0 {
				outputTokens = int(usage.OutputTokens)
			}

		case "message_stop":
			chunks <- &CompletionChunk{Done: true, InputTokens: inputTokens, OutputTokens: outputTokens}
			return

		case "error":
			chunks <- &CompletionChunk{Error: fmt.Errorf("anthropic: stream error"), Done: true}
			return
		}
	}

	if err := stream.Err(); err != nil {
		chunks <- &CompletionChunk{Error: err, Done: true}
	}
}

func convertAnthropicMessages(msgs []*models.Message) ([]anthropic.MessageParam, error) {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		var blocks []anthropic.ContentBlockParamUnion
		for _, part := range msg.Content {
			switch part.Type {
			case models.ContentText:
				blocks = append(blocks, anthropic.NewTextBlock(part.Text))
			case models.ContentToolRequest:
				if part.ToolRequest != nil && part.ToolRequest.Call.IsOk() {
					call := part.ToolRequest.Call.Value
					var input any
					_ = json.Unmarshal(call.Arguments, &input)
					blocks = append(blocks, anthropic.NewToolUseBlock(part.ToolRequest.ID, input, call.Name))
				}
			case models.ContentToolResponse:
				if part.ToolResponse != nil && part.ToolResponse.Result.IsOk() {
					result := part.ToolResponse.Result.Value
					var text strings.Builder
					for _, c := range result.Content {
						if c.Type == "text" {
							text.WriteString(c.Text)
						}
					}
					blocks = append(blocks, anthropic.NewToolResultBlock(part.ToolResponse.ID, text.String(), result.IsError))
				}
			}
		}
		if len(blocks) == 0 {
			continue
		}
		if msg.Role == models.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out, nil
}

func convertAnthropicTools(tools []ToolSpec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		var schema anthropic.ToolInputSchemaParam
		if err := json.Unmarshal(tool.Schema, &schema); err != nil {
			schema = anthropic.ToolInputSchemaParam{}
		}
		toolParam := anthropic.ToolUnionParamOfTool(schema, tool.Name)
		if toolParam.OfTool != nil {
			toolParam.OfTool.Description = anthropic.String(tool.Description)
		}
		out = append(out, toolParam)
	}
	return out
}
