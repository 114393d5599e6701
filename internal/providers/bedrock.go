package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/arborlabs/agentcore/internal/models"
)

// BedrockProvider implements Provider against Bedrock's ConverseStream API,
// grounded on internal/agent/providers/bedrock.go's event-union streaming
// shape, using the AWS SDK's own event union instead of hand-rolled SSE
// parsing, per §4.4.3's supplemented-adapter rationale.
type BedrockProvider struct {
	client *bedrockruntime.Client
}

// NewBedrockProvider builds a Bedrock provider from an already-configured
// client (region/credentials resolution is left to aws-sdk-go-v2's own
// config loading at startup, matching internal/providers/bedrock's
// existing discovery.go convention of taking a pre-built client).
func NewBedrockProvider(client *bedrockruntime.Client) *BedrockProvider {
	return &BedrockProvider{client: client}
}

func (p *BedrockProvider) Name() string { return "bedrock" }

func (p *BedrockProvider) SupportsTools() bool { return true }

func (p *BedrockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "anthropic.claude-sonnet-4-20250514-v1:0", Name: "Claude Sonnet 4 (Bedrock)", ContextSize: 200000, SupportsVision: true},
	}
}

func (p *BedrockProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	if p.client == nil {
		return nil, fmt.Errorf("bedrock: client not configured")
	}

	messages, err := convertBedrockMessages(req.Messages)
	if err != nil {
		return nil, fmt.Errorf("bedrock: convert messages: %w", err)
	}

	converseReq := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(req.Model),
		Messages: messages,
	}
	if req.System != "" {
		converseReq.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.System},
		}
	}
	if req.MaxTokens > 0 {
		maxTokens := int32(req.MaxTokens)
		converseReq.InferenceConfig = &types.InferenceConfiguration{MaxTokens: &maxTokens}
	}
	if len(req.Tools) > 0 {
		converseReq.ToolConfig = convertBedrockTools(req.Tools)
	}

	stream, err := p.client.ConverseStream(ctx, converseReq)
	if err != nil {
		return nil, fmt.Errorf("bedrock: converse stream: %w", err)
	}

	chunks := make(chan *CompletionChunk)
	go streamBedrock(ctx, stream, chunks)
	return chunks, nil
}

func streamBedrock(ctx context.Context, stream *bedrockruntime.ConverseStreamOutput, chunks chan<- *CompletionChunk) {
	defer close(chunks)

	eventStream := stream.GetStream()
	defer eventStream.Close()

	var currentTool *models.ToolCall
	var toolArgs strings.Builder

	events := eventStream.Events()
	for {
		select {
		case <-ctx.Done():
			chunks <- &CompletionChunk{Error: ctx.Err(), Done: true}
			return
		case event, ok := <-events:
			if !ok {
				if currentTool != nil {
					currentTool.Arguments = json.RawMessage(toolArgs.String())
					chunks <- &CompletionChunk{ToolCall: currentTool}
				}
				if err := eventStream.Err(); err != nil {
					chunks <- &CompletionChunk{Error: err, Done: true}
				} else {
					chunks <- &CompletionChunk{Done: true}
				}
				return
			}

			switch ev := event.(type) {
			case *types.ConverseStreamOutputMemberContentBlockStart:
				if toolUse, ok := ev.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
					currentTool = &models.ToolCall{Name: aws.ToString(toolUse.Value.Name)}
					toolArgs.Reset()
				}

			case *types.ConverseStreamOutputMemberContentBlockDelta:
				switch delta := ev.Value.Delta.(type) {
				case *types.ContentBlockDeltaMemberText:
					if delta.Value != "" {
						chunks <- &CompletionChunk{Text: delta.Value}
					}
				case *types.ContentBlockDeltaMemberToolUse:
					if delta.Value.Input != nil {
						toolArgs.WriteString(*delta.Value.Input)
					}
				}

			case *types.ConverseStreamOutputMemberContentBlockStop:
				if currentTool != nil {
					currentTool.Arguments = json.RawMessage(toolArgs.String())
					chunks <- &CompletionChunk{ToolCall: currentTool}
					currentTool = nil
					toolArgs.Reset()
				}

			case *types.ConverseStreamOutputMemberMessageStop:
				chunks <- &CompletionChunk{Done: true}
				return
			}
		}
	}
}

func convertBedrockMessages(msgs []*models.Message) ([]types.Message, error) {
	out := make([]types.Message, 0, len(msgs))
	for _, msg := range msgs {
		var content []types.ContentBlock
		for _, part := range msg.Content {
			switch part.Type {
			case models.ContentText:
				content = append(content, &types.ContentBlockMemberText{Value: part.Text})
			case models.ContentToolRequest:
				if part.ToolRequest != nil && part.ToolRequest.Call.IsOk() {
					call := part.ToolRequest.Call.Value
					content = append(content, &types.ContentBlockMemberToolUse{
						Value: types.ToolUseBlock{
							ToolUseId: aws.String(part.ToolRequest.ID),
							Name:      aws.String(call.Name),
							Input:     document.NewLazyDocument(call.Arguments),
						},
					})
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
					content = append(content, &types.ContentBlockMemberToolResult{
						Value: types.ToolResultBlock{
							ToolUseId: aws.String(part.ToolResponse.ID),
							Content: []types.ToolResultContentBlock{
								&types.ToolResultContentBlockMemberText{Value: text.String()},
							},
							Status: bedrockResultStatus(result.IsError),
						},
					})
				}
			}
		}
		if len(content) == 0 {
			continue
		}
		role := types.ConversationRoleUser
		if msg.Role == models.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		out = append(out, types.Message{Role: role, Content: content})
	}
	return out, nil
}

func bedrockResultStatus(isError bool) types.ToolResultStatus {
	if isError {
		return types.ToolResultStatusError
	}
	return types.ToolResultStatusSuccess
}

func convertBedrockTools(tools []ToolSpec) *types.ToolConfiguration {
	bedrockTools := make([]types.Tool, len(tools))
	for i, tool := range tools {
		var schema any
		if err := json.Unmarshal(tool.Schema, &schema); err != nil {
			schema = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		bedrockTools[i] = &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(tool.Name),
				Description: aws.String(tool.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: document.NewLazyDocument(schema)},
			},
		}
	}
	return &types.ToolConfiguration{Tools: bedrockTools}
}
