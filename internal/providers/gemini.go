package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arborlabs/agentcore/internal/models"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider against Gemini's generateContent API,
// grounded on internal/agent/toolconv/gemini.go's recursive schema
// conversion, extended with the §4.4.2 behaviors the teacher's converter
// lacks: a closed per-level key whitelist, type-array collapsing, and the
// thought-signature echo contract.
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider builds a Gemini provider from an already-constructed
// client (the genai SDK's client construction is itself context-bound, so
// callers build it once at startup and hand it in here).
func NewGeminiProvider(client *genai.Client) *GeminiProvider {
	return &GeminiProvider{client: client}
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) SupportsTools() bool { return true }

func (p *GeminiProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", ContextSize: 1048576, SupportsVision: true},
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", ContextSize: 1048576, SupportsVision: true},
	}
}

func (p *GeminiProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	if p.client == nil {
		return nil, fmt.Errorf("gemini: client not configured")
	}

	contents, lastAssistantIndex := toGeminiContents(req.Messages)
	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if tools := toGeminiTools(req.Tools); tools != nil {
		config.Tools = tools
	}

	stream := p.client.Models.GenerateContentStream(ctx, req.Model, contents, config)

	chunks := make(chan *CompletionChunk)
	go streamGemini(ctx, stream, lastAssistantIndex, chunks)
	return chunks, nil
}

func streamGemini(ctx context.Context, stream func(func(*genai.GenerateContentResponse, error) bool), lastAssistantTurn bool, chunks chan<- *CompletionChunk) {
	defer close(chunks)

	var sawFunctionCallThisTurn bool
	var pendingThoughts []string

	stream(func(resp *genai.GenerateContentResponse, err error) bool {
		select {
		case <-ctx.Done():
			chunks <- &CompletionChunk{Error: ctx.Err(), Done: true}
			return false
		default:
		}
		if err != nil {
			chunks <- &CompletionChunk{Error: err, Done: true}
			return false
		}
		if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return true
		}

		for _, part := range resp.Candidates[0].Content.Parts {
			switch {
			case part.FunctionCall != nil:
				sawFunctionCallThisTurn = true
				args, _ := json.Marshal(part.FunctionCall.Args)
				chunks <- &CompletionChunk{ToolCall: &models.ToolCall{Name: part.FunctionCall.Name, Arguments: args}}
			case part.Thought:
				// Buffered, not emitted immediately: only echoed back as
				// Thinking if a function call co-occurs in this same turn,
				// per the thought-signature echo contract, and only for
				// the last assistant turn.
				if lastAssistantTurn {
					pendingThoughts = append(pendingThoughts, part.Text)
				}
			case part.Text != "":
				chunks <- &CompletionChunk{Text: part.Text}
			}
		}
		return true
	})

	if sawFunctionCallThisTurn && lastAssistantTurn {
		for _, thought := range pendingThoughts {
			chunks <- &CompletionChunk{Thinking: thought}
		}
	}

	chunks <- &CompletionChunk{Done: true}
}

// toGeminiContents flattens the section-3 model into Gemini Contents,
// reporting whether the final message is an assistant turn (the only turn
// whose thought signatures are eligible for the echo contract).
func toGeminiContents(msgs []*models.Message) ([]*genai.Content, bool) {
	out := make([]*genai.Content, 0, len(msgs))
	lastIsAssistant := false

	for _, msg := range msgs {
		role := genai.RoleUser
		if msg.Role == models.RoleAssistant {
			role = genai.RoleModel
			lastIsAssistant = true
		} else {
			lastIsAssistant = false
		}

		var parts []*genai.Part
		for _, part := range msg.Content {
			switch part.Type {
			case models.ContentText:
				parts = append(parts, genai.NewPartFromText(part.Text))
			case models.ContentToolRequest:
				if part.ToolRequest != nil && part.ToolRequest.Call.IsOk() {
					var args map[string]any
					_ = json.Unmarshal(part.ToolRequest.Call.Value.Arguments, &args)
					parts = append(parts, genai.NewPartFromFunctionCall(part.ToolRequest.Call.Value.Name, args))
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
					parts = append(parts, genai.NewPartFromFunctionResponse("", map[string]any{"result": text.String()}))
				}
			}
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	return out, lastIsAssistant
}

func toGeminiTools(tools []ToolSpec) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	declarations := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, tool := range tools {
		var schemaMap map[string]any
		if err := json.Unmarshal(tool.Schema, &schemaMap); err != nil {
			continue
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  ToGeminiSchema(schemaMap, "root"),
		})
	}
	if len(declarations) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: declarations}}
}

// geminiKeyWhitelist is the closed per-level key whitelist: Gemini's
// Schema type rejects JSON Schema keys it doesn't recognize, and different
// levels of a schema permit different keys (a root/property object
// permits "properties"/"required"; an array's "items" does not).
var geminiKeyWhitelist = map[string]map[string]struct{}{
	"root": {
		"type": {}, "description": {}, "enum": {}, "properties": {}, "required": {}, "items": {},
	},
	"properties": {
		"type": {}, "description": {}, "enum": {}, "properties": {}, "required": {}, "items": {},
	},
	"items": {
		"type": {}, "description": {}, "enum": {}, "properties": {}, "required": {},
	},
}

// ToGeminiSchema converts a JSON Schema map to Gemini's Schema type,
// filtering to the whitelist for level, and collapsing a nullable type
// array (["string","null"]) down to its non-null member, since Gemini's
// Type field is a single enum rather than a union.
func ToGeminiSchema(schemaMap map[string]any, level string) *genai.Schema {
	if schemaMap == nil {
		return nil
	}
	allowed := geminiKeyWhitelist[level]
	if allowed == nil {
		allowed = geminiKeyWhitelist["root"]
	}

	schema := &genai.Schema{}

	if _, ok := allowed["type"]; ok {
		schema.Type = genai.Type(strings.ToUpper(resolveSchemaType(schemaMap["type"])))
	}
	if _, ok := allowed["description"]; ok {
		if desc, ok := schemaMap["description"].(string); ok {
			schema.Description = desc
		}
	}
	if _, ok := allowed["enum"]; ok {
		if enum, ok := schemaMap["enum"].([]any); ok {
			for _, e := range enum {
				if s, ok := e.(string); ok {
					schema.Enum = append(schema.Enum, s)
				}
			}
		}
	}
	if _, ok := allowed["properties"]; ok {
		if props, ok := schemaMap["properties"].(map[string]any); ok {
			schema.Properties = make(map[string]*genai.Schema, len(props))
			for name, prop := range props {
				if propMap, ok := prop.(map[string]any); ok {
					schema.Properties[name] = ToGeminiSchema(propMap, "properties")
				}
			}
		}
	}
	if _, ok := allowed["required"]; ok {
		if required, ok := schemaMap["required"].([]any); ok {
			for _, r := range required {
				if s, ok := r.(string); ok {
					schema.Required = append(schema.Required, s)
				}
			}
		}
	}
	if _, ok := allowed["items"]; ok {
		if items, ok := schemaMap["items"].(map[string]any); ok {
			schema.Items = ToGeminiSchema(items, "items")
		}
	}

	return schema
}

// resolveSchemaType collapses a JSON Schema type, which may be a bare
// string or a ["string","null"]-style nullable union, to a single type
// name: the first non-"null" member, or "string" if nothing else matches.
func resolveSchemaType(raw any) string {
	switch t := raw.(type) {
	case string:
		return t
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s != "null" {
				return s
			}
		}
	}
	return "string"
}
