// Package providers implements §4.4's provider message format adapters: one
// Provider interface, many concrete implementations, each translating
// between the section-3 data model and a specific vendor's wire format.
package providers

import (
	"context"

	"github.com/arborlabs/agentcore/internal/models"
)

// CompletionRequest is a single turn sent to a Provider.
type CompletionRequest struct {
	Model     string
	System    string
	Messages  []*models.Message
	Tools     []ToolSpec
	MaxTokens int
}

// ToolSpec is a tool definition advertised to the provider, independent of
// any concrete tool implementation.
type ToolSpec struct {
	Name        string
	Description string
	Schema      []byte // JSON Schema
}

// CompletionChunk is one piece of a streamed completion. Exactly one of
// Text/ToolCall/Thinking/Done/Error is meaningful per chunk, mirroring the
// teacher's CompletionChunk shape from internal/agent/provider_types.go.
type CompletionChunk struct {
	Text          string
	Thinking      string
	ThinkingStart bool
	ThinkingEnd   bool
	ToolCall      *models.ToolCall
	Done          bool
	InputTokens   int
	OutputTokens  int
	Error         error
}

// ModelInfo describes one model a Provider exposes.
type ModelInfo struct {
	ID             string
	Name           string
	ContextSize    int
	SupportsVision bool
}

// Provider is the swappable box in §2's system diagram: a single interface
// behind which every vendor integration (OpenAI, Gemini, Anthropic,
// Bedrock) lives.
type Provider interface {
	// Name identifies the provider ("openai", "gemini", "anthropic", "bedrock").
	Name() string

	// Models lists the models this provider exposes.
	Models() []ModelInfo

	// SupportsTools reports whether this provider can be given ToolSpecs.
	SupportsTools() bool

	// Complete streams a completion for req. The returned channel is closed
	// after a chunk with Done=true or Error set.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)
}
