package models

import "github.com/google/uuid"

// Role is the author of a Message. Only user and assistant messages ever
// reach the provider; tool/system framing lives inside ContentPart instead.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Visibility controls whether a message is shown to the human user, sent
// to the model, or both. Defaults to both true.
type Visibility struct {
	ToUser  bool `json:"to_user"`
	ToAgent bool `json:"to_agent"`
}

// DefaultVisibility returns the default (visible to both).
func DefaultVisibility() Visibility {
	return Visibility{ToUser: true, ToAgent: true}
}

// Message is a single turn entry: a role, a timestamp, and an ordered
// sequence of content parts. ID is assigned when the message first enters
// a stream; later streaming chunks re-use the same ID so UI clients can
// aggregate partial updates into one logical message.
type Message struct {
	ID               string         `json:"id,omitempty"`
	Role             Role           `json:"role"`
	Created          int64          `json:"created"`
	Content          []ContentPart  `json:"content"`
	Visibility       Visibility     `json:"visibility"`
	ProviderMetadata map[string]any `json:"provider_metadata,omitempty"`
}

// NewMessage builds a Message with a fresh ID and default visibility.
func NewMessage(role Role, created int64, content ...ContentPart) *Message {
	return &Message{
		ID:         uuid.NewString(),
		Role:       role,
		Created:    created,
		Content:    content,
		Visibility: DefaultVisibility(),
	}
}

// ToolCalls returns every ToolRequestContent on this message that
// successfully parsed into a ToolCall.
func (m *Message) ToolCalls() []ToolCall {
	var calls []ToolCall
	for _, part := range m.Content {
		if part.Type == ContentToolRequest && part.ToolRequest != nil && part.ToolRequest.Call.IsOk() {
			calls = append(calls, part.ToolRequest.Call.Value)
		}
	}
	return calls
}

// HasToolRequests reports whether this message carries any tool request
// content (successful or failed-to-parse).
func (m *Message) HasToolRequests() bool {
	for _, part := range m.Content {
		if part.Type == ContentToolRequest {
			return true
		}
	}
	return false
}

// Text concatenates every Text content part's text, ignoring other kinds.
func (m *Message) Text() string {
	var out string
	for _, part := range m.Content {
		if part.Type == ContentText {
			out += part.Text
		}
	}
	return out
}
