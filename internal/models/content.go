// Package models implements the data model of section 3: messages built
// from a tagged sequence of content parts, tool calls/results, sessions,
// and extension configuration.
package models

import (
	"encoding/json"
	"fmt"

	"github.com/arborlabs/agentcore/pkg/jsonrpc"
)

// Audience controls whether a piece of tool-result content is routed to
// the UI, to the model on the next turn, or both.
type Audience string

const (
	AudienceUser      Audience = "user"
	AudienceAssistant Audience = "assistant"
)

// AudienceSet is a small set of Audience values.
type AudienceSet map[Audience]struct{}

// NewAudienceSet builds an AudienceSet from the given values.
func NewAudienceSet(values ...Audience) AudienceSet {
	set := make(AudienceSet, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the given audience.
func (s AudienceSet) Has(a Audience) bool {
	_, ok := s[a]
	return ok
}

// DefaultAudience is the audience used when a Content carries none: both
// user and assistant.
func DefaultAudience() AudienceSet {
	return NewAudienceSet(AudienceUser, AudienceAssistant)
}

// ErrorData mirrors MCP's {code, message, data} shape so errors round-trip
// through JSON-RPC unchanged whether they originate on the wire or inside
// the agent loop.
type ErrorData struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *ErrorData) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// FromRPCError converts a jsonrpc.Error into an ErrorData.
func FromRPCError(err *jsonrpc.Error) *ErrorData {
	if err == nil {
		return nil
	}
	return &ErrorData{Code: err.Code, Message: err.Message, Data: err.Data}
}

// NewErrorData constructs an ErrorData with the given MCP error code.
func NewErrorData(code int, message string) *ErrorData {
	return &ErrorData{Code: code, Message: message}
}

// Outcome holds either a successful value or an ErrorData, mirroring the
// Result<T, ErrorData> shape used by ToolRequest/ToolResponse content.
type Outcome[T any] struct {
	Value T          `json:"value,omitempty"`
	Err   *ErrorData `json:"error,omitempty"`
}

// Ok builds a successful Outcome.
func Ok[T any](v T) Outcome[T] { return Outcome[T]{Value: v} }

// Fail builds a failed Outcome.
func Fail[T any](err *ErrorData) Outcome[T] { return Outcome[T]{Err: err} }

// IsOk reports whether the outcome succeeded.
func (o Outcome[T]) IsOk() bool { return o.Err == nil }

// ContentType discriminates the ContentPart tagged union.
type ContentType string

const (
	ContentText              ContentType = "text"
	ContentThinking          ContentType = "thinking"
	ContentImage             ContentType = "image"
	ContentToolRequest        ContentType = "tool_request"
	ContentToolResponse       ContentType = "tool_response"
	ContentActionRequired     ContentType = "action_required"
	ContentFrontendToolRequest ContentType = "frontend_tool_request"
	ContentSystemNotification ContentType = "system_notification"
)

// ActionKind discriminates the ActionRequired payload.
type ActionKind string

const (
	ActionElicitation         ActionKind = "elicitation"
	ActionToolConfirmation    ActionKind = "tool_confirmation"
	ActionElicitationResponse ActionKind = "elicitation_response"
)

// NotificationKind discriminates SystemNotification.
type NotificationKind string

const (
	NotificationInline   NotificationKind = "inline"
	NotificationThinking NotificationKind = "thinking"
)

// ContentPart is one element of a Message's content sequence. Exactly one
// of the typed fields is populated, selected by Type; this mirrors the
// discriminated-union convention the teacher uses for wire structs
// (a Type string plus pointer-typed optional payload fields).
type ContentPart struct {
	Type ContentType `json:"type"`

	Text                string                `json:"text,omitempty"`
	Thinking            *ThinkingContent      `json:"thinking,omitempty"`
	Image               *ImageContent         `json:"image,omitempty"`
	ToolRequest         *ToolRequestContent   `json:"tool_request,omitempty"`
	ToolResponse        *ToolResponseContent  `json:"tool_response,omitempty"`
	ActionRequired      *ActionRequiredContent `json:"action_required,omitempty"`
	FrontendToolRequest *FrontendToolRequest  `json:"frontend_tool_request,omitempty"`
	SystemNotification  *SystemNotification   `json:"system_notification,omitempty"`
}

// ThinkingContent carries opaque reasoning echoed back to the provider on
// later turns (e.g. Gemini's thoughtSignature).
type ThinkingContent struct {
	Text      string `json:"text"`
	Signature string `json:"signature,omitempty"`
}

// ImageContent is an inline base64-encoded image.
type ImageContent struct {
	DataBase64 string `json:"data_base64"`
	MimeType   string `json:"mime_type"`
}

// ToolRequestContent is an assistant-emitted tool call, or a parse failure
// in place of one.
type ToolRequestContent struct {
	ID       string           `json:"id"`
	Call     Outcome[ToolCall] `json:"call"`
	Metadata map[string]any   `json:"metadata,omitempty"`
	ToolMeta map[string]any   `json:"tool_meta,omitempty"`
}

// ToolResponseContent is the eventual result of a ToolRequestContent.
type ToolResponseContent struct {
	ID       string             `json:"id"`
	Result   Outcome[ToolResult] `json:"result"`
	Metadata map[string]any     `json:"metadata,omitempty"`
}

// Elicitation is a structured request for user data.
type Elicitation struct {
	Message string          `json:"message"`
	Schema  json.RawMessage `json:"schema"`
}

// ToolConfirmation asks the user to approve/deny a pending tool call.
type ToolConfirmation struct {
	Tool   string          `json:"tool"`
	Args   json.RawMessage `json:"args,omitempty"`
	Prompt string          `json:"prompt,omitempty"`
}

// ElicitationResponse carries the user's structured reply to an Elicitation.
type ElicitationResponse struct {
	ID       string          `json:"id"`
	UserData json.RawMessage `json:"user_data"`
}

// ActionRequiredContent is a blocking, user-only content part: either an
// elicitation, a tool confirmation, or a reply to an elicitation.
type ActionRequiredContent struct {
	ID                   string                `json:"id"`
	Kind                 ActionKind            `json:"kind"`
	Elicitation          *Elicitation          `json:"elicitation,omitempty"`
	ToolConfirmation     *ToolConfirmation     `json:"tool_confirmation,omitempty"`
	ElicitationResponse  *ElicitationResponse  `json:"elicitation_response,omitempty"`
}

// FrontendToolRequest is a tool request the core does not execute; the
// caller must, and return a result via the external tool-result channel.
type FrontendToolRequest struct {
	ID   string   `json:"id"`
	Call ToolCall `json:"call"`
}

// SystemNotification is an out-of-band UX hint (not part of the model
// conversation).
type SystemNotification struct {
	Kind NotificationKind `json:"kind"`
	Text string           `json:"text"`
}

// Text builds a Text content part.
func Text(s string) ContentPart { return ContentPart{Type: ContentText, Text: s} }

// Thinking builds a Thinking content part.
func Thinking(text, signature string) ContentPart {
	return ContentPart{Type: ContentThinking, Thinking: &ThinkingContent{Text: text, Signature: signature}}
}

// Image builds an Image content part.
func Image(dataBase64, mimeType string) ContentPart {
	return ContentPart{Type: ContentImage, Image: &ImageContent{DataBase64: dataBase64, MimeType: mimeType}}
}

// NewToolRequest builds a ToolRequest content part wrapping a successful call.
func NewToolRequest(id string, call ToolCall) ContentPart {
	return ContentPart{Type: ContentToolRequest, ToolRequest: &ToolRequestContent{ID: id, Call: Ok(call)}}
}

// NewToolRequestError builds a ToolRequest content part wrapping a parse failure.
func NewToolRequestError(id string, err *ErrorData) ContentPart {
	return ContentPart{Type: ContentToolRequest, ToolRequest: &ToolRequestContent{ID: id, Call: Fail[ToolCall](err)}}
}

// NewToolResponse builds a ToolResponse content part wrapping a result.
func NewToolResponse(id string, result ToolResult) ContentPart {
	return ContentPart{Type: ContentToolResponse, ToolResponse: &ToolResponseContent{ID: id, Result: Ok(result)}}
}

// NewToolResponseError builds a ToolResponse content part wrapping a failure.
func NewToolResponseError(id string, err *ErrorData) ContentPart {
	return ContentPart{Type: ContentToolResponse, ToolResponse: &ToolResponseContent{ID: id, Result: Fail[ToolResult](err)}}
}

// SystemNotif builds a SystemNotification content part.
func SystemNotif(kind NotificationKind, text string) ContentPart {
	return ContentPart{Type: ContentSystemNotification, SystemNotification: &SystemNotification{Kind: kind, Text: text}}
}
