package models

import "encoding/json"

// ToolCall is a (prefixed) tool invocation request. Name has the form
// "<extension>__<tool>".
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Priority is a [0,1] importance hint attached to tool-result content,
// used by UI hosts to decide what to surface when space is limited.
type Priority float64

// Content is one piece of a ToolResult: text, image, or embedded resource,
// each with an audience and a priority.
type Content struct {
	Type      string      `json:"type"` // text | image | resource
	Text      string      `json:"text,omitempty"`
	Data      string      `json:"data,omitempty"`
	MimeType  string      `json:"mime_type,omitempty"`
	Audience  AudienceSet `json:"audience,omitempty"`
	Priority  Priority    `json:"priority,omitempty"`
}

// ForAudience filters content to only the parts addressed to aud. Content
// with no audience set defaults to both.
func ForAudience(contents []Content, aud Audience) []Content {
	var out []Content
	for _, c := range contents {
		set := c.Audience
		if set == nil {
			set = DefaultAudience()
		}
		if set.Has(aud) {
			out = append(out, c)
		}
	}
	return out
}

// ToolResult is the outcome of executing a ToolCall.
type ToolResult struct {
	Content           []Content       `json:"content"`
	IsError           bool            `json:"is_error,omitempty"`
	StructuredContent json.RawMessage `json:"structured_content,omitempty"`
	Meta              map[string]any  `json:"meta,omitempty"`
}

// TextResult builds a single-text-part ToolResult.
func TextResult(text string) ToolResult {
	return ToolResult{Content: []Content{{Type: "text", Text: text}}}
}

// ErrorResult builds a single-text-part, is_error ToolResult.
func ErrorResult(text string) ToolResult {
	return ToolResult{Content: []Content{{Type: "text", Text: text}}, IsError: true}
}
