package models

import "encoding/json"

// SessionType distinguishes a normal user-facing session from a hidden
// utility session or a sub-agent's recursive session.
type SessionType string

const (
	SessionUser     SessionType = "user"
	SessionHidden   SessionType = "hidden"
	SessionSubagent SessionType = "subagent"
)

// ModelConfig pins a session to a specific provider/model pair, overriding
// process defaults.
type ModelConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Session is the external session-store record described in section 6.4.
type Session struct {
	ID           string          `json:"id"`
	WorkingDir   string          `json:"working_dir"`
	Conversation Conversation    `json:"conversation"`
	TotalTokens  *int64          `json:"total_tokens,omitempty"`
	InputTokens  *int64          `json:"input_tokens,omitempty"`
	OutputTokens *int64          `json:"output_tokens,omitempty"`
	ProviderName *string         `json:"provider_name,omitempty"`
	ModelConfig  *ModelConfig    `json:"model_config,omitempty"`
	ExtensionData json.RawMessage `json:"extension_data,omitempty"`
	SessionType  SessionType     `json:"session_type"`
}

// IsSubagent reports whether this session is itself a sub-agent session,
// used by the sub-agent enablement gate in section 4.1.9.
func (s *Session) IsSubagent() bool {
	return s.SessionType == SessionSubagent
}
