package models

import "time"

// ExtensionTransport discriminates the ExtensionConfig sum type.
type ExtensionTransport string

const (
	ExtensionStdio         ExtensionTransport = "stdio"
	ExtensionStreamableHTTP ExtensionTransport = "streamable_http"
	ExtensionBuiltin       ExtensionTransport = "builtin"
	ExtensionPlatform      ExtensionTransport = "platform"
	ExtensionFrontend      ExtensionTransport = "frontend"
	ExtensionInlinePython  ExtensionTransport = "inline_python"
)

// ExtensionConfig is the tagged union of ways a tool extension can be
// configured, per section 3. Exactly one of the transport-specific fields
// is populated, selected by Transport.
type ExtensionConfig struct {
	Name      string             `yaml:"name" json:"name"`
	Transport ExtensionTransport `yaml:"transport" json:"transport"`

	Stdio         *StdioConfig         `yaml:"stdio,omitempty" json:"stdio,omitempty"`
	StreamableHTTP *StreamableHTTPConfig `yaml:"streamable_http,omitempty" json:"streamable_http,omitempty"`
	Builtin       *BuiltinConfig       `yaml:"builtin,omitempty" json:"builtin,omitempty"`
	Platform      *PlatformConfig      `yaml:"platform,omitempty" json:"platform,omitempty"`
	Frontend      *FrontendConfig      `yaml:"frontend,omitempty" json:"frontend,omitempty"`
	InlinePython  *InlinePythonConfig  `yaml:"inline_python,omitempty" json:"inline_python,omitempty"`

	// AvailableTools is a strict allow-list; empty means all tools of this
	// extension are exposed.
	AvailableTools []string `yaml:"available_tools,omitempty" json:"available_tools,omitempty"`
}

// StdioConfig spawns a child process speaking MCP over stdin/stdout.
type StdioConfig struct {
	Cmd     string            `yaml:"cmd" json:"cmd"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Envs    map[string]string `yaml:"envs,omitempty" json:"envs,omitempty"`
	EnvKeys []string          `yaml:"env_keys,omitempty" json:"env_keys,omitempty"`
	Timeout *time.Duration    `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// StreamableHTTPConfig connects to an HTTP MCP endpoint.
type StreamableHTTPConfig struct {
	URI     string            `yaml:"uri" json:"uri"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Envs    map[string]string `yaml:"envs,omitempty" json:"envs,omitempty"`
	EnvKeys []string          `yaml:"env_keys,omitempty" json:"env_keys,omitempty"`
	Timeout *time.Duration    `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// BuiltinConfig names an in-process MCP server reachable via an in-memory
// duplex byte pipe.
type BuiltinConfig struct {
	Name    string         `yaml:"name" json:"name"`
	Timeout *time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// PlatformConfig names an in-process extension constructed through a
// factory that receives a weak reference back to the owning
// ExtensionManager.
type PlatformConfig struct {
	Name string `yaml:"name" json:"name"`
}

// FrontendConfig declares tools the caller executes; no process is
// spawned, and calls to these tools return a synthetic error from the
// extension manager's dispatch so the agent loop routes them to the
// external tool-result channel instead.
type FrontendConfig struct {
	Tools        []string `yaml:"tools" json:"tools"`
	Instructions *string  `yaml:"instructions,omitempty" json:"instructions,omitempty"`
}

// InlinePythonConfig writes Code to a temp file and runs it under uvx.
type InlinePythonConfig struct {
	Name    string         `yaml:"name" json:"name"`
	Code    string         `yaml:"code" json:"code"`
	Deps    []string       `yaml:"deps,omitempty" json:"deps,omitempty"`
	Timeout *time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// DefaultTimeout is used as the connect/initialize budget for an
// extension's MCP client when none is configured.
const DefaultTimeout = 300 * time.Second
