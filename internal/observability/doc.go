// Package observability provides structured logging with sensitive-data
// redaction and context-based correlation IDs.
//
// # Logging
//
// Logging is built on Go's slog package with enhancements for:
//   - Automatic request/session/run correlation from context
//   - Sensitive data redaction (API keys, passwords, tokens)
//   - JSON output for production, text for development
//   - Configurable log levels
//
// Example usage:
//
//	logger := observability.NewLogger(observability.LogConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    AddSource: true,
//	})
//
//	ctx := observability.AddRequestID(ctx, requestID)
//	ctx = observability.AddSessionID(ctx, sessionID)
//
//	logger.Info(ctx, "processing message",
//	    "channel", "telegram",
//	    "message_length", len(content),
//	)
//
//	logger.Error(ctx, "llm request failed",
//	    "error", err,
//	    "provider", "anthropic",
//	    "api_key", apiKey, // automatically redacted
//	)
//
// # Correlation
//
// Context carries request, session, user, channel, run, tool-call, edge,
// agent, and message IDs so a single turn's log lines and tool-call
// dispatch can be reconstructed from logs alone:
//
//	ctx = observability.AddRunID(ctx, runID)
//	ctx = observability.AddToolCallID(ctx, toolCall.ID)
//
// # Security
//
// The logging component automatically redacts:
//   - API keys (Anthropic, OpenAI, generic)
//   - Passwords and secrets
//   - JWT tokens
//   - Bearer tokens
//   - Custom patterns via configuration
//
// Sensitive fields in maps are also redacted:
//   - password, passwd, pwd
//   - secret, api_key, apikey
//   - token, auth, authorization
//   - private_key, privatekey
package observability
