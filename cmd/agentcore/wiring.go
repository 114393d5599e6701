package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arborlabs/agentcore/internal/agent"
	"github.com/arborlabs/agentcore/internal/agent/approval"
	"github.com/arborlabs/agentcore/internal/agent/providers"
	"github.com/arborlabs/agentcore/internal/config"
	"github.com/arborlabs/agentcore/internal/mcp"
	"github.com/arborlabs/agentcore/internal/scheduler"
	"github.com/arborlabs/agentcore/internal/sessions"
	"github.com/arborlabs/agentcore/pkg/models"
)

const defaultConfigPath = "agentcore.yaml"

func resolveConfigPath(path string) string {
	if strings.TrimSpace(path) == "" {
		return defaultConfigPath
	}
	return path
}

// loadProvider builds the LLM backend named by the "provider" param (e.g.
// "openai", "anthropic"), reading its API key from the store's secret
// section. Only the provider the configured param store actually names is
// constructed, so a misconfigured/missing key fails fast instead of
// constructing every backend eagerly.
func loadProvider(store *config.ParamStore) (agent.LLMProvider, error) {
	name, _ := store.GetParam("provider")
	providerName, _ := name.(string)
	providerName = strings.ToLower(strings.TrimSpace(providerName))
	if providerName == "" {
		providerName = "openai"
	}

	key, _ := store.GetSecret(providerName + "_api_key")
	apiKey, _ := key.(string)
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("missing %s_api_key secret", providerName)
	}

	switch providerName {
	case "openai":
		return providers.NewOpenAIProvider(apiKey), nil
	case "anthropic":
		return providers.NewAnthropicProvider(providers.AnthropicConfig{APIKey: apiKey})
	default:
		return nil, fmt.Errorf("unsupported provider %q", providerName)
	}
}

func loadMCPManager(store *config.ParamStore, logger *slog.Logger) *mcp.Manager {
	serversParam, _ := store.GetParam("mcp_servers")
	cfg := &mcp.Config{Enabled: serversParam != nil}
	return mcp.NewManager(cfg, logger)
}

// buildRuntime wires a provider, an in-memory session store, MCP tools, and
// the platform scheduler tool into one agent.Runtime, following SPEC_FULL's
// package-layout table (cmd/agentcore wires config -> providers -> mcp ->
// agent). The runtime is built against internal/agent/providers (which
// already implements agent.LLMProvider) rather than internal/providers,
// since internal/agent's turn loop has not yet been migrated onto
// internal/models — see DESIGN.md's internal/providers entry for that
// interim seam.
func buildRuntime(store *config.ParamStore, mgr *mcp.Manager, sessionStore sessions.Store, sched *scheduler.Scheduler, sessionID string, logger *slog.Logger) (*agent.Runtime, error) {
	provider, err := loadProvider(store)
	if err != nil {
		return nil, fmt.Errorf("load provider: %w", err)
	}

	runtime := agent.NewRuntime(provider, sessionStore)

	permissions := approval.NewPermissionStore(approval.AskBefore)
	runtime.SetApprovalPipeline(approval.NewDefault(permissions, 3))

	for _, name := range mcp.RegisterTools(runtime, mgr) {
		logger.Info("registered mcp tool", "tool", name)
	}

	if sched != nil {
		runtime.RegisterTool(scheduler.NewTool(sched, sessionID))
	}

	return runtime, nil
}

// replayPrompt drains a Process() run to completion and returns the
// concatenated assistant text, used both by the "run" command and by the
// scheduler's AgentRunner callback (§4.1.3's platform scheduler tool fires
// by replaying a prompt into the owning session).
func replayPrompt(ctx context.Context, runtime *agent.Runtime, store sessions.Store, sessionID, prompt string) (string, error) {
	session, err := store.GetOrCreate(ctx, sessionID, "agentcore", models.ChannelType("cli"), sessionID)
	if err != nil {
		return "", fmt.Errorf("get or create session: %w", err)
	}

	msg := &models.Message{
		ID:        sessionID + "-" + time.Now().UTC().Format(time.RFC3339Nano),
		SessionID: session.ID,
		Role:      models.RoleUser,
		Content:   prompt,
		CreatedAt: time.Now(),
	}

	chunks, err := runtime.Process(ctx, session, msg)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return out.String(), chunk.Error
		}
		out.WriteString(chunk.Text)
	}
	return out.String(), nil
}

// wireScheduler points a Scheduler's AgentRunner at the given runtime and
// session store, grounded on the teacher's WithAgentRunner option
// (internal/cron). Called after buildRuntime so the scheduler tool can be
// registered on the runtime before the runner that services it exists.
func wireScheduler(sched *scheduler.Scheduler, runtime *agent.Runtime, store sessions.Store) {
	sched.SetAgentRunner(scheduler.AgentRunnerFunc(func(ctx context.Context, job *scheduler.Job) error {
		_, err := replayPrompt(ctx, runtime, store, job.SessionID, job.Prompt)
		return err
	}))
}
