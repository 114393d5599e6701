// Package main provides the CLI entry point for agentcore.
//
// agentcore runs an LLM agent loop against a configured provider, with
// MCP-backed tool extensions and a platform scheduler for follow-up turns.
//
// # Basic Usage
//
// Start the agent loop against a session:
//
//	agentcore run --config agentcore.yaml --session default --prompt "..."
//
// Check configuration and connectivity:
//
//	agentcore status --config agentcore.yaml
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() so tests can exercise command wiring directly.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "agentcore",
		Short:        "agentcore - LLM agent runtime with MCP tool extensions",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildStatusCmd(),
		buildMcpCmd(),
		buildSchedulerCmd(),
	)

	return rootCmd
}
