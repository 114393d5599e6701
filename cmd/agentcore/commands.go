package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/arborlabs/agentcore/internal/config"
	"github.com/arborlabs/agentcore/internal/scheduler"
	"github.com/arborlabs/agentcore/internal/sessions"
)

// buildRunCmd drives a single agent turn: load config, wire a runtime, and
// replay the prompt into the named session, printing the assistant's reply.
func buildRunCmd() *cobra.Command {
	var (
		configPath string
		sessionID  string
		prompt     string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a single agent turn against a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt == "" {
				return fmt.Errorf("--prompt is required")
			}

			logger := slog.Default()
			store, err := config.NewParamStore(resolveConfigPath(configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			mgr := loadMCPManager(store, logger)
			ctx := cmd.Context()
			if err := mgr.Start(ctx); err != nil {
				logger.Warn("mcp start returned an error, continuing without affected servers", "error", err)
			}
			defer mgr.Stop()

			sessionStore := sessions.NewMemoryStore()
			sched := scheduler.New(scheduler.WithLogger(logger))

			runtime, err := buildRuntime(store, mgr, sessionStore, sched, sessionID, logger)
			if err != nil {
				return err
			}
			wireScheduler(sched, runtime, sessionStore)

			if err := sched.Start(ctx); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}
			defer sched.Stop(ctx)

			reply, err := replayPrompt(ctx, runtime, sessionStore, sessionID, prompt)
			if err != nil {
				return fmt.Errorf("run turn: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to agentcore.yaml (default ./agentcore.yaml)")
	cmd.Flags().StringVar(&sessionID, "session", "default", "session key to run the turn in")
	cmd.Flags().StringVar(&prompt, "prompt", "", "prompt to send the agent")

	return cmd
}

// buildStatusCmd reports whether configuration, the configured provider's
// secret, and MCP server connectivity are healthy, without running a turn.
func buildStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check configuration and connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()
			store, err := config.NewParamStore(resolveConfigPath(configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config: %s\n", store.Path())

			if _, err := loadProvider(store); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "provider: NOT OK (%v)\n", err)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "provider: OK")
			}

			mgr := loadMCPManager(store, logger)
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := mgr.Start(ctx); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "mcp: degraded (%v)\n", err)
			}
			defer mgr.Stop()

			for _, status := range mgr.Status() {
				fmt.Fprintf(cmd.OutOrStdout(), "mcp server %s: connected=%v\n", status.ID, status.Connected)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to agentcore.yaml (default ./agentcore.yaml)")
	return cmd
}

// buildMcpCmd groups MCP server inspection subcommands.
func buildMcpCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Inspect MCP server connections and tools",
	}

	listCmd := &cobra.Command{
		Use:   "tools",
		Short: "List tools exposed by connected MCP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()
			store, err := config.NewParamStore(resolveConfigPath(configPath))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			mgr := loadMCPManager(store, logger)
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := mgr.Start(ctx); err != nil {
				logger.Warn("mcp start returned an error", "error", err)
			}
			defer mgr.Stop()

			for _, qt := range mgr.AllQualifiedTools() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", qt.QualifiedName, qt.Tool.Description)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to agentcore.yaml (default ./agentcore.yaml)")
	cmd.AddCommand(listCmd)
	return cmd
}

// buildSchedulerCmd groups administrative scheduler subcommands, distinct
// from the in-session scheduler.Tool an LLM call uses: this surface lets an
// operator inspect or cancel jobs across sessions from the shell.
func buildSchedulerCmd() *cobra.Command {
	var (
		configPath string
		sessionID  string
		prompt     string
		cronExpr   string
		every      string
		at         string
		timezone   string
	)

	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Administer scheduled agent-turn jobs",
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Schedule a prompt to replay into a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt == "" {
				return fmt.Errorf("--prompt is required")
			}

			var everyDur time.Duration
			if every != "" {
				d, err := time.ParseDuration(every)
				if err != nil {
					return fmt.Errorf("invalid --every: %w", err)
				}
				everyDur = d
			}

			sched, err := scheduler.NewSchedule(cronExpr, everyDur, at, timezone)
			if err != nil {
				return fmt.Errorf("invalid schedule: %w", err)
			}

			s := scheduler.New(scheduler.WithLogger(slog.Default()))
			job, err := s.Schedule(sessionID, prompt, sched)
			if err != nil {
				return fmt.Errorf("schedule job: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "scheduled job %s, next run %s\n", job.ID, job.NextRun.Format(time.RFC3339))
			return nil
		},
	}
	scheduleCmd.Flags().StringVar(&sessionID, "session", "default", "session the job replays its prompt into")
	scheduleCmd.Flags().StringVar(&prompt, "prompt", "", "prompt to replay when the job fires")
	scheduleCmd.Flags().StringVar(&cronExpr, "cron", "", "cron expression (mutually exclusive with --every/--at)")
	scheduleCmd.Flags().StringVar(&every, "every", "", "recurring interval, e.g. 10m, 1h")
	scheduleCmd.Flags().StringVar(&at, "at", "", "one-shot RFC3339 or \"2006-01-02 15:04\" timestamp")
	scheduleCmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for --at/--cron, default local")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to agentcore.yaml (unused by this administrative subcommand today, reserved for persisted job storage)")
	cmd.AddCommand(scheduleCmd)
	return cmd
}
