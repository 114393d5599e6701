package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/arborlabs/agentcore/internal/agent"
)

// Tool exposes schedule/cancel/list actions as the §4.1.3 "platform
// scheduler tool", grounded on the teacher's internal/tools/cron.Tool but
// narrowed to the single job kind Scheduler supports.
type Tool struct {
	scheduler *Scheduler
	sessionID string
}

// NewTool binds a scheduler tool to one session, so the LLM can only
// schedule or cancel follow-ups for the conversation it is actually in.
func NewTool(scheduler *Scheduler, sessionID string) *Tool {
	return &Tool{scheduler: scheduler, sessionID: sessionID}
}

func (t *Tool) Name() string { return "scheduler" }

func (t *Tool) Description() string {
	return "Schedule a future agent turn (cron expression, interval, or absolute time), list pending schedules, or cancel one."
}

func (t *Tool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{
				"type":        "string",
				"description": "Action: schedule, list, cancel.",
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "Prompt to replay into this session when the schedule fires (required for schedule).",
			},
			"cron": map[string]any{
				"type":        "string",
				"description": "Cron expression (optional seconds field), e.g. '0 9 * * *'.",
			},
			"every": map[string]any{
				"type":        "string",
				"description": "Duration string, e.g. '30m', for a recurring interval.",
			},
			"at": map[string]any{
				"type":        "string",
				"description": "RFC3339 or 'YYYY-MM-DD HH:MM' timestamp for a one-shot schedule.",
			},
			"timezone": map[string]any{
				"type":        "string",
				"description": "IANA timezone name applied to cron/at schedules.",
			},
			"id": map[string]any{
				"type":        "string",
				"description": "Job id for the cancel action.",
			},
		},
		"required": []string{"action"},
	}
	payload, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return payload
}

func (t *Tool) Execute(ctx context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	if t.scheduler == nil {
		return toolError("scheduler unavailable"), nil
	}

	var input struct {
		Action   string `json:"action"`
		Prompt   string `json:"prompt"`
		Cron     string `json:"cron"`
		Every    string `json:"every"`
		At       string `json:"at"`
		Timezone string `json:"timezone"`
		ID       string `json:"id"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return toolError(fmt.Sprintf("invalid parameters: %v", err)), nil
	}

	switch strings.ToLower(strings.TrimSpace(input.Action)) {
	case "schedule":
		if strings.TrimSpace(input.Prompt) == "" {
			return toolError("prompt is required"), nil
		}
		var every time.Duration
		if strings.TrimSpace(input.Every) != "" {
			parsed, err := time.ParseDuration(input.Every)
			if err != nil {
				return toolError(fmt.Sprintf("invalid every: %v", err)), nil
			}
			every = parsed
		}
		sched, err := NewSchedule(input.Cron, every, input.At, input.Timezone)
		if err != nil {
			return toolError(err.Error()), nil
		}
		job, err := t.scheduler.Schedule(t.sessionID, input.Prompt, sched)
		if err != nil {
			return toolError(err.Error()), nil
		}
		return jsonResult(map[string]any{"status": "scheduled", "id": job.ID, "next_run": job.NextRun})

	case "list":
		jobs := make([]*Job, 0)
		for _, job := range t.scheduler.Jobs() {
			if job.SessionID == t.sessionID {
				jobs = append(jobs, job)
			}
		}
		return jsonResult(map[string]any{"jobs": jobs})

	case "cancel":
		id := strings.TrimSpace(input.ID)
		if id == "" {
			return toolError("id is required"), nil
		}
		if !t.scheduler.Cancel(id) {
			return toolError("job not found"), nil
		}
		return jsonResult(map[string]any{"status": "cancelled", "id": id})

	default:
		return toolError("unsupported action"), nil
	}
}

func toolError(message string) *agent.ToolResult {
	payload, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return &agent.ToolResult{Content: message, IsError: true}
	}
	return &agent.ToolResult{Content: string(payload), IsError: true}
}

func jsonResult(payload any) (*agent.ToolResult, error) {
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return toolError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return &agent.ToolResult{Content: string(encoded)}, nil
}
