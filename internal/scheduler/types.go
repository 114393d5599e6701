package scheduler

import (
	"context"
	"time"
)

// Job is a scheduled follow-up action the agent loop should run when its
// schedule fires. Unlike the cron package this is adapted from, a Job here
// always carries an agent turn to replay — there is no webhook/custom
// handler split, since §4.1.3's platform scheduler tool only ever
// schedules future agent turns.
type Job struct {
	ID      string
	Name    string
	Enabled bool

	Schedule Schedule
	SessionID string
	Prompt    string

	NextRun    time.Time
	LastRun    time.Time
	LastError  string
	RetryCount int
}

// AgentRunner replays a scheduled prompt into a session when a job fires.
type AgentRunner interface {
	Run(ctx context.Context, job *Job) error
}

// AgentRunnerFunc adapts a function to an AgentRunner.
type AgentRunnerFunc func(ctx context.Context, job *Job) error

// Run executes the agent runner function.
func (f AgentRunnerFunc) Run(ctx context.Context, job *Job) error {
	return f(ctx, job)
}
