package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scheduler runs scheduled agent-turn replays, grounded on the teacher's
// internal/cron.Scheduler but trimmed to a single job kind: every fired job
// replays a prompt into a session via AgentRunner. Webhook/message/custom
// job types from the teacher package have no counterpart here — §4.1.3's
// platform scheduler tool only ever schedules future agent turns.
type Scheduler struct {
	logger      *slog.Logger
	agentRunner AgentRunner
	now         func() time.Time
	tickInterval time.Duration

	mu      sync.Mutex
	jobs    []*Job
	started bool
	wg      sync.WaitGroup
}

// Option configures the scheduler.
type Option func(*Scheduler)

// WithLogger configures the scheduler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAgentRunner configures the callback invoked when a job fires.
func WithAgentRunner(runner AgentRunner) Option {
	return func(s *Scheduler) {
		if runner != nil {
			s.agentRunner = runner
		}
	}
}

// WithNow overrides the clock for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTickInterval overrides the scheduler tick interval.
func WithTickInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.tickInterval = interval
		}
	}
}

// New creates a Scheduler with no jobs configured; jobs are added at
// runtime via Schedule, typically from the platform scheduler tool.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:       slog.Default().With("component", "scheduler"),
		now:          time.Now,
		tickInterval: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetAgentRunner updates the runner after initialization.
func (s *Scheduler) SetAgentRunner(runner AgentRunner) {
	if s == nil || runner == nil {
		return
	}
	s.mu.Lock()
	s.agentRunner = runner
	s.mu.Unlock()
}

// Start begins running due jobs on a tick until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runDue(ctx)
			}
		}
	}()
	return nil
}

// Stop waits for the scheduler loop to stop.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce executes due jobs immediately (primarily for tests).
func (s *Scheduler) RunOnce(ctx context.Context) int {
	if s == nil {
		return 0
	}
	return s.runDue(ctx)
}

// Schedule registers a new job and returns it with its first NextRun set.
func (s *Scheduler) Schedule(sessionID, prompt string, sched Schedule) (*Job, error) {
	if s == nil {
		return nil, errors.New("scheduler is nil")
	}
	if strings.TrimSpace(sessionID) == "" {
		return nil, errors.New("session id required")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("prompt required")
	}

	now := s.now()
	next, ok, err := sched.Next(now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no next run scheduled")
	}

	job := &Job{
		ID:        uuid.NewString(),
		Enabled:   true,
		Schedule:  sched,
		SessionID: sessionID,
		Prompt:    prompt,
		NextRun:   next,
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	s.mu.Unlock()

	return job, nil
}

// Cancel removes a scheduled job by id.
func (s *Scheduler) Cancel(id string) bool {
	if s == nil {
		return false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, job := range s.jobs {
		if job != nil && job.ID == id {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return true
		}
	}
	return false
}

// Jobs returns a snapshot of currently scheduled jobs.
func (s *Scheduler) Jobs() []*Job {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Job, len(s.jobs))
	for i, job := range s.jobs {
		copyJob := *job
		out[i] = &copyJob
	}
	return out
}

func (s *Scheduler) runDue(ctx context.Context) int {
	now := s.now()
	count := 0

	s.mu.Lock()
	jobs := make([]*Job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, job := range jobs {
		if job == nil {
			continue
		}
		s.mu.Lock()
		due := job.Enabled && !job.NextRun.IsZero() && !now.Before(job.NextRun)
		s.mu.Unlock()
		if !due {
			continue
		}

		if err := s.runJob(ctx, job, now); err != nil {
			s.logger.Warn("scheduled job failed", "id", job.ID, "error", err)
		}
		count++
	}
	return count
}

func (s *Scheduler) runJob(ctx context.Context, job *Job, now time.Time) error {
	s.mu.Lock()
	job.LastRun = now
	runner := s.agentRunner
	schedule := job.Schedule
	s.mu.Unlock()

	var err error
	if runner == nil {
		err = errors.New("agent runner not configured")
	} else {
		err = runner.Run(ctx, job)
	}

	s.mu.Lock()
	if err != nil {
		job.LastError = err.Error()
	} else {
		job.LastError = ""
	}
	next, ok, nextErr := schedule.Next(now)
	switch {
	case nextErr != nil:
		job.LastError = nextErr.Error()
		job.NextRun = time.Time{}
		job.Enabled = false
	case !ok:
		job.NextRun = time.Time{}
		job.Enabled = false
	default:
		job.NextRun = next
	}
	s.mu.Unlock()

	return err
}
