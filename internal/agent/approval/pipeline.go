// Package approval implements the three-stage tool inspection/approval
// pipeline: security, permission, repetition. Each stage returns a Decision
// for a proposed tool call; the pipeline folds them monotonically toward
// caution so that no later stage can relax a decision an earlier stage made.
package approval

import (
	"context"

	"github.com/arborlabs/agentcore/pkg/models"
)

// Decision is the outcome of a single inspector or the folded pipeline.
type Decision string

const (
	// Approved means the call may execute without prompting the user.
	Approved Decision = "approved"
	// NeedsApproval means the call must be confirmed before it executes.
	NeedsApproval Decision = "needs_approval"
	// Denied means the call must not execute under any circumstances.
	Denied Decision = "denied"
)

// Rank orders decisions by caution; higher rank wins when folding or when
// comparing verdicts from multiple stages.
func (d Decision) Rank() int {
	switch d {
	case Denied:
		return 2
	case NeedsApproval:
		return 1
	default:
		return 0
	}
}

// Verdict is one inspector's judgment of a tool call, with a human-readable
// reason suitable for surfacing in an approval prompt or audit log.
type Verdict struct {
	Stage    string
	Decision Decision
	Reason   string
}

// Inspector evaluates a proposed tool call in isolation. Inspectors must not
// mutate shared state beyond their own bookkeeping and must be safe for
// concurrent use across sessions.
type Inspector interface {
	Stage() string
	Inspect(ctx context.Context, sessionID string, call models.ToolCall) Verdict
}

// Pipeline runs a fixed ordered set of inspectors and folds their verdicts
// into a single decision. The fold is monotonic toward caution: the first
// inspector to raise the decision above Approved "wins its class", and no
// later inspector can lower it back down.
type Pipeline struct {
	inspectors []Inspector
}

// New builds a pipeline from the given inspectors, run in order.
func New(inspectors ...Inspector) *Pipeline {
	return &Pipeline{inspectors: inspectors}
}

// NewDefault builds the standard security -> permission -> repetition
// pipeline with the given permission store and repetition window.
func NewDefault(permissions *PermissionStore, repetitionWindow int) *Pipeline {
	return New(
		NewSecurityInspector(),
		NewPermissionInspector(permissions),
		NewRepetitionInspector(repetitionWindow),
	)
}

// Check runs every inspector and returns the folded decision plus the
// individual verdicts (most useful ones first: the verdict(s) that produced
// the final decision are not distinguished here, callers needing that detail
// should inspect Verdicts directly).
func (p *Pipeline) Check(ctx context.Context, sessionID string, call models.ToolCall) (Decision, []Verdict) {
	final := Approved
	verdicts := make([]Verdict, 0, len(p.inspectors))
	for _, inspector := range p.inspectors {
		v := inspector.Inspect(ctx, sessionID, call)
		verdicts = append(verdicts, v)
		if v.Decision.Rank() > final.Rank() {
			final = v.Decision
		}
	}
	return final, verdicts
}
