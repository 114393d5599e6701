package approval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/arborlabs/agentcore/pkg/models"
)

// recentCall is one entry in a session's recent-calls window.
type recentCall struct {
	key string
	at  time.Time
}

// RepetitionInspector forces approval when the same tool is called again
// with structurally-similar arguments within a short window, the kind of
// behavior that indicates a stuck loop rather than deliberate repeated use.
// It has the thinnest grounding of the three stages: there is no direct
// teacher precedent for detecting repetition, only the general
// "detect-and-flag" shape shared with SecurityInspector, and the window's
// expiry reuses the idiom of the teacher's MemoryApprovalStore.Prune TTL
// bookkeeping.
type RepetitionInspector struct {
	mu     sync.Mutex
	window time.Duration
	limit  int
	calls  map[string][]recentCall // sessionID -> recent calls, newest last
}

// NewRepetitionInspector builds the repetition inspection stage. limit is
// the number of identical-looking calls allowed within window before the
// next one is forced to NeedsApproval.
func NewRepetitionInspector(limit int) *RepetitionInspector {
	if limit <= 0 {
		limit = 3
	}
	return &RepetitionInspector{
		window: 2 * time.Minute,
		limit:  limit,
		calls:  make(map[string][]recentCall),
	}
}

func (r *RepetitionInspector) Stage() string { return "repetition" }

func (r *RepetitionInspector) Inspect(_ context.Context, sessionID string, call models.ToolCall) Verdict {
	key := callFingerprint(call)
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.pruneLocked(sessionID, now)
	count := 0
	for _, entry := range history {
		if entry.key == key {
			count++
		}
	}
	history = append(history, recentCall{key: key, at: now})
	r.calls[sessionID] = history

	if count >= r.limit {
		return Verdict{Stage: r.Stage(), Decision: NeedsApproval, Reason: "same tool call repeated within the recent window"}
	}
	return Verdict{Stage: r.Stage(), Decision: Approved, Reason: "no excessive repetition detected"}
}

// pruneLocked drops entries older than the window; caller holds r.mu.
func (r *RepetitionInspector) pruneLocked(sessionID string, now time.Time) []recentCall {
	kept := r.calls[sessionID][:0]
	for _, entry := range r.calls[sessionID] {
		if now.Sub(entry.at) <= r.window {
			kept = append(kept, entry)
		}
	}
	return kept
}

// callFingerprint collapses a tool call to a coarse "structurally similar"
// key: the tool name plus a hash of its raw input. Byte-identical input
// hashes identically, which is sufficient to catch a model stuck repeating
// the exact same call; it does not attempt fuzzy argument similarity.
func callFingerprint(call models.ToolCall) string {
	sum := sha256.Sum256(call.Input)
	return call.Name + ":" + hex.EncodeToString(sum[:8])
}
