package worker

import (
	"sync"
	"time"

	"github.com/animus-labs/runworker/internal/runtimeexec"
)

// Stats is read by the health endpoint while the consumer writes it.
type Stats struct {
	mu             sync.Mutex
	processed      int
	discarded      int
	stateErrors    int
	lastRunID      string
	lastOutcome    runtimeexec.Outcome
	lastFinishedAt time.Time
}

func (s *Stats) recordCompleted(runID string, outcome runtimeexec.Outcome, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
	s.lastRunID = runID
	s.lastOutcome = outcome
	s.lastFinishedAt = at.UTC()
}

func (s *Stats) recordDiscarded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discarded++
}

func (s *Stats) recordStateError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stateErrors++
}

func (s *Stats) Snapshot() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]any{
		"jobs_processed": s.processed,
		"jobs_discarded": s.discarded,
		"state_errors":   s.stateErrors,
		"last_run_id":    s.lastRunID,
		"last_outcome":   string(s.lastOutcome),
	}
	if !s.lastFinishedAt.IsZero() {
		out["last_finished_at"] = s.lastFinishedAt.Format(time.RFC3339)
	}
	return out
}
