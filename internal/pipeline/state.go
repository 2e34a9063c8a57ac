package pipeline

import "time"

// StageStatus tags a history entry with how the stage invocation ended.
type StageStatus string

const (
	StageOK       StageStatus = "ok"
	StageDegraded StageStatus = "degraded"
	StageFailed   StageStatus = "failed"
)

// StageRecord is one entry in the run history. Records are immutable once
// appended; insertion order is execution order.
type StageRecord struct {
	Stage    string         `json:"stage"`
	Round    int            `json:"round"`
	Status   StageStatus    `json:"status"`
	Artifact string         `json:"artifact,omitempty"` // snapshot after the stage ran; empty on failure
	Metadata map[string]any `json:"metadata,omitempty"`
	Reason   string         `json:"reason,omitempty"` // set for degraded/failed entries
	At       time.Time      `json:"at"`
}

// State is the mutable record threaded through one run. It is created by the
// run driver, mutated exclusively by the orchestrator, and discarded after the
// final artifact and metrics are extracted. The orchestrator is the single
// writer; stages only ever see read-only View snapshots.
type State struct {
	RunID        string `json:"run_id"`
	Topic        string `json:"topic"`
	Requirements string `json:"requirements,omitempty"`

	CurrentArtifact  string `json:"current_artifact"`
	PreviousArtifact string `json:"previous_artifact,omitempty"`

	Iteration        int                `json:"iteration"` // completed rounds
	Scores           map[string]float64 `json:"scores"`
	ConvergenceScore float64            `json:"convergence_score"`
	Converged        bool               `json:"converged"`
	TerminatedByCap  bool               `json:"terminated_by_cap"`

	History []StageRecord `json:"history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates the state for a fresh run: iteration 0, not converged,
// empty history.
func NewState(runID, topic, requirements string) *State {
	now := time.Now().UTC()
	return &State{
		RunID:        runID,
		Topic:        topic,
		Requirements: requirements,
		Scores:       make(map[string]float64),
		History:      []StageRecord{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Append adds a history record and bumps the update timestamp.
func (s *State) Append(rec StageRecord) {
	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}
	s.History = append(s.History, rec)
	s.UpdatedAt = time.Now().UTC()
}

// View returns an immutable snapshot of the state for a stage invocation.
// History is copied so concurrently running stages cannot observe appends.
func (s *State) View() View {
	hist := make([]StageRecord, len(s.History))
	copy(hist, s.History)
	return View{
		Topic:        s.Topic,
		Requirements: s.Requirements,
		Artifact:     s.CurrentArtifact,
		Round:        s.Iteration + 1,
		History:      hist,
	}
}

// View is the read-only slice of state a stage conditions on: the current
// artifact, the original inputs, and the full prior history.
type View struct {
	Topic        string
	Requirements string
	Artifact     string
	Round        int // 1-based round currently running
	History      []StageRecord
}

// LastRecord returns the most recent history entry for the named stage, or
// false if it has not run yet.
func (v View) LastRecord(stage string) (StageRecord, bool) {
	for i := len(v.History) - 1; i >= 0; i-- {
		if v.History[i].Stage == stage {
			return v.History[i], true
		}
	}
	return StageRecord{}, false
}

// Result is the plain record handed back to the run driver for persistence.
type Result struct {
	RunID            string             `json:"run_id"`
	Topic            string             `json:"topic"`
	FinalArtifact    string             `json:"final_artifact"`
	Iterations       int                `json:"iterations"`
	Converged        bool               `json:"converged"`
	TerminatedByCap  bool               `json:"terminated_by_cap"`
	ConvergenceScore float64            `json:"convergence_score"`
	Scores           map[string]float64 `json:"scores"`
	History          []StageRecord      `json:"history"`
}

// Result extracts the run result from the final state.
func (s *State) Result() *Result {
	return &Result{
		RunID:            s.RunID,
		Topic:            s.Topic,
		FinalArtifact:    s.CurrentArtifact,
		Iterations:       s.Iteration,
		Converged:        s.Converged,
		TerminatedByCap:  s.TerminatedByCap,
		ConvergenceScore: s.ConvergenceScore,
		Scores:           s.Scores,
		History:          s.History,
	}
}
