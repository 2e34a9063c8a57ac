// Package orchestrator drives the pipeline state machine: rounds of ordered
// stage invocations followed by one evaluation, looping until the combined
// score meets the threshold or the iteration cap is hit.
package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lucasnoah/refinery/internal/eval"
	"github.com/lucasnoah/refinery/internal/pipeline"
	"github.com/lucasnoah/refinery/internal/stage"
)

// Phase is the orchestrator's position in the run state machine.
type Phase string

const (
	PhaseInit         Phase = "init"
	PhaseRunningRound Phase = "running_round"
	PhaseEvaluating   Phase = "evaluating"
	PhaseConverged    Phase = "converged" // terminal
	PhaseCapped       Phase = "capped"    // terminal
	PhaseFailed       Phase = "failed"    // terminal
)

// Recorder receives run events for persistence. The orchestrator calls it
// sequentially, never from concurrent goroutines.
type Recorder interface {
	RecordEvent(runID string, round int, stage, event, detail string)
	RecordScores(runID string, round int, scores map[string]float64)
}

type nopRecorder struct{}

func (nopRecorder) RecordEvent(string, int, string, string, string) {}
func (nopRecorder) RecordScores(string, int, map[string]float64)    {}

// Options configures a run. MaxIterations and Threshold come straight from
// run configuration; the zero Retry value falls back to the default policy.
type Options struct {
	MaxIterations int
	Threshold     float64
	Retry         stage.RetryPolicy
	Logger        *zap.Logger
	Recorder      Recorder
}

// Orchestrator holds an ordered stage registry plus the evaluation engine and
// runs one pipeline to a terminal phase. It is the single writer of the
// pipeline state for the duration of Run.
type Orchestrator struct {
	registry *stage.Registry
	engine   *eval.Engine
	retry    stage.RetryPolicy
	maxIter  int
	thresh   float64
	log      *zap.Logger
	rec      Recorder
	phase    Phase
}

// New validates the run configuration and builds an orchestrator.
func New(registry *stage.Registry, engine *eval.Engine, opts Options) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("stage registry is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("evaluation engine is required")
	}
	if opts.MaxIterations < 1 {
		return nil, fmt.Errorf("max iterations must be >= 1, got %d", opts.MaxIterations)
	}
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		return nil, fmt.Errorf("convergence threshold must be in (0,1], got %v", opts.Threshold)
	}
	retry := opts.Retry
	if retry.MaxAttempts == 0 {
		retry = stage.DefaultRetryPolicy()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Orchestrator{
		registry: registry,
		engine:   engine,
		retry:    retry,
		maxIter:  opts.MaxIterations,
		thresh:   opts.Threshold,
		log:      log,
		rec:      rec,
		phase:    PhaseInit,
	}, nil
}

// Phase returns the orchestrator's current state-machine phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Run executes rounds until convergence, cap exhaustion, or an unrecoverable
// failure. On failure the state is left as it stood: the current artifact
// retains its last successful value and a failed run is never marked
// converged. The iteration counter always reflects completed rounds, so the
// threshold check happens strictly after the increment.
func (o *Orchestrator) Run(ctx context.Context, st *pipeline.State) error {
	for st.Iteration < o.maxIter && !st.Converged {
		round := st.Iteration + 1
		o.phase = PhaseRunningRound
		st.PreviousArtifact = st.CurrentArtifact

		o.log.Info("round started",
			zap.String("run_id", st.RunID),
			zap.Int("round", round))
		o.rec.RecordEvent(st.RunID, round, "", "round_started", "")

		if err := o.runRound(ctx, st, round); err != nil {
			o.phase = PhaseFailed
			o.rec.RecordEvent(st.RunID, round, "", "failed", err.Error())
			return err
		}

		o.phase = PhaseEvaluating
		res, err := o.engine.Evaluate(ctx, st.CurrentArtifact, st.PreviousArtifact)
		if err != nil {
			// Convergence cannot be decided without scores.
			o.phase = PhaseFailed
			o.rec.RecordEvent(st.RunID, round, "", "failed", err.Error())
			return fmt.Errorf("evaluate round %d: %w", round, err)
		}
		st.Scores = res.Scores
		st.ConvergenceScore = res.Convergence
		st.Iteration++
		o.rec.RecordScores(st.RunID, round, res.Scores)
		o.rec.RecordEvent(st.RunID, round, "", "evaluated",
			fmt.Sprintf("convergence=%.4f", res.Convergence))

		o.log.Info("round evaluated",
			zap.String("run_id", st.RunID),
			zap.Int("iteration", st.Iteration),
			zap.Float64("convergence_score", res.Convergence),
			zap.Float64("threshold", o.thresh))

		if res.Convergence >= o.thresh {
			st.Converged = true
			o.phase = PhaseConverged
			o.rec.RecordEvent(st.RunID, round, "", "converged", "")
			return nil
		}
		if st.Iteration == o.maxIter {
			st.TerminatedByCap = true
			o.phase = PhaseCapped
			o.rec.RecordEvent(st.RunID, round, "", "capped", "")
			o.log.Warn("iteration cap reached without convergence",
				zap.String("run_id", st.RunID),
				zap.Int("iterations", st.Iteration))
			return nil
		}
	}
	return nil
}

// runRound invokes every registered stage once, in registration order.
// Maximal runs of consecutive read-only stages execute concurrently against a
// shared immutable snapshot; their outcomes are applied after the whole group
// completes, so the artifact has exactly one writer.
func (o *Orchestrator) runRound(ctx context.Context, st *pipeline.State, round int) error {
	entries := o.registry.Entries()
	for i := 0; i < len(entries); {
		if !entries[i].ReadOnly {
			out := o.retry.Invoke(ctx, entries[i].Stage, st.View())
			if err := o.apply(st, entries[i], out, round); err != nil {
				return err
			}
			i++
			continue
		}

		j := i
		for j < len(entries) && entries[j].ReadOnly {
			j++
		}
		group := entries[i:j]
		outs := make([]stage.Outcome, len(group))

		if len(group) == 1 {
			outs[0] = o.retry.Invoke(ctx, group[0].Stage, st.View())
		} else {
			view := st.View()
			g, gctx := errgroup.WithContext(ctx)
			for k := range group {
				g.Go(func() error {
					outs[k] = o.retry.Invoke(gctx, group[k].Stage, view)
					return nil
				})
			}
			// Goroutines report through outs; Wait only joins them.
			_ = g.Wait()
		}

		for k := range group {
			if err := o.apply(st, group[k], outs[k], round); err != nil {
				return err
			}
		}
		i = j
	}
	return nil
}

// apply folds one stage outcome into the state: overwrite the artifact on
// success (writer stages only), append the history record, and decide whether
// the round aborts. A required stage's failure aborts the run; an optional
// stage's failure is downgraded to a degraded step.
func (o *Orchestrator) apply(st *pipeline.State, entry stage.Entry, out stage.Outcome, round int) error {
	id := entry.Stage.ID()

	switch out.Status {
	case stage.StatusOK:
		artifact := out.Artifact
		if entry.ReadOnly {
			if out.Artifact != "" && out.Artifact != st.CurrentArtifact {
				o.log.Warn("read-only stage produced an artifact; ignoring",
					zap.String("stage", id))
			}
			artifact = st.CurrentArtifact
		} else {
			st.CurrentArtifact = artifact
		}
		st.Append(pipeline.StageRecord{
			Stage:    id,
			Round:    round,
			Status:   pipeline.StageOK,
			Artifact: artifact,
			Metadata: out.Metadata,
		})
		o.rec.RecordEvent(st.RunID, round, id, "stage_ok", "")
		return nil

	case stage.StatusDegraded:
		o.log.Warn("stage degraded",
			zap.String("stage", id),
			zap.Int("round", round),
			zap.String("reason", out.Reason))
		st.Append(pipeline.StageRecord{
			Stage:    id,
			Round:    round,
			Status:   pipeline.StageDegraded,
			Metadata: out.Metadata,
			Reason:   out.Reason,
		})
		o.rec.RecordEvent(st.RunID, round, id, "stage_degraded", out.Reason)
		return nil

	case stage.StatusFailed:
		reason := out.Reason
		if reason == "" && out.Err != nil {
			reason = out.Err.Error()
		}
		if entry.Optional {
			o.log.Warn("optional stage failed; continuing degraded",
				zap.String("stage", id),
				zap.Int("round", round),
				zap.String("reason", reason))
			st.Append(pipeline.StageRecord{
				Stage:    id,
				Round:    round,
				Status:   pipeline.StageDegraded,
				Metadata: out.Metadata,
				Reason:   reason,
			})
			o.rec.RecordEvent(st.RunID, round, id, "stage_degraded", reason)
			return nil
		}
		st.Append(pipeline.StageRecord{
			Stage:    id,
			Round:    round,
			Status:   pipeline.StageFailed,
			Metadata: out.Metadata,
			Reason:   reason,
		})
		o.rec.RecordEvent(st.RunID, round, id, "stage_failed", reason)
		o.log.Error("required stage failed; aborting round",
			zap.String("stage", id),
			zap.Int("round", round),
			zap.String("reason", reason))
		return fmt.Errorf("round %d aborted: stage %q: %w", round, id, out.Err)

	default:
		return fmt.Errorf("round %d: stage %q returned invalid status %q", round, id, out.Status)
	}
}
