// Package eval turns an artifact pair into a scalar convergence decision.
package eval

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// weightTolerance is how far the metric weights may drift from summing to 1.
const weightTolerance = 1e-6

// ImprovementMetric is the reporting-only delta between the current and
// previous combined scores. It never participates in the weighted average and
// never forces termination; the absolute threshold is the sole stopping rule.
const ImprovementMetric = "improvement"

// Scorer computes named sub-scores in [0,1] for an artifact. previous is
// empty on the first round. Implementations may call an external service or a
// deterministic heuristic; the engine is agnostic to which.
type Scorer interface {
	Score(ctx context.Context, current, previous string) (map[string]float64, error)
}

// ScorerFunc adapts a function to the Scorer interface.
type ScorerFunc func(ctx context.Context, current, previous string) (map[string]float64, error)

func (f ScorerFunc) Score(ctx context.Context, current, previous string) (map[string]float64, error) {
	return f(ctx, current, previous)
}

// Engine combines sub-scores into a convergence score via a fixed weighted
// average. It introduces no non-determinism of its own: identical artifacts
// and identical scorer responses yield identical results.
type Engine struct {
	scorer  Scorer
	weights map[string]float64
	metrics []string // weighted metric names, sorted for stable iteration
}

// NewEngine validates the weights and builds an engine. Weights must be
// non-negative and sum to 1 within tolerance; construction fails fast
// otherwise.
func NewEngine(scorer Scorer, weights map[string]float64) (*Engine, error) {
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("at least one metric weight is required")
	}

	sum := 0.0
	metrics := make([]string, 0, len(weights))
	for name, w := range weights {
		if name == "" {
			return nil, fmt.Errorf("metric weight with empty name")
		}
		if name == ImprovementMetric {
			return nil, fmt.Errorf("metric %q is reserved for the reported delta", ImprovementMetric)
		}
		if w < 0 {
			return nil, fmt.Errorf("metric %q has negative weight %v", name, w)
		}
		sum += w
		metrics = append(metrics, name)
	}
	if math.Abs(sum-1) > weightTolerance {
		return nil, fmt.Errorf("metric weights sum to %v, want 1", sum)
	}
	sort.Strings(metrics)

	ws := make(map[string]float64, len(weights))
	for name, w := range weights {
		ws[name] = w
	}
	return &Engine{scorer: scorer, weights: ws, metrics: metrics}, nil
}

// Result is one evaluation: the named sub-scores (plus the reported
// improvement delta when a previous artifact exists) and the combined
// convergence score.
type Result struct {
	Scores      map[string]float64
	Convergence float64
}

// Evaluate scores the current artifact and combines the sub-scores. When a
// previous artifact exists, the previous combined score is computed the same
// way and the delta is reported under ImprovementMetric. Scoring failures
// propagate: the caller cannot decide convergence without scores.
func (e *Engine) Evaluate(ctx context.Context, current, previous string) (*Result, error) {
	scores, err := e.scorer.Score(ctx, current, previous)
	if err != nil {
		return nil, fmt.Errorf("score current artifact: %w", err)
	}
	combined, err := e.combine(scores)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64, len(scores)+1)
	for name, v := range scores {
		out[name] = v
	}

	if previous != "" {
		prevScores, err := e.scorer.Score(ctx, previous, "")
		if err != nil {
			return nil, fmt.Errorf("score previous artifact: %w", err)
		}
		prevCombined, err := e.combine(prevScores)
		if err != nil {
			return nil, err
		}
		out[ImprovementMetric] = combined - prevCombined
	}

	return &Result{Scores: out, Convergence: combined}, nil
}

// combine applies the weighted average. Every weighted metric must be present
// and in range; anything else is an evaluation failure rather than a guess.
func (e *Engine) combine(scores map[string]float64) (float64, error) {
	total := 0.0
	for _, name := range e.metrics {
		v, ok := scores[name]
		if !ok {
			return 0, fmt.Errorf("scorer returned no value for metric %q", name)
		}
		if v < 0 || v > 1 || math.IsNaN(v) {
			return 0, fmt.Errorf("metric %q out of range: %v", name, v)
		}
		total += v * e.weights[name]
	}
	return total, nil
}

// Metrics returns the weighted metric names in sorted order.
func (e *Engine) Metrics() []string {
	out := make([]string, len(e.metrics))
	copy(out, e.metrics)
	return out
}
