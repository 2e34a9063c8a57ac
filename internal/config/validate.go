package config

import (
	"fmt"
	"math"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// weightTolerance matches the evaluation engine's construction check.
const weightTolerance = 1e-6

// Validate checks a Config for structural and semantic errors before any
// run is constructed. It returns a slice of all validation errors found
// (empty if valid).
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	p := cfg.Pipeline

	if p.Name == "" {
		errs = append(errs, ValidationError{Field: "pipeline.name", Message: "is required"})
	}
	if p.MaxIterations < 1 {
		errs = append(errs, ValidationError{
			Field:   "pipeline.max_iterations",
			Message: fmt.Sprintf("must be >= 1, got %d", p.MaxIterations),
		})
	}
	if p.ConvergenceThreshold <= 0 || p.ConvergenceThreshold > 1 {
		errs = append(errs, ValidationError{
			Field:   "pipeline.convergence_threshold",
			Message: fmt.Sprintf("must be in (0,1], got %v", p.ConvergenceThreshold),
		})
	}

	if p.Defaults.MaxAttempts < 1 {
		errs = append(errs, ValidationError{
			Field:   "pipeline.defaults.max_attempts",
			Message: fmt.Sprintf("must be >= 1, got %d", p.Defaults.MaxAttempts),
		})
	}
	for _, d := range []struct {
		field string
		value string
	}{
		{"pipeline.defaults.timeout", p.Defaults.Timeout},
		{"pipeline.defaults.backoff", p.Defaults.Backoff},
	} {
		if d.value == "" {
			continue
		}
		if _, err := time.ParseDuration(d.value); err != nil {
			errs = append(errs, ValidationError{
				Field:   d.field,
				Message: fmt.Sprintf("invalid duration %q", d.value),
			})
		}
	}

	if len(p.Stages) == 0 {
		errs = append(errs, ValidationError{Field: "pipeline.stages", Message: "at least one stage is required"})
	}

	stageIDs := make(map[string]bool)
	for i, s := range p.Stages {
		if s.ID == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("pipeline.stages[%d].id", i),
				Message: "is required",
			})
			continue
		}
		if stageIDs[s.ID] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("pipeline.stages[%d].id", i),
				Message: fmt.Sprintf("duplicate stage ID %q", s.ID),
			})
		}
		stageIDs[s.ID] = true
	}

	// Read-only stages condition on an artifact some earlier stage produced,
	// so the first stage must be a writer.
	if len(p.Stages) > 0 && p.Stages[0].ReadOnly {
		errs = append(errs, ValidationError{
			Field:   "pipeline.stages[0]",
			Message: "first stage cannot be read-only: nothing has produced an artifact yet",
		})
	}

	if len(cfg.Evaluation.Weights) == 0 {
		errs = append(errs, ValidationError{Field: "evaluation.weights", Message: "at least one metric weight is required"})
	} else {
		sum := 0.0
		for name, w := range cfg.Evaluation.Weights {
			if w < 0 {
				errs = append(errs, ValidationError{
					Field:   "evaluation.weights." + name,
					Message: fmt.Sprintf("must be non-negative, got %v", w),
				})
			}
			sum += w
		}
		if math.Abs(sum-1) > weightTolerance {
			errs = append(errs, ValidationError{
				Field:   "evaluation.weights",
				Message: fmt.Sprintf("must sum to 1, got %v", sum),
			})
		}
	}

	if cfg.LLM.Provider != "" {
		switch cfg.LLM.Provider {
		case "gemini", "heuristic":
		default:
			errs = append(errs, ValidationError{
				Field:   "llm.provider",
				Message: fmt.Sprintf("unrecognized provider %q", cfg.LLM.Provider),
			})
		}
	}

	return errs
}

// RetryDefaults converts the configured stage defaults into concrete retry
// parameters, falling back to sane values for unparseable durations (which
// Validate reports separately).
func (p Pipeline) RetryDefaults() (maxAttempts int, backoff, timeout time.Duration) {
	maxAttempts = p.Defaults.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	backoff = 2 * time.Second
	if d, err := time.ParseDuration(p.Defaults.Backoff); err == nil && d > 0 {
		backoff = d
	}
	timeout = 2 * time.Minute
	if d, err := time.ParseDuration(p.Defaults.Timeout); err == nil && d > 0 {
		timeout = d
	}
	return maxAttempts, backoff, timeout
}
