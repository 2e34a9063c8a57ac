// Package stage defines the contract every pipeline stage implements and the
// policies the orchestrator applies around stage invocations.
package stage

import (
	"context"
	"errors"
	"fmt"

	"github.com/lucasnoah/refinery/internal/pipeline"
)

// Stage is a single transformation unit in the pipeline. Invoke receives a
// read-only snapshot of the run and reports one of three outcomes: success
// with a revised artifact, degraded (artifact untouched, run continues), or
// failure. Concrete stages differ only in their internal logic; the
// orchestrator treats them all identically.
type Stage interface {
	ID() string
	Invoke(ctx context.Context, view pipeline.View) Outcome
}

// Status tags an outcome variant.
type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Outcome is the tagged result of a stage invocation.
type Outcome struct {
	Status   Status
	Artifact string         // revised artifact; only meaningful for StatusOK
	Metadata map[string]any // confidence, flagged issues, etc.
	Reason   string         // human-readable reason for degraded/failed
	Err      error          // underlying error for failures; drives retry classification
}

// Success builds an ok outcome carrying the revised artifact.
func Success(artifact string, metadata map[string]any) Outcome {
	return Outcome{Status: StatusOK, Artifact: artifact, Metadata: metadata}
}

// Degraded builds a non-fatal outcome: the stage could not improve the
// artifact but the run should continue with the artifact unchanged.
func Degraded(reason string, metadata map[string]any) Outcome {
	return Outcome{Status: StatusDegraded, Reason: reason, Metadata: metadata}
}

// Failure builds a failed outcome from an error.
func Failure(err error) Outcome {
	return Outcome{Status: StatusFailed, Reason: err.Error(), Err: err}
}

// Failuref builds a failed outcome from a formatted message.
func Failuref(format string, args ...any) Outcome {
	return Failure(fmt.Errorf(format, args...))
}

// TransientError marks an error as retryable: timeouts, rate limits,
// connection failures. Anything not wrapped this way (and not a context
// deadline) is treated as permanent and fails immediately.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as retryable. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
