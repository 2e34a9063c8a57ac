package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/lucasnoah/refinery/internal/pipeline"
)

// RetryPolicy bounds every external stage invocation: a per-attempt timeout,
// a maximum attempt count, and a linear backoff between attempts. The same
// policy is applied uniformly by the orchestrator around every stage call
// rather than duplicated per stage.
type RetryPolicy struct {
	MaxAttempts int           // total attempts, including the first; min 1
	Backoff     time.Duration // sleep before retry n is Backoff * n
	Timeout     time.Duration // per-attempt deadline; 0 means no deadline
}

// DefaultRetryPolicy matches the configured defaults when none are given.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second, Timeout: 2 * time.Minute}
}

// Invoke runs the stage under the policy. Transient failures are absorbed and
// retried until attempts exhaust; only the final failure surfaces as the
// outcome. Permanent failures, degraded outcomes, and successes return
// immediately. A per-attempt timeout expiring counts as transient.
func (p RetryPolicy) Invoke(ctx context.Context, st Stage, view pipeline.View) Outcome {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var out Outcome
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(p.Backoff * time.Duration(attempt-1)):
			case <-ctx.Done():
				return Failure(ctx.Err())
			}
		}

		out = p.invokeOnce(ctx, st, view)
		if out.Status != StatusFailed {
			return out
		}
		if !IsTransient(out.Err) {
			return out
		}
		if err := ctx.Err(); err != nil {
			// The run-level context is gone; retrying cannot help.
			return Failure(err)
		}
	}
	return out
}

// invokeOnce performs a single bounded attempt. A nil-status outcome from a
// misbehaving stage is normalised to a permanent failure.
func (p RetryPolicy) invokeOnce(ctx context.Context, st Stage, view pipeline.View) Outcome {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	out := st.Invoke(ctx, view)
	switch out.Status {
	case StatusOK, StatusDegraded:
		return out
	case StatusFailed:
		if out.Err == nil {
			reason := out.Reason
			if reason == "" {
				reason = "no reason given"
			}
			out.Err = fmt.Errorf("stage %q failed: %s", st.ID(), reason)
			out.Reason = reason
		}
		// A call that ran into the attempt deadline is treated as transient
		// even if the stage did not classify it.
		if ctx.Err() == context.DeadlineExceeded && !IsTransient(out.Err) {
			out.Err = Transient(out.Err)
		}
		return out
	default:
		return Failuref("stage %q returned invalid outcome status %q", st.ID(), out.Status)
	}
}
