// Package llm wraps the language-model invocation service behind a small
// request/response contract. The pipeline core treats it as an opaque
// collaborator: stages build prompts, the client returns text or an error.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Request is one completion call.
type Request struct {
	System      string  // role/system instruction
	Prompt      string  // user prompt
	Temperature float64 // 0 means provider default
	MaxTokens   int     // 0 means provider default
}

// Response is the model's reply.
type Response struct {
	Text string
}

// Client is the invocation contract consumed by agent stages.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Sentinel errors for classification. Rate limits and unavailability are
// transient; bad credentials are permanent and must not be retried.
var (
	ErrRateLimited    = errors.New("rate limited")
	ErrUnavailable    = errors.New("service unavailable")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrEmptyResponse  = errors.New("empty model response")
)

// Retryable reports whether a completion error is worth retrying.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}

// classify maps an HTTP-style status code onto the sentinel taxonomy.
func classify(code int, err error) error {
	switch {
	case code == 401 || code == 403:
		return fmt.Errorf("%w: %v", ErrBadCredentials, err)
	case code == 429:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case code >= 500:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		return err
	}
}
