package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	base := errors.New("api failure")

	tests := []struct {
		code int
		want error
	}{
		{401, ErrBadCredentials},
		{403, ErrBadCredentials},
		{429, ErrRateLimited},
		{500, ErrUnavailable},
		{503, ErrUnavailable},
	}
	for _, tt := range tests {
		got := classify(tt.code, base)
		assert.ErrorIs(t, got, tt.want, "code %d", tt.code)
	}

	// Unclassified codes pass the error through untouched.
	assert.Equal(t, base, classify(400, base))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ErrRateLimited))
	assert.True(t, Retryable(ErrUnavailable))
	assert.True(t, Retryable(context.DeadlineExceeded))
	assert.True(t, Retryable(classify(429, errors.New("x"))))

	assert.False(t, Retryable(ErrBadCredentials))
	assert.False(t, Retryable(ErrEmptyResponse))
	assert.False(t, Retryable(errors.New("anything else")))
	assert.False(t, Retryable(nil))
}

func TestOfflineClientDocuments(t *testing.T) {
	c := NewOfflineClient()

	resp, err := c.Complete(context.Background(), Request{
		Prompt: "Research the following topic.\nTopic: tidal energy\nProvide sources.",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "tidal energy")
	assert.Contains(t, strings.ToLower(resp.Text), "source:")

	// Later drafts are longer, so heuristic scores can climb between rounds.
	resp2, err := c.Complete(context.Background(), Request{
		Prompt: "Research the following topic.\nTopic: tidal energy\nProvide sources.",
	})
	require.NoError(t, err)
	assert.Greater(t, len(resp2.Text), len(resp.Text))
}

func TestOfflineClientScoreLines(t *testing.T) {
	c := NewOfflineClient()

	resp, err := c.Complete(context.Background(), Request{
		Prompt: "Check the claims.\nReport an accuracy score: 0.8 style line.",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "accuracy score:")

	resp, err = c.Complete(context.Background(), Request{
		Prompt: "Review this.\nReport an overall score: 0.7 style line.",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.Text, "overall score:")
}

func TestOfflineClientHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewOfflineClient().Complete(ctx, Request{Prompt: "anything"})
	assert.ErrorIs(t, err, context.Canceled)
}
