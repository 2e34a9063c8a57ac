package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// OfflineClient produces deterministic completions without network access.
// It backs the "heuristic" provider so the pipeline can run end to end with
// no API key, and doubles as a test double.
type OfflineClient struct {
	mu    sync.Mutex
	calls int
}

// NewOfflineClient creates a client that fabricates agent output locally.
func NewOfflineClient() *OfflineClient {
	return &OfflineClient{}
}

// Complete implements Client. Output is keyed off the prompt shape: scoring
// prompts get a score line, drafting prompts get a document that grows a
// little with every call so successive rounds measurably improve.
func (c *OfflineClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.calls++
	n := c.calls
	c.mu.Unlock()

	lower := strings.ToLower(req.Prompt)
	switch {
	case strings.Contains(lower, "accuracy score"):
		return &Response{Text: fmt.Sprintf(
			"Verified the factual claims against the cited sources.\naccuracy score: %.2f\nNo unsupported claims found.",
			min(0.7+0.05*float64(n), 0.95))}, nil
	case strings.Contains(lower, "overall score"):
		return &Response{Text: fmt.Sprintf(
			"The argument is structured and readable. Consider tightening the introduction.\noverall score: %.2f",
			min(0.65+0.05*float64(n), 0.95))}, nil
	default:
		return &Response{Text: c.document(req.Prompt, n)}, nil
	}
}

func (c *OfflineClient) document(prompt string, n int) string {
	topic := "the requested topic"
	for _, line := range strings.Split(prompt, "\n") {
		if t, ok := strings.CutPrefix(line, "Topic: "); ok && strings.TrimSpace(t) != "" {
			topic = strings.TrimSpace(t)
			break
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", strings.ToUpper(topic[:1])+topic[1:])
	fmt.Fprintf(&b, "According to recent studies, %s has seen substantial progress. ", topic)
	b.WriteString("Research shows that the evidence suggests a consistent trend across independent measurements.\n\n")
	for i := 0; i < n; i++ {
		b.WriteString("Furthermore, data indicates that the observed effects are robust. ")
		b.WriteString("Therefore the analysis supports the stated conclusions, and consequently the findings hold under the tested conditions.\n\n")
	}
	b.WriteString("In other words, this means the results are specifically applicable in practice. For example, studies show comparable outcomes in adjacent settings.\n\n")
	fmt.Fprintf(&b, "Source: Journal of Applied Research (2024)\nSource: %s review, vol. %d\n", topic, n)
	return b.String()
}
