// Package agents provides the concrete pipeline stages: drafting,
// fact-checking, review, and editing. All of them sit behind the stage
// contract; the orchestrator never knows which is which.
package agents

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lucasnoah/refinery/internal/llm"
	"github.com/lucasnoah/refinery/internal/pipeline"
	"github.com/lucasnoah/refinery/internal/prompt"
	"github.com/lucasnoah/refinery/internal/stage"
)

// Options carries the model invocation settings shared by all agents.
type Options struct {
	Temperature float64
	MaxTokens   int
	TemplateDir string // optional project-level template overrides
}

// base holds the plumbing every agent shares: identity, role, and the
// render-then-complete call path.
type base struct {
	id     string
	role   string
	client llm.Client
	opts   Options
}

func (b base) ID() string { return b.id }

func (b base) system() string {
	return fmt.Sprintf("You are a %s in an AI research lab. Be thorough, accurate, and collaborative with the other agents.", b.role)
}

// complete renders the named template and runs one model call.
func (b base) complete(ctx context.Context, tmplName string, vars prompt.Vars) (string, error) {
	tmpl, err := prompt.Load(tmplName, b.opts.TemplateDir)
	if err != nil {
		return "", err
	}
	rendered, err := prompt.Render(tmpl, vars)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", tmplName, err)
	}
	resp, err := b.client.Complete(ctx, llm.Request{
		System:      b.system(),
		Prompt:      rendered,
		Temperature: b.opts.Temperature,
		MaxTokens:   b.opts.MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// failure classifies a completion error for the retry policy: retryable
// service errors become transient failures, everything else is permanent.
func failure(err error) stage.Outcome {
	if llm.Retryable(err) {
		return stage.Failure(stage.Transient(err))
	}
	return stage.Failure(err)
}

// confidence estimates output confidence from length and structure.
func confidence(output string) float64 {
	var c float64
	switch {
	case len(output) < 50:
		c = 0.5
	case len(output) < 200:
		c = 0.7
	default:
		c = 0.85
	}
	lower := strings.ToLower(output)
	if strings.Contains(lower, "source") || strings.Contains(lower, "citation") {
		c += 0.1
	}
	if c > 1 {
		c = 1
	}
	return c
}

var scoreRe = regexp.MustCompile(`(?i)score\s*[:\-]?\s*([01]?\.[0-9]+|[01])`)

// extractScore pulls a self-reported 0-1 score from model output, falling
// back to def when none is found or the value is out of range.
func extractScore(text string, def float64) float64 {
	m := scoreRe.FindStringSubmatch(text)
	if m == nil {
		return def
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil || v < 0 || v > 1 {
		return def
	}
	return v
}

// extractSources collects citation lines from model output.
func extractSources(text string) []string {
	var sources []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "source:") || strings.Contains(lower, "reference:") {
			sources = append(sources, strings.TrimSpace(line))
		}
	}
	return sources
}

// metaString reads a string value out of a prior stage record's metadata.
func metaString(view pipeline.View, stageID, key string) string {
	rec, ok := view.LastRecord(stageID)
	if !ok || rec.Metadata == nil {
		return ""
	}
	s, _ := rec.Metadata[key].(string)
	return s
}

// metaStrings reads a string slice out of a prior stage record's metadata.
func metaStrings(view pipeline.View, stageID, key string) []string {
	rec, ok := view.LastRecord(stageID)
	if !ok || rec.Metadata == nil {
		return nil
	}
	switch v := rec.Metadata[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
