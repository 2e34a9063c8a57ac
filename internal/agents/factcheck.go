package agents

import (
	"context"
	"strings"

	"github.com/lucasnoah/refinery/internal/llm"
	"github.com/lucasnoah/refinery/internal/pipeline"
	"github.com/lucasnoah/refinery/internal/prompt"
	"github.com/lucasnoah/refinery/internal/stage"
)

// FactChecker verifies claims and citations in the current artifact. It is a
// read-only stage: it reports findings through metadata and never touches the
// artifact.
type FactChecker struct {
	base
}

// NewFactChecker creates the fact-checking stage.
func NewFactChecker(client llm.Client, opts Options) *FactChecker {
	return &FactChecker{base{id: "factcheck", role: "Fact-Checker", client: client, opts: opts}}
}

// Invoke implements stage.Stage.
func (f *FactChecker) Invoke(ctx context.Context, view pipeline.View) stage.Outcome {
	if view.Artifact == "" {
		return stage.Degraded("no artifact to fact-check yet", nil)
	}

	sources := metaStrings(view, "drafter", "sources")
	text, err := f.complete(ctx, "factcheck.md", prompt.Vars{
		"artifact": view.Artifact,
		"sources":  strings.Join(sources, "\n"),
	})
	if err != nil {
		return failure(err)
	}

	return stage.Success("", map[string]any{
		"factual_accuracy": extractScore(text, 0.8),
		"notes":            text,
		"confidence":       confidence(text),
	})
}
