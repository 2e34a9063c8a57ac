package agents

import (
	"context"

	"github.com/lucasnoah/refinery/internal/llm"
	"github.com/lucasnoah/refinery/internal/pipeline"
	"github.com/lucasnoah/refinery/internal/prompt"
	"github.com/lucasnoah/refinery/internal/stage"
)

// Reviewer critiques the current artifact for rigor, coherence, and clarity.
// Read-only: its feedback feeds the editor through metadata.
type Reviewer struct {
	base
}

// NewReviewer creates the review stage.
func NewReviewer(client llm.Client, opts Options) *Reviewer {
	return &Reviewer{base{id: "reviewer", role: "Peer Reviewer", client: client, opts: opts}}
}

// Invoke implements stage.Stage.
func (r *Reviewer) Invoke(ctx context.Context, view pipeline.View) stage.Outcome {
	if view.Artifact == "" {
		return stage.Degraded("no artifact to review yet", nil)
	}

	text, err := r.complete(ctx, "review.md", prompt.Vars{
		"topic":           view.Topic,
		"artifact":        view.Artifact,
		"factcheck_notes": metaString(view, "factcheck", "notes"),
	})
	if err != nil {
		return failure(err)
	}

	return stage.Success("", map[string]any{
		"overall_score": extractScore(text, 0.7),
		"feedback":      text,
		"confidence":    confidence(text),
	})
}
