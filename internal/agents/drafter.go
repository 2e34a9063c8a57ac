package agents

import (
	"context"

	"github.com/lucasnoah/refinery/internal/llm"
	"github.com/lucasnoah/refinery/internal/pipeline"
	"github.com/lucasnoah/refinery/internal/prompt"
	"github.com/lucasnoah/refinery/internal/stage"
)

// Drafter generates and expands the research content. On the first round it
// drafts from the topic alone; on later rounds it reworks the current
// artifact under the latest reviewer feedback.
type Drafter struct {
	base
}

// NewDrafter creates the drafting stage.
func NewDrafter(client llm.Client, opts Options) *Drafter {
	return &Drafter{base{id: "drafter", role: "Research Specialist", client: client, opts: opts}}
}

// Invoke implements stage.Stage.
func (d *Drafter) Invoke(ctx context.Context, view pipeline.View) stage.Outcome {
	text, err := d.complete(ctx, "draft.md", prompt.Vars{
		"topic":        view.Topic,
		"requirements": view.Requirements,
		"artifact":     view.Artifact,
		"feedback":     metaString(view, "reviewer", "feedback"),
	})
	if err != nil {
		return failure(err)
	}

	return stage.Success(text, map[string]any{
		"confidence": confidence(text),
		"sources":    extractSources(text),
	})
}
