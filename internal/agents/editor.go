package agents

import (
	"context"
	"strings"

	"github.com/lucasnoah/refinery/internal/llm"
	"github.com/lucasnoah/refinery/internal/pipeline"
	"github.com/lucasnoah/refinery/internal/prompt"
	"github.com/lucasnoah/refinery/internal/stage"
)

// Editor synthesizes the round: it rewrites the artifact incorporating the
// reviewer's feedback and the fact-checker's findings. It is the artifact
// writer that closes each round.
type Editor struct {
	base
}

// NewEditor creates the editing stage.
func NewEditor(client llm.Client, opts Options) *Editor {
	return &Editor{base{id: "editor", role: "Editor-in-Chief", client: client, opts: opts}}
}

// Invoke implements stage.Stage.
func (e *Editor) Invoke(ctx context.Context, view pipeline.View) stage.Outcome {
	if view.Artifact == "" {
		return stage.Degraded("no artifact to edit yet", nil)
	}

	text, err := e.complete(ctx, "edit.md", prompt.Vars{
		"topic":           view.Topic,
		"artifact":        view.Artifact,
		"feedback":        metaString(view, "reviewer", "feedback"),
		"factcheck_notes": metaString(view, "factcheck", "notes"),
	})
	if err != nil {
		return failure(err)
	}

	return stage.Success(text, map[string]any{
		"confidence":   confidence(text),
		"changes_made": identifyChanges(view.Artifact, text),
	})
}

// identifyChanges summarises what the edit did, by rough structural
// comparison of the two versions.
func identifyChanges(original, edited string) []string {
	var changes []string

	switch {
	case len(edited) > len(original)*11/10:
		changes = append(changes, "content expanded significantly")
	case len(edited) < len(original)*9/10:
		changes = append(changes, "content condensed")
	}
	if strings.Count(edited, "\n\n") > strings.Count(original, "\n\n") {
		changes = append(changes, "improved paragraph structure")
	}
	if strings.Contains(edited, "##") && !strings.Contains(original, "##") {
		changes = append(changes, "added section headers")
	}

	if len(changes) == 0 {
		changes = []string{"general improvements and refinements"}
	}
	return changes
}
