package agents

import (
	"fmt"

	"github.com/lucasnoah/refinery/internal/config"
	"github.com/lucasnoah/refinery/internal/llm"
	"github.com/lucasnoah/refinery/internal/stage"
)

// BuildRegistry maps the configured stage roster onto concrete agents
// and assembles them into an ordered registry.
func BuildRegistry(cfg *config.Config, client llm.Client) (*stage.Registry, error) {
	opts := Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		TemplateDir: cfg.Pipeline.TemplateDir,
	}

	entries := make([]stage.Entry, 0, len(cfg.Pipeline.Stages))
	for _, sc := range cfg.Pipeline.Stages {
		var st stage.Stage
		switch sc.ID {
		case "drafter":
			st = NewDrafter(client, opts)
		case "factcheck":
			st = NewFactChecker(client, opts)
		case "reviewer":
			st = NewReviewer(client, opts)
		case "editor":
			st = NewEditor(client, opts)
		default:
			return nil, fmt.Errorf("unknown stage %q in pipeline config", sc.ID)
		}
		entries = append(entries, stage.Entry{
			Stage:    st,
			Optional: sc.Optional,
			ReadOnly: sc.ReadOnly,
		})
	}

	return stage.NewRegistry(entries)
}
