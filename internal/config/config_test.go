package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validConfig = `
pipeline:
  name: research-notes
  max_iterations: 4
  convergence_threshold: 0.9
  defaults:
    timeout: "90s"
    max_attempts: 2
    backoff: "1s"
  stages:
    - id: drafter
    - id: factcheck
      read_only: true
      optional: true
    - id: reviewer
      read_only: true
    - id: editor
evaluation:
  weights:
    factual_accuracy: 0.5
    logical_coherence: 0.25
    linguistic_clarity: 0.25
llm:
  provider: heuristic
  model: gemini-2.0-flash
  temperature: 0.4
  max_tokens: 1500
`

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "refinery.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeTestConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Pipeline.Name != "research-notes" {
		t.Errorf("Name = %q, want %q", cfg.Pipeline.Name, "research-notes")
	}
	if cfg.Pipeline.MaxIterations != 4 {
		t.Errorf("MaxIterations = %d, want 4", cfg.Pipeline.MaxIterations)
	}
	if cfg.Pipeline.ConvergenceThreshold != 0.9 {
		t.Errorf("ConvergenceThreshold = %v, want 0.9", cfg.Pipeline.ConvergenceThreshold)
	}
	if len(cfg.Pipeline.Stages) != 4 {
		t.Fatalf("len(Stages) = %d, want 4", len(cfg.Pipeline.Stages))
	}
	if !cfg.Pipeline.Stages[1].ReadOnly || !cfg.Pipeline.Stages[1].Optional {
		t.Errorf("Stages[1] = %+v, want read-only optional", cfg.Pipeline.Stages[1])
	}
	if cfg.LLM.Provider != "heuristic" {
		t.Errorf("Provider = %q, want heuristic", cfg.LLM.Provider)
	}

	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("Validate() = %v, want no errors", errs)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTestConfig(t, "pipeline:\n  name: minimal\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Pipeline.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d, want 5", cfg.Pipeline.MaxIterations)
	}
	if cfg.Pipeline.ConvergenceThreshold != 0.85 {
		t.Errorf("ConvergenceThreshold = %v, want 0.85", cfg.Pipeline.ConvergenceThreshold)
	}
	if len(cfg.Pipeline.Stages) != 4 {
		t.Fatalf("len(Stages) = %d, want default roster of 4", len(cfg.Pipeline.Stages))
	}
	if cfg.Pipeline.Stages[0].ID != "drafter" || cfg.Pipeline.Stages[3].ID != "editor" {
		t.Errorf("default roster = %+v", cfg.Pipeline.Stages)
	}
	if cfg.LLM.Provider != "gemini" {
		t.Errorf("Provider = %q, want gemini", cfg.LLM.Provider)
	}
	if cfg.LLM.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("APIKeyEnv = %q, want GEMINI_API_KEY", cfg.LLM.APIKeyEnv)
	}
	if len(cfg.Evaluation.Weights) != 3 {
		t.Errorf("default weights = %v", cfg.Evaluation.Weights)
	}

	if errs := Validate(cfg); len(errs) != 0 {
		t.Errorf("defaults should validate cleanly, got %v", errs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeTestConfig(t, "pipeline: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() should fail for invalid YAML")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "zero iterations",
			mutate: func(c *Config) { c.Pipeline.MaxIterations = -1 },
			field:  "pipeline.max_iterations",
		},
		{
			name:   "threshold above one",
			mutate: func(c *Config) { c.Pipeline.ConvergenceThreshold = 1.5 },
			field:  "pipeline.convergence_threshold",
		},
		{
			name:   "bad timeout",
			mutate: func(c *Config) { c.Pipeline.Defaults.Timeout = "soon" },
			field:  "pipeline.defaults.timeout",
		},
		{
			name: "duplicate stage",
			mutate: func(c *Config) {
				c.Pipeline.Stages = append(c.Pipeline.Stages, Stage{ID: "drafter"})
			},
			field: "duplicate",
		},
		{
			name: "read-only first stage",
			mutate: func(c *Config) {
				c.Pipeline.Stages[0].ReadOnly = true
			},
			field: "pipeline.stages[0]",
		},
		{
			name: "weights do not sum to one",
			mutate: func(c *Config) {
				c.Evaluation.Weights = map[string]float64{"factual_accuracy": 0.5}
			},
			field: "evaluation.weights",
		},
		{
			name:   "negative weight",
			mutate: func(c *Config) { c.Evaluation.Weights["factual_accuracy"] = -0.1 },
			field:  "evaluation.weights.factual_accuracy",
		},
		{
			name:   "unknown provider",
			mutate: func(c *Config) { c.LLM.Provider = "oracle" },
			field:  "llm.provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			applyDefaults(cfg)
			tt.mutate(cfg)

			errs := Validate(cfg)
			if len(errs) == 0 {
				t.Fatal("Validate() returned no errors")
			}
			found := false
			for _, e := range errs {
				if strings.Contains(e.Error(), tt.field) {
					found = true
				}
			}
			if !found {
				t.Errorf("no error mentioning %q in %v", tt.field, errs)
			}
		})
	}
}

func TestRetryDefaults(t *testing.T) {
	p := Pipeline{Defaults: StageDefaults{Timeout: "90s", MaxAttempts: 2, Backoff: "500ms"}}
	attempts, backoff, timeout := p.RetryDefaults()
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
	if backoff != 500*time.Millisecond {
		t.Errorf("backoff = %v, want 500ms", backoff)
	}
	if timeout != 90*time.Second {
		t.Errorf("timeout = %v, want 90s", timeout)
	}
}

func TestRetryDefaultsFallback(t *testing.T) {
	var p Pipeline
	attempts, backoff, timeout := p.RetryDefaults()
	if attempts != 3 || backoff != 2*time.Second || timeout != 2*time.Minute {
		t.Errorf("RetryDefaults() = (%d, %v, %v), want (3, 2s, 2m)", attempts, backoff, timeout)
	}
}
