package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lucasnoah/refinery/internal/eval"
)

// Load reads and parses a refinery configuration from the given YAML file
// path. After parsing, it fills in defaults for anything the file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches for a config in standard locations and loads the first
// one found. Search order: ./refinery.yaml, ~/.refinery/config.yaml. When no
// file exists, the built-in defaults are returned.
func LoadDefault() (*Config, error) {
	candidates := []string{"refinery.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".refinery", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	cfg := &Config{}
	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills in every value the file omitted: loop bounds, retry
// parameters, the standard four-stage roster, metric weights, and LLM
// settings.
func applyDefaults(cfg *Config) {
	p := &cfg.Pipeline

	if p.Name == "" {
		p.Name = "refinery"
	}
	if p.MaxIterations == 0 {
		p.MaxIterations = 5
	}
	if p.ConvergenceThreshold == 0 {
		p.ConvergenceThreshold = 0.85
	}
	if p.Defaults.Timeout == "" {
		p.Defaults.Timeout = "2m"
	}
	if p.Defaults.MaxAttempts == 0 {
		p.Defaults.MaxAttempts = 3
	}
	if p.Defaults.Backoff == "" {
		p.Defaults.Backoff = "2s"
	}
	if len(p.Stages) == 0 {
		p.Stages = []Stage{
			{ID: "drafter"},
			{ID: "factcheck", ReadOnly: true, Optional: true},
			{ID: "reviewer", ReadOnly: true},
			{ID: "editor"},
		}
	}

	if len(cfg.Evaluation.Weights) == 0 {
		cfg.Evaluation.Weights = eval.DefaultWeights()
	}

	l := &cfg.LLM
	if l.Provider == "" {
		l.Provider = "gemini"
	}
	if l.Model == "" {
		l.Model = "gemini-2.0-flash"
	}
	if l.APIKeyEnv == "" {
		l.APIKeyEnv = "GEMINI_API_KEY"
	}
	if l.Temperature == 0 {
		l.Temperature = 0.7
	}
	if l.MaxTokens == 0 {
		l.MaxTokens = 2000
	}
}
