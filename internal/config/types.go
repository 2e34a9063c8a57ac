package config

// Config is the top-level configuration structure parsed from refinery YAML.
type Config struct {
	Pipeline   Pipeline   `yaml:"pipeline"`
	Evaluation Evaluation `yaml:"evaluation"`
	LLM        LLM        `yaml:"llm"`
}

// Pipeline defines the run loop: iteration bounds, stage ordering, and the
// retry defaults applied around every external call.
type Pipeline struct {
	Name                 string        `yaml:"name"`
	MaxIterations        int           `yaml:"max_iterations"`
	ConvergenceThreshold float64       `yaml:"convergence_threshold"`
	TemplateDir          string        `yaml:"template_dir"` // optional prompt template overrides
	Defaults             StageDefaults `yaml:"defaults"`
	Stages               []Stage       `yaml:"stages"`
}

// StageDefaults holds the bounded-retry parameters applied uniformly to
// every stage invocation and scoring call.
type StageDefaults struct {
	Timeout     string `yaml:"timeout"`      // per-attempt deadline, e.g. "2m"
	MaxAttempts int    `yaml:"max_attempts"` // total attempts including the first
	Backoff     string `yaml:"backoff"`      // base backoff between attempts, e.g. "2s"
}

// Stage declares one pipeline stage by ID in execution order. Stages are
// required unless marked optional; read-only stages never write the artifact
// and may run concurrently with adjacent read-only stages.
type Stage struct {
	ID       string `yaml:"id"`
	Optional bool   `yaml:"optional"`
	ReadOnly bool   `yaml:"read_only"`
}

// Evaluation configures the convergence scoring: metric weights must sum to 1.
type Evaluation struct {
	Weights map[string]float64 `yaml:"weights"`
}

// LLM configures the language-model invocation service used by agent stages.
// The API key is read from the environment, never from the file.
type LLM struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}
