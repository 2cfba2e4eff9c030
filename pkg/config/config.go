// Package config provides configuration loading and validation for the RCVE engine.
//
// Configuration is layered: a YAML defaults file supplies the engine-wide
// defaults (iteration cap, token budget, per-tool budgets, confidence
// thresholds, model selection); a per-run RunInput.Config may override any of
// those fields for a single request. The merged result is never mutated after
// a run starts — Engine.Run receives a value, not a pointer into shared state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Provider identifies which LLM backend a ModelConfig talks to.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
	ProviderOllama    = "ollama"
)

// ModelConfig describes one LLM role's (Planner or Validator) model selection
// and the rate/budget ceiling pkg/limiter enforces for it.
type ModelConfig struct {
	Name           string  `yaml:"name"`
	Provider       string  `yaml:"provider"`
	MaxTokens      int     `yaml:"max_tokens"`
	Temperature    float32 `yaml:"temperature"`
	MaxTPM         int     `yaml:"max_tokens_per_minute"`
	DailyBudget    float64 `yaml:"daily_budget_usd"`
	MaxConnections int     `yaml:"max_connections"`
}

// OrchestratorConfig groups the settings pkg/limiter needs across every model
// in use, regardless of which RCVE role drives it.
type OrchestratorConfig struct {
	Models []ModelConfig `yaml:"models"`
}

// Thresholds is the iteration-indexed Validator acceptance curve from the
// Component Design's Validator contract: index 0 applies when iteration 0 is
// entered, index 3 (and beyond) when iteration 3 is entered.
type Thresholds [4]float64

// At returns the threshold for a given iteration, clamping to the last entry
// for any iteration beyond the table (matches the "very lenient" posture
// holding for all further passes, not just exactly iteration 3).
func (t Thresholds) At(iteration int) float64 {
	if iteration < 0 {
		iteration = 0
	}
	if iteration >= len(t) {
		iteration = len(t) - 1
	}
	return t[iteration]
}

// DefaultThresholds is the acceptance curve named in the Validator contract.
var DefaultThresholds = Thresholds{0.85, 0.75, 0.65, 0.60}

// Config is the full, merged configuration for one engine run.
type Config struct {
	MaxIterations        int            `yaml:"max_iterations"`
	TokenBudget           int            `yaml:"token_budget"`
	ToolBudgets           map[string]int `yaml:"tool_budgets"`
	ToolTimeoutSeconds    int            `yaml:"tool_timeout_seconds"`
	ConfidenceThresholds  Thresholds     `yaml:"confidence_thresholds"`
	PlannerModel          ModelConfig    `yaml:"planner_model"`
	ValidatorModel        ModelConfig    `yaml:"validator_model"`
	Orchestrator          OrchestratorConfig `yaml:"orchestrator"`
}

// Default per-tool call budgets, named in the Tool Registry contract.
var DefaultToolBudgets = map[string]int{
	"fetch_page":     5,
	"web_search":     3,
	"image_probe":    3,
	"pdf_extract":    2,
	"form_detect":    3,
	"social_find":    2,
	"seo_audit":      1,
	"maps_lookup":    1,
	"reviews_lookup": 1,
}

// Default hard limits.
const (
	DefaultMaxIterations     = 3
	DefaultTokenBudget       = 500_000
	DefaultToolTimeoutSeconds = 30
)

// Defaults returns a fully populated Config using the engine's documented
// defaults and a single default model (Claude Haiku) for both LLM roles.
func Defaults() Config {
	budgets := make(map[string]int, len(DefaultToolBudgets))
	for k, v := range DefaultToolBudgets {
		budgets[k] = v
	}

	haiku := ModelConfig{
		Name:           "claude-haiku-4-5-20251001",
		Provider:       ProviderAnthropic,
		MaxTokens:      4096,
		Temperature:    0,
		MaxTPM:         200_000,
		DailyBudget:    50,
		MaxConnections: 8,
	}

	return Config{
		MaxIterations:        DefaultMaxIterations,
		TokenBudget:          DefaultTokenBudget,
		ToolBudgets:          budgets,
		ToolTimeoutSeconds:   DefaultToolTimeoutSeconds,
		ConfidenceThresholds: DefaultThresholds,
		PlannerModel:         haiku,
		ValidatorModel:       haiku,
		Orchestrator:         OrchestratorConfig{Models: []ModelConfig{haiku}},
	}
}

// Load reads a YAML defaults file and merges it over Defaults(). A missing
// file is not an error — callers that only need the hardcoded defaults pass
// an empty path.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects a config that cannot safely drive the engine. Invalid
// configs are rejected before a run starts, never patched up silently.
func Validate(cfg *Config) error {
	if cfg.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be >= 0, got %d", cfg.MaxIterations)
	}
	if cfg.TokenBudget < 0 {
		return fmt.Errorf("token_budget must be >= 0, got %d", cfg.TokenBudget)
	}
	if cfg.ToolTimeoutSeconds <= 0 {
		return fmt.Errorf("tool_timeout_seconds must be > 0, got %d", cfg.ToolTimeoutSeconds)
	}
	for _, v := range cfg.ConfidenceThresholds {
		if v < 0 || v > 1 {
			return fmt.Errorf("confidence_thresholds entries must be in [0,1], got %v", cfg.ConfidenceThresholds)
		}
	}
	for tool, budget := range cfg.ToolBudgets {
		if budget < 0 {
			return fmt.Errorf("tool_budgets[%s] must be >= 0, got %d", tool, budget)
		}
	}
	return nil
}

// Merge applies RunInput-level overrides on top of a base config, returning a
// new value — the base is never mutated, so concurrent runs sharing one
// loaded defaults file never race over per-request overrides.
func (cfg Config) Merge(overrides Overrides) Config {
	out := cfg
	if overrides.MaxIterations != nil {
		out.MaxIterations = *overrides.MaxIterations
	}
	if overrides.TokenBudget != nil {
		out.TokenBudget = *overrides.TokenBudget
	}
	if len(overrides.ToolBudgets) > 0 {
		merged := make(map[string]int, len(cfg.ToolBudgets))
		for k, v := range cfg.ToolBudgets {
			merged[k] = v
		}
		for k, v := range overrides.ToolBudgets {
			merged[k] = v
		}
		out.ToolBudgets = merged
	}
	return out
}

// Overrides mirrors RunInput.Config: the subset of Config a single request
// may override. Pointers distinguish "not set" from "set to zero."
type Overrides struct {
	MaxIterations *int
	TokenBudget   *int
	ToolBudgets   map[string]int
}
