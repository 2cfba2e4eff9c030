// Package preflight validates that the credentials a configured model
// actually needs are present before the engine starts accepting requests.
// It is provider-aware rather than mode-aware: whatever config.ModelConfig.Provider
// the Planner and Validator are wired to is what gets checked.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rcve/pkg/config"
)

// CheckResult is the outcome of validating one model's provider credential.
type CheckResult struct {
	Error    error
	Message  string
	Role     string // "planner" or "validator"
	Provider string
	Passed   bool
}

// Results holds every check run for a request.
type Results struct {
	Summary string
	Checks  []CheckResult
	Passed  bool
}

// Run validates the Planner and Validator model credentials/reachability.
// Both roles are checked even when they share a provider, since a missing
// Ollama model is a per-role concern (Planner and Validator may be pointed
// at different models on the same host).
func Run(ctx context.Context, cfg config.Config) *Results {
	results := &Results{Checks: make([]CheckResult, 0, 2), Passed: true}

	for _, c := range []struct {
		role  string
		model config.ModelConfig
	}{
		{"planner", cfg.PlannerModel},
		{"validator", cfg.ValidatorModel},
	} {
		result := runCheck(ctx, c.role, c.model)
		results.Checks = append(results.Checks, result)
		if !result.Passed {
			results.Passed = false
		}
	}

	if results.Passed {
		results.Summary = fmt.Sprintf("all %d preflight checks passed", len(results.Checks))
	} else {
		failed := 0
		for _, c := range results.Checks {
			if !c.Passed {
				failed++
			}
		}
		results.Summary = fmt.Sprintf("%d of %d preflight checks failed", failed, len(results.Checks))
	}
	return results
}

func runCheck(ctx context.Context, role string, model config.ModelConfig) CheckResult {
	switch model.Provider {
	case config.ProviderAnthropic:
		return checkSecret(role, model.Provider, "ANTHROPIC_API_KEY")
	case config.ProviderOpenAI:
		return checkSecret(role, model.Provider, "OPENAI_API_KEY")
	case config.ProviderGoogle:
		return checkSecret(role, model.Provider, "GOOGLE_API_KEY")
	case config.ProviderOllama:
		return checkOllama(ctx, role, model)
	default:
		return CheckResult{
			Role: role, Provider: model.Provider, Passed: false,
			Message: "unknown provider",
			Error:   fmt.Errorf("unsupported model provider: %s", model.Provider),
		}
	}
}

// Validate is a convenience wrapper for callers that just want a pass/fail
// error, e.g. cmd/rcved at startup.
func Validate(ctx context.Context, cfg config.Config) error {
	results := Run(ctx, cfg)
	if results.Passed {
		return nil
	}

	var lines []string
	for _, c := range results.Checks {
		if !c.Passed {
			lines = append(lines, FormatCheckError(c))
		}
	}
	return errors.New(strings.Join(lines, "\n"))
}
