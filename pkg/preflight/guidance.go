package preflight

import (
	"fmt"
	"strings"

	"rcve/pkg/config"
)

// FormatCheckError formats a failed check with actionable guidance.
func FormatCheckError(check CheckResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s (%s): %s\n", check.Role, check.Provider, check.Message))
	sb.WriteString(fmt.Sprintf("    %s\n", guidanceFor(check.Provider)))
	return sb.String()
}

// FormatResults renders a full Results for a startup log line or CLI output.
func FormatResults(results *Results) string {
	var sb strings.Builder
	if results.Passed {
		sb.WriteString("preflight checks passed\n")
		for _, c := range results.Checks {
			sb.WriteString(fmt.Sprintf("  [PASS] %s (%s): %s\n", c.Role, c.Provider, c.Message))
		}
		return sb.String()
	}

	sb.WriteString("preflight checks failed\n")
	for _, c := range results.Checks {
		if !c.Passed {
			sb.WriteString(FormatCheckError(c))
		}
	}
	return sb.String()
}

func guidanceFor(provider string) string {
	switch provider {
	case config.ProviderOpenAI:
		return "set OPENAI_API_KEY (or store it via config.EncryptSecretsFile): https://platform.openai.com/api-keys"
	case config.ProviderAnthropic:
		return "set ANTHROPIC_API_KEY (or store it via config.EncryptSecretsFile): https://console.anthropic.com/"
	case config.ProviderGoogle:
		return "set GOOGLE_API_KEY (or store it via config.EncryptSecretsFile): https://aistudio.google.com/app/apikey"
	case config.ProviderOllama:
		return "start ollama and pull the configured model: ollama serve && ollama pull <model>"
	default:
		return "check the model's provider field in config"
	}
}
