package llmfactory

import (
	"fmt"

	"rcve/pkg/config"
	"rcve/pkg/llm"
	"rcve/pkg/llm/providers/anthropic"
	"rcve/pkg/llm/providers/google"
	"rcve/pkg/llm/providers/ollama"
	"rcve/pkg/llm/providers/openai"
)

// secretEnvVar maps a provider name to the secrets-file/env-var key holding
// its API key.
var secretEnvVar = map[string]string{
	config.ProviderAnthropic: "ANTHROPIC_API_KEY",
	config.ProviderOpenAI:    "OPENAI_API_KEY",
	config.ProviderGoogle:    "GOOGLE_API_KEY",
}

// GetSecret is satisfied by config.GetSecret; declared here as a var so
// tests can substitute a fixture without touching the real secrets store.
var GetSecret = config.GetSecret

// NewClient builds the raw provider client for one ModelConfig. The caller
// (cmd/rcved's wiring, via llm.NewLimitedClient) is responsible for wrapping
// it with whatever rate enforcement it needs from pkg/limiter — this factory only
// resolves "which provider, which model, which credential".
func NewClient(model config.ModelConfig) (llm.LLMClient, error) {
	switch model.Provider {
	case config.ProviderAnthropic:
		apiKey, err := GetSecret(secretEnvVar[config.ProviderAnthropic])
		if err != nil {
			return nil, fmt.Errorf("resolve anthropic credential: %w", err)
		}
		return anthropic.NewClaudeClientWithModel(apiKey, model.Name), nil

	case config.ProviderOpenAI:
		apiKey, err := GetSecret(secretEnvVar[config.ProviderOpenAI])
		if err != nil {
			return nil, fmt.Errorf("resolve openai credential: %w", err)
		}
		return openai.NewOfficialClientWithModel(apiKey, model.Name), nil

	case config.ProviderGoogle:
		apiKey, err := GetSecret(secretEnvVar[config.ProviderGoogle])
		if err != nil {
			return nil, fmt.Errorf("resolve google credential: %w", err)
		}
		return google.NewGeminiClientWithModel(apiKey, model.Name), nil

	case config.ProviderOllama:
		hostURL, err := GetSecret("OLLAMA_HOST")
		if err != nil || hostURL == "" {
			hostURL = "http://localhost:11434"
		}
		return ollama.NewOllamaClientWithModel(hostURL, model.Name), nil

	default:
		return nil, fmt.Errorf("unsupported model provider: %s", model.Provider)
	}
}
