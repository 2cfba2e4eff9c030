package llmfactory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcve/pkg/config"
)

func withFakeSecret(t *testing.T, values map[string]string) {
	t.Helper()
	orig := GetSecret
	GetSecret = func(name string) (string, error) {
		if v, ok := values[name]; ok {
			return v, nil
		}
		return "", assert.AnError
	}
	t.Cleanup(func() { GetSecret = orig })
}

func TestNewClientDispatchesByProvider(t *testing.T) {
	withFakeSecret(t, map[string]string{
		"ANTHROPIC_API_KEY": "sk-ant-test",
		"OPENAI_API_KEY":    "sk-openai-test",
		"GOOGLE_API_KEY":    "sk-google-test",
	})

	cases := []struct {
		provider string
		model    string
	}{
		{config.ProviderAnthropic, "claude-haiku-4-5-20251001"},
		{config.ProviderOpenAI, "gpt-5"},
		{config.ProviderGoogle, "gemini-2.5-flash"},
		{config.ProviderOllama, "llama3.1"},
	}

	for _, tc := range cases {
		client, err := NewClient(config.ModelConfig{Provider: tc.provider, Name: tc.model})
		require.NoError(t, err, tc.provider)
		require.NotNil(t, client)
		assert.Equal(t, tc.model, client.GetModelName())
	}
}

func TestNewClientRejectsUnknownProvider(t *testing.T) {
	_, err := NewClient(config.ModelConfig{Provider: "carrier-pigeon", Name: "x"})
	require.Error(t, err)
}

func TestNewClientSurfacesMissingCredential(t *testing.T) {
	withFakeSecret(t, map[string]string{})
	_, err := NewClient(config.ModelConfig{Provider: config.ProviderAnthropic, Name: "claude-haiku-4-5-20251001"})
	require.Error(t, err)
}

func TestNewClientOllamaDefaultsHostWhenUnset(t *testing.T) {
	withFakeSecret(t, map[string]string{})
	client, err := NewClient(config.ModelConfig{Provider: config.ProviderOllama, Name: "llama3.1"})
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", client.GetModelName())
}
