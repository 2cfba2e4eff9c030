package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcve/pkg/config"
	"rcve/pkg/limiter"
)

func newTestLimiter(modelName string, maxTPM, maxConnections int) *limiter.Limiter {
	cfg := &config.Config{
		Orchestrator: config.OrchestratorConfig{
			Models: []config.ModelConfig{{
				Name:           modelName,
				MaxTPM:         maxTPM,
				MaxConnections: maxConnections,
				DailyBudget:    1000,
			}},
		},
	}
	return limiter.NewLimiter(cfg)
}

func TestLimitedClientCompleteDelegatesOnNilLimiter(t *testing.T) {
	inner := NewMockClient("haiku", []CompletionResponse{{Content: "hi"}}, nil)
	c := NewLimitedClient(inner, nil, "haiku")

	resp, err := c.Complete(context.Background(), CompletionRequest{MaxTokens: 10})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Content)
}

func TestLimitedClientCompleteReservesAndReleasesAgentSlot(t *testing.T) {
	lim := newTestLimiter("haiku", 1000, 1)
	inner := NewMockClient("haiku", []CompletionResponse{{Content: "first"}, {Content: "second"}}, nil)
	c := NewLimitedClient(inner, lim, "haiku")

	_, err := c.Complete(context.Background(), CompletionRequest{MaxTokens: 10})
	require.NoError(t, err)

	// The agent slot must have been released after the first call returned,
	// otherwise this second call would hit the maxAgents=1 ceiling.
	_, err = c.Complete(context.Background(), CompletionRequest{MaxTokens: 10})
	require.NoError(t, err)
}

func TestLimitedClientCompleteFailsWhenModelUnconfigured(t *testing.T) {
	lim := newTestLimiter("haiku", 1000, 1)
	inner := NewMockClient("sonnet", []CompletionResponse{{Content: "hi"}}, nil)
	c := NewLimitedClient(inner, lim, "sonnet")

	_, err := c.Complete(context.Background(), CompletionRequest{MaxTokens: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sonnet")
}

func TestLimitedClientStreamForwardsChunksAndReleasesSlot(t *testing.T) {
	lim := newTestLimiter("haiku", 1000, 1)
	inner := NewMockClient("haiku", []CompletionResponse{{Content: "streamed"}, {Content: "again"}}, nil)
	c := NewLimitedClient(inner, lim, "haiku")

	ch, err := c.Stream(context.Background(), CompletionRequest{MaxTokens: 10})
	require.NoError(t, err)

	var got []StreamChunk
	for chunk := range ch {
		got = append(got, chunk)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "streamed", got[0].Content)

	// Slot released once the stream drained, so a second stream call succeeds
	// against the same maxAgents=1 limiter.
	ch2, err := c.Stream(context.Background(), CompletionRequest{MaxTokens: 10})
	require.NoError(t, err)
	for range ch2 {
	}
}

func TestLimitedClientGetModelNameDelegates(t *testing.T) {
	inner := NewMockClient("haiku", nil, nil)
	c := NewLimitedClient(inner, nil, "haiku")
	assert.Equal(t, "haiku", c.GetModelName())
}
