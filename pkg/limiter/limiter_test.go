package limiter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rcve/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Orchestrator: config.OrchestratorConfig{
			Models: []config.ModelConfig{
				{
					Name:           "claude-haiku-4-5-20251001",
					MaxTPM:         50000,
					DailyBudget:    200.0,
					MaxConnections: 4,
				},
			},
		},
	}
}

func TestReserveSucceedsWithinBudget(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Close()

	require.NoError(t, l.Reserve("claude-haiku-4-5-20251001", 100))
}

func TestReserveFailsWhenBucketExhausted(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Close()

	require.NoError(t, l.Reserve("claude-haiku-4-5-20251001", 50000))
	require.ErrorIs(t, l.Reserve("claude-haiku-4-5-20251001", 1), ErrRateLimit)
}

func TestReserveBudgetFailsOverDailyCap(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Close()

	require.NoError(t, l.ReserveBudget("claude-haiku-4-5-20251001", 199))
	require.ErrorIs(t, l.ReserveBudget("claude-haiku-4-5-20251001", 2), ErrBudgetExceeded)
}

func TestReserveAgentRespectsConcurrencyCap(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, l.ReserveAgent("claude-haiku-4-5-20251001"))
	}
	require.ErrorIs(t, l.ReserveAgent("claude-haiku-4-5-20251001"), ErrAgentLimit)

	require.NoError(t, l.ReleaseAgent("claude-haiku-4-5-20251001"))
	require.NoError(t, l.ReserveAgent("claude-haiku-4-5-20251001"))
}

func TestReserveUnknownModelErrors(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Close()

	require.Error(t, l.Reserve("unknown-model", 1))
}

func TestResetDailyRestoresBudgetAndAgents(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Close()

	require.NoError(t, l.ReserveBudget("claude-haiku-4-5-20251001", 199))
	require.NoError(t, l.ReserveAgent("claude-haiku-4-5-20251001"))

	l.ResetDaily()

	_, budget, agents, err := l.GetStatus("claude-haiku-4-5-20251001")
	require.NoError(t, err)
	require.Equal(t, 0.0, budget)
	require.Equal(t, 0, agents)
}
