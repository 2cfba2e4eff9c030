package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"rcve/pkg/proto"
)

func TestRegistryReservesBudgetBeforeCall(t *testing.T) {
	r := NewRegistry(map[string]int{ToolFetchPage: 1}, 5)

	require.True(t, r.Available(ToolFetchPage))
	result, err := r.Call(context.Background(), ToolFetchPage, map[string]any{"url": "not-a-url"})
	require.NoError(t, err)
	require.False(t, result.OK)
	require.Equal(t, proto.ToolErrorHTTP, result.Error.Kind)
	require.False(t, r.Available(ToolFetchPage), "budget stays spent even on a tool-reported failure")
}

func TestRegistryReleasesBudgetOnMissingRequiredParameter(t *testing.T) {
	r := NewRegistry(map[string]int{ToolReviewsLookup: 1}, 5)

	require.True(t, r.Available(ToolReviewsLookup))
	result, err := r.Call(context.Background(), ToolReviewsLookup, map[string]any{})
	require.NoError(t, err)
	require.False(t, result.OK)
	require.Equal(t, proto.ToolErrorInvalidInput, result.Error.Kind)
	require.True(t, r.Available(ToolReviewsLookup), "budget must be restored on pre-execution validation failure")
}

func TestRegistryRejectsCallOverBudget(t *testing.T) {
	r := NewRegistry(map[string]int{ToolFetchPage: 0}, 5)

	result, err := r.Call(context.Background(), ToolFetchPage, map[string]any{"url": "http://example.com"})
	require.NoError(t, err)
	require.False(t, result.OK)
	require.Equal(t, proto.ToolErrorBudget, result.Error.Kind)
}

func TestRegistryUnknownToolErrors(t *testing.T) {
	r := NewRegistry(map[string]int{"nonexistent": 1}, 5)

	_, err := r.Call(context.Background(), "nonexistent", nil)
	require.Error(t, err)
}

func TestRegistryUsageIsIndependentPerRequest(t *testing.T) {
	budgets := map[string]int{ToolFetchPage: 2}
	r1 := NewRegistry(budgets, 5)
	r2 := NewRegistry(budgets, 5)

	_, _ = r1.Call(context.Background(), ToolFetchPage, map[string]any{"url": "bad"})

	require.Equal(t, 1, r1.Usage()[ToolFetchPage].CallsMade)
	require.Equal(t, 0, r2.Usage()[ToolFetchPage].CallsMade, "registries must not share budget state")
}

func TestNamesListsAllNineTools(t *testing.T) {
	names := Names()
	require.Len(t, names, 9)
	require.Contains(t, names, ToolFetchPage)
	require.Contains(t, names, ToolWebSearch)
	require.Contains(t, names, ToolReviewsLookup)
}
