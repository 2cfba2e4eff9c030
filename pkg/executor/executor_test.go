package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcve/pkg/planner"
	"rcve/pkg/proto"
	"rcve/pkg/tools"
)

func TestExecuteDropsActionsWithExhaustedBudget(t *testing.T) {
	registry := tools.NewRegistry(map[string]int{tools.ToolFetchPage: 0}, 5)
	e := New()

	plan := planner.Plan{Actions: []planner.Action{
		{Tool: tools.ToolFetchPage, QuestionAnswered: "what's on the page", Params: map[string]any{"url": "http://example.com"}},
	}}

	result := e.Execute(context.Background(), plan, registry, proto.DynamicContext{}, 0, 10000, 1)
	require.Len(t, result.ToolCalls, 1)
	assert.False(t, result.ToolCalls[0].OK)
	assert.Equal(t, string(proto.ToolErrorBudget), result.ToolCalls[0].ErrorKind)
	assert.Equal(t, 0, result.TokensUsed)
}

func TestExecuteDropsUnknownTool(t *testing.T) {
	registry := tools.NewRegistry(map[string]int{tools.ToolFetchPage: 5}, 5)
	e := New()

	plan := planner.Plan{Actions: []planner.Action{
		{Tool: "not_a_real_tool", QuestionAnswered: "whatever"},
	}}

	result := e.Execute(context.Background(), plan, registry, proto.DynamicContext{}, 0, 10000, 1)
	require.Len(t, result.ToolCalls, 1)
	assert.False(t, result.ToolCalls[0].OK)
	assert.Equal(t, string(proto.ToolErrorBudget), result.ToolCalls[0].ErrorKind)
}

func TestExecuteStopsSequentialDispatchOnceTokenBudgetExhausted(t *testing.T) {
	registry := tools.NewRegistry(map[string]int{tools.ToolFetchPage: 5}, 5)
	e := New()

	plan := planner.Plan{Actions: []planner.Action{
		{Tool: tools.ToolFetchPage, Params: map[string]any{"url": "bad"}},
		{Tool: tools.ToolFetchPage, Params: map[string]any{"url": "bad"}},
	}}

	// tokensUsedSoFar already at budget: nothing dispatches this iteration.
	result := e.Execute(context.Background(), plan, registry, proto.DynamicContext{}, 100, 100, 1)
	require.Empty(t, result.ToolCalls)
}

func TestExecuteConcurrentDropsEverythingWhenAlreadyOverBudget(t *testing.T) {
	registry := tools.NewRegistry(map[string]int{tools.ToolFetchPage: 5}, 5)
	e := &Executor{Mode: ExecuteConcurrent}

	plan := planner.Plan{Actions: []planner.Action{
		{Tool: tools.ToolFetchPage, Params: map[string]any{"url": "bad"}},
		{Tool: tools.ToolFetchPage, Params: map[string]any{"url": "bad"}},
	}}

	result := e.Execute(context.Background(), plan, registry, proto.DynamicContext{}, 100, 100, 1)
	require.Len(t, result.ToolCalls, 2)
	for _, oc := range result.ToolCalls {
		assert.False(t, oc.OK)
		assert.Equal(t, string(proto.ToolErrorBudget), oc.ErrorKind)
	}
}

func TestExecuteLeavesDynamicContextUntouchedWhenNothingDispatches(t *testing.T) {
	registry := tools.NewRegistry(map[string]int{tools.ToolFetchPage: 0}, 5)
	e := New()

	plan := planner.Plan{Actions: []planner.Action{
		{Tool: tools.ToolFetchPage, Params: map[string]any{"url": "http://example.com"}},
	}}

	result := e.Execute(context.Background(), plan, registry, proto.DynamicContext{}, 0, 10000, 2)
	require.Len(t, result.ToolCalls, 1)
	assert.Empty(t, result.DynamicCtx)
}
