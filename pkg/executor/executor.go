// Package executor implements the Executor: the only component allowed to
// dispatch tool calls. It takes the Planner's advisory plan, drops anything
// the Planner should not have proposed, runs the rest through the Tool
// Registry, and folds results into the dynamic context.
package executor

import (
	"context"

	"rcve/pkg/planner"
	"rcve/pkg/proto"
	"rcve/pkg/tools"
)

// ExecutionMode selects sequential (default) or concurrent action dispatch
// within one iteration. Concurrent mode is only safe for actions the caller
// already knows are independent (§5's three conditions); this package
// enforces the budget/ordering discipline either way.
type ExecutionMode int

const (
	ExecuteSequential ExecutionMode = iota
	ExecuteConcurrent
)

// Result is everything one Execute call produced: the dynamic context with
// this plan's observations merged in, the tokens it spent, and a full per-action
// outcome list in Planner-issued order for the IterationRecord.
type Result struct {
	DynamicCtx proto.DynamicContext
	ToolCalls  []proto.ToolCallOutcome
	TokensUsed int
}

// Executor dispatches one plan per call; it holds no state across
// iterations — everything it needs arrives in Execute's arguments.
type Executor struct {
	Mode ExecutionMode
}

// New builds an Executor running sequentially by default.
func New() *Executor {
	return &Executor{Mode: ExecuteSequential}
}

// Execute runs plan against registry, starting from dynamicCtx and the
// tokens already spent this request (tokensUsedSoFar, global across all
// iterations so far), stopping early once the global budget is reached.
// iteration is the 1-based enrichment pass this plan belongs to, recorded
// on every Observation for recency tie-breaks.
func (e *Executor) Execute(
	ctx context.Context,
	plan planner.Plan,
	registry *tools.Registry,
	dynamicCtx proto.DynamicContext,
	tokensUsedSoFar, tokenBudget, iteration int,
) Result {
	if e.Mode == ExecuteConcurrent {
		return e.executeConcurrent(ctx, plan, registry, dynamicCtx, tokensUsedSoFar, tokenBudget, iteration)
	}
	return e.executeSequential(ctx, plan, registry, dynamicCtx, tokensUsedSoFar, tokenBudget, iteration)
}

func (e *Executor) executeSequential(
	ctx context.Context,
	plan planner.Plan,
	registry *tools.Registry,
	dynamicCtx proto.DynamicContext,
	tokensUsedSoFar, tokenBudget, iteration int,
) Result {
	outcomes := make([]proto.ToolCallOutcome, 0, len(plan.Actions))
	spent := 0

	for _, action := range plan.Actions {
		if !registry.Available(action.Tool) {
			outcomes = append(outcomes, droppedOutcome(action))
			continue
		}
		if tokensUsedSoFar+spent >= tokenBudget {
			// Global budget already exhausted by a prior action this
			// iteration (or a prior iteration) — stop dispatching, but the
			// overshoot from the action that crossed it stands.
			break
		}

		outcome, obs, tokens := runAction(ctx, registry, action, iteration)
		outcomes = append(outcomes, outcome)
		spent += tokens
		for key, ob := range obs {
			dynamicCtx = dynamicCtx.Merge(key, ob)
		}
	}

	return Result{DynamicCtx: dynamicCtx, ToolCalls: outcomes, TokensUsed: spent}
}

// executeConcurrent fans out every retained action at once via a worker
// pool bounded by the number of actions, relying on the Registry's mutex-
// protected budget counters for safety (§5 condition a) and merging
// results back in Planner-issued order regardless of completion order
// (§5 condition c). The token-budget recheck (§5 condition b) happens once
// up front rather than between actions, since they are in flight together
// — a documented simplification of the sequential mode's per-action check.
func (e *Executor) executeConcurrent(
	ctx context.Context,
	plan planner.Plan,
	registry *tools.Registry,
	dynamicCtx proto.DynamicContext,
	tokensUsedSoFar, tokenBudget, iteration int,
) Result {
	slots := make([]actionSlot, len(plan.Actions))
	if tokensUsedSoFar >= tokenBudget {
		for i, action := range plan.Actions {
			slots[i] = actionSlot{outcome: droppedOutcome(action)}
		}
		return collectConcurrent(slots, dynamicCtx)
	}

	done := make(chan struct{}, len(plan.Actions))
	for i, action := range plan.Actions {
		i, action := i, action
		if !registry.Available(action.Tool) {
			slots[i] = actionSlot{outcome: droppedOutcome(action)}
			done <- struct{}{}
			continue
		}
		go func() {
			outcome, obs, tokens := runAction(ctx, registry, action, iteration)
			slots[i] = actionSlot{outcome: outcome, obs: obs, tokens: tokens}
			done <- struct{}{}
		}()
	}
	for range plan.Actions {
		<-done
	}

	return collectConcurrent(slots, dynamicCtx)
}

// actionSlot holds one concurrently-executed action's outcome, keyed by its
// Planner-assigned index so results can be merged back in plan order.
type actionSlot struct {
	outcome proto.ToolCallOutcome
	obs     map[string]proto.Observation
	tokens  int
}

func collectConcurrent(slots []actionSlot, dynamicCtx proto.DynamicContext) Result {
	outcomes := make([]proto.ToolCallOutcome, 0, len(slots))
	spent := 0
	for _, s := range slots {
		outcomes = append(outcomes, s.outcome)
		spent += s.tokens
		for key, ob := range s.obs {
			dynamicCtx = dynamicCtx.Merge(key, ob)
		}
	}
	return Result{DynamicCtx: dynamicCtx, ToolCalls: outcomes, TokensUsed: spent}
}

// runAction invokes one tool through the registry and translates the
// result into a ToolCallOutcome plus the observations it contributed.
func runAction(
	ctx context.Context,
	registry *tools.Registry,
	action planner.Action,
	iteration int,
) (proto.ToolCallOutcome, map[string]proto.Observation, int) {
	result, err := registry.Call(ctx, action.Tool, action.Params)
	if err != nil {
		return proto.ToolCallOutcome{
			Tool:             action.Tool,
			QuestionAnswered: action.QuestionAnswered,
			Params:           action.Params,
			OK:               false,
			ErrorKind:        string(proto.ToolErrorInvalidInput),
			ErrorMessage:     err.Error(),
		}, nil, 0
	}

	if !result.OK {
		outcome := proto.ToolCallOutcome{
			Tool:             action.Tool,
			QuestionAnswered: action.QuestionAnswered,
			Params:           action.Params,
			OK:               false,
		}
		if result.Error != nil {
			outcome.ErrorKind = string(result.Error.Kind)
			outcome.ErrorMessage = result.Error.Message
		}
		return outcome, nil, 0
	}

	obs := make(map[string]proto.Observation, len(result.Observations))
	keys := make([]string, 0, len(result.Observations))
	for key, value := range result.Observations {
		confidence := proto.DefaultObservationConfidence
		if c, ok := result.ConfidenceByKey[key]; ok {
			confidence = c
		}
		obs[key] = proto.Observation{
			Value:      value,
			SourceTool: action.Tool,
			Confidence: confidence,
			Iteration:  iteration,
		}
		keys = append(keys, key)
	}

	return proto.ToolCallOutcome{
		Tool:              action.Tool,
		QuestionAnswered:  action.QuestionAnswered,
		Params:            action.Params,
		OK:                true,
		ObservationsAdded: keys,
		EstTokens:         result.EstTokens,
	}, obs, result.EstTokens
}

// droppedOutcome records a Planner-proposed action the Executor refused to
// run because its tool name is unknown or has zero remaining budget — the
// plan itself is not rejected, only the offending action.
func droppedOutcome(action planner.Action) proto.ToolCallOutcome {
	return proto.ToolCallOutcome{
		Tool:             action.Tool,
		QuestionAnswered: action.QuestionAnswered,
		Params:           action.Params,
		OK:               false,
		ErrorKind:        string(proto.ToolErrorBudget),
		ErrorMessage:     "dropped: unknown tool or zero remaining budget",
	}
}
