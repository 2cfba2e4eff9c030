// Package enrichment implements the Loop Driver: the fold that threads one
// request's EnrichmentState through repeated Planner → Executor → Validator
// → Router passes until a terminal outcome is reached.
package enrichment

import (
	"context"
	"fmt"

	"rcve/pkg/config"
	"rcve/pkg/eventlog"
	"rcve/pkg/executor"
	"rcve/pkg/logx"
	"rcve/pkg/metrics"
	"rcve/pkg/planner"
	"rcve/pkg/proto"
	"rcve/pkg/router"
	"rcve/pkg/tools"
	"rcve/pkg/validator"
)

// Engine wires one Planner, Executor, and Validator together with the
// engine-wide configuration defaults. It is safe to share across concurrent
// requests: Run builds a fresh tools.Registry and EnrichmentState per call,
// per §5's single-request-per-instance model.
type Engine struct {
	planner   *planner.Planner
	executor  *executor.Executor
	validator *validator.Validator
	baseCfg   config.Config
	deps      tools.Deps
	recorder  *metrics.Recorder
	spans     *eventlog.Writer
}

// New builds an Engine. recorder and spans may be nil — Run simply skips
// metric/span emission when they are, which keeps the package unit-testable
// without standing up Prometheus or a log directory.
func New(p *planner.Planner, e *executor.Executor, v *validator.Validator, cfg config.Config, deps tools.Deps, recorder *metrics.Recorder, spans *eventlog.Writer) *Engine {
	return &Engine{planner: p, executor: e, validator: v, baseCfg: cfg, deps: deps, recorder: recorder, spans: spans}
}

// Outcome is the Loop Driver's terminal result: exactly one of Completed or
// Escalation is set, mirroring the Router's two terminal destinations.
type Outcome struct {
	Completed  *proto.CompletedOutcome
	Escalation *proto.EscalationOutcome
}

// Run drives one request from RunInput to a terminal Outcome. Every failure
// mode the design names (budget exhaustion, validator parse failure, token
// limit, a cancelled context, ...) is expressed as an EscalationOutcome; a
// cancelled context becomes stop_reason=deadline. The returned error is
// always nil.
func (eng *Engine) Run(ctx context.Context, in proto.RunInput) (Outcome, error) {
	log := logx.NewLogger(in.RequestID)
	cfg := eng.baseCfg.Merge(in.Config)
	log.Info("enrichment run started: token_budget=%d max_iterations=%d", cfg.TokenBudget, cfg.MaxIterations)

	registry := tools.NewRegistry(cfg.ToolBudgets, cfg.ToolTimeoutSeconds).WithDeps(eng.deps)

	request := proto.Request{
		RawText:     in.RawRequest,
		WebsiteURL:  in.WebsiteURL,
		Attachments: in.Attachments,
		ClientID:    in.ClientID,
	}
	staticCtx := resolveStaticContext(in)

	state := proto.EnrichmentState{
		Iteration:   0,
		DynamicCtx:  proto.DynamicContext{},
		ToolUsage:   registry.Usage(),
		TokenBudget: cfg.TokenBudget,
	}

	phase := PhaseSeeding

	valResult, err := eng.validate(ctx, validator.Input{
		Request:        request,
		StaticContext:  staticCtx,
		DynamicContext: state.DynamicCtx,
		History:        nil,
		Iteration:      0,
	})
	eng.writeSpan(&eventlog.Span{RequestID: in.RequestID, Kind: eventlog.KindValidatorPass, Iteration: 0, OK: err == nil})
	if err != nil {
		log.Error("validator unparseable on iteration 0, escalating: %v", err)
		return eng.finish(log, in, state, proto.StopValidatorParseError, 0), nil
	}
	eng.transitionPhase(&phase, PhaseValidating)

	missingAtStart := len(valResult.Missing)
	state.Category = valResult.Category
	state.Subcategories = valResult.Subcategories
	state.LastMissing = valResult.Missing
	state.LastConfidence = valResult.Confidence

	missingBefore := valResult.Missing
	lastComplete := valResult.Complete
	noProgressFlag := false

	for {
		decision, reason := router.Route(router.Input{
			Iteration:         state.Iteration,
			MaxIterations:     cfg.MaxIterations,
			TokensUsed:        state.TokensUsed,
			TokenBudget:       cfg.TokenBudget,
			NoProgress:        noProgressFlag,
			ValidatorComplete: lastComplete,
			Category:          state.Category,
		})

		switch decision {
		case router.DecisionArchitect:
			eng.transitionPhase(&phase, PhaseArchitect)
			log.Info("routing to architect at iteration %d: reason=%s", state.Iteration, reason)
			return eng.finish(log, in, state, reason, missingAtStart), nil
		case router.DecisionEscalate:
			eng.transitionPhase(&phase, PhaseEscalated)
			log.Info("escalating at iteration %d: reason=%s", state.Iteration, reason)
			return eng.finish(log, in, state, reason, missingAtStart), nil
		}

		eng.transitionPhase(&phase, PhaseEnriching)

		if err := ctx.Err(); err != nil {
			log.Warn("context cancelled at iteration %d: %v", state.Iteration, err)
			state.StopReason = proto.StopDeadline
			return eng.finish(log, in, state, proto.StopDeadline, missingAtStart), nil
		}

		state.Iteration++

		plan, err := eng.planner.Plan(ctx, planner.Input{
			RawRequest:     request.RawText,
			WebsiteURL:     request.WebsiteURL,
			StaticContext:  staticCtx,
			LastMissing:    missingBefore,
			AvailableTools: availableTools(registry),
			DynamicContext: state.DynamicCtx,
			Iteration:      state.Iteration,
		})
		if err != nil {
			// PlannerOutputInvalid: treated as an empty plan for this
			// iteration rather than aborting the run.
			log.Warn("planner unparseable on iteration %d, proceeding with empty plan: %v", state.Iteration, err)
			plan = planner.Plan{}
		}

		execResult := eng.executor.Execute(ctx, plan, registry, state.DynamicCtx, state.TokensUsed, cfg.TokenBudget, state.Iteration)
		state.DynamicCtx = execResult.DynamicCtx
		state.TokensUsed += execResult.TokensUsed
		state.ToolUsage = registry.Usage()

		for _, tc := range execResult.ToolCalls {
			eng.writeSpan(&eventlog.Span{RequestID: in.RequestID, Kind: eventlog.KindToolCall, Iteration: state.Iteration, Tool: tc.Tool, OK: tc.OK})
		}

		valResult, err = eng.validate(ctx, validator.Input{
			Request:        request,
			StaticContext:  staticCtx,
			DynamicContext: state.DynamicCtx,
			History:        state.History,
			Iteration:      state.Iteration,
		})
		eng.writeSpan(&eventlog.Span{RequestID: in.RequestID, Kind: eventlog.KindValidatorPass, Iteration: state.Iteration, OK: err == nil})
		if err != nil {
			log.Error("validator unparseable on iteration %d, escalating: %v", state.Iteration, err)
			return eng.finish(log, in, state, proto.StopValidatorParseError, missingAtStart), nil
		}
		eng.transitionPhase(&phase, PhaseValidating)

		missingAfter := valResult.Missing
		noProgressFlag = noProgress(missingBefore, missingAfter)

		state.History = append(state.History, proto.IterationRecord{
			Iteration:       state.Iteration,
			PlanActionCount: len(plan.Actions),
			ToolCalls:       execResult.ToolCalls,
			TokensUsed:      execResult.TokensUsed,
			MissingBefore:   missingBefore,
			MissingAfter:    missingAfter,
		})
		eng.writeSpan(&eventlog.Span{RequestID: in.RequestID, Kind: eventlog.KindIteration, Iteration: state.Iteration, OK: true})

		state.Category = valResult.Category
		state.Subcategories = valResult.Subcategories
		state.LastMissing = missingAfter
		state.LastConfidence = valResult.Confidence

		missingBefore = missingAfter
		lastComplete = valResult.Complete
	}
}

// validate wraps one Validator pass with the retry-once-then-escalate
// policy: a second consecutive unparseable response is fatal for the run.
func (eng *Engine) validate(ctx context.Context, in validator.Input) (validator.Result, error) {
	result, err := eng.validator.Validate(ctx, in)
	if err == nil {
		return result, nil
	}

	result, retryErr := eng.validator.Validate(ctx, in)
	if retryErr != nil {
		return validator.Result{}, &ValidatorOutputInvalidError{Cause: fmt.Errorf("first: %w; retry: %v", err, retryErr)}
	}
	return result, nil
}

// transitionPhase advances phase to to, enforcing the Loop Driver's state
// machine (see fsm.go). An invalid transition here means Run's control flow
// itself has drifted from the documented states, not a request-level
// failure, so it panics rather than escalating.
func (eng *Engine) transitionPhase(phase *Phase, to Phase) {
	if !isValidTransition(*phase, to) {
		panic(fmt.Sprintf("enrichment: invalid phase transition %s -> %s", *phase, to))
	}
	*phase = to
}

func availableTools(registry *tools.Registry) []planner.AvailableTool {
	names := tools.Names()
	usage := registry.Usage()
	out := make([]planner.AvailableTool, 0, len(names))
	for _, name := range names {
		entry, ok := usage[name]
		if !ok {
			continue
		}
		out = append(out, planner.AvailableTool{Name: name, Remaining: entry.MaxCalls - entry.CallsMade})
	}
	return out
}

func resolveStaticContext(in proto.RunInput) proto.StaticContext {
	sc := in.StaticContext
	if sc.WebsiteContent == "" {
		sc.WebsiteContent = in.WebsiteContent
	}
	if len(sc.FileSummaries) == 0 {
		sc.FileSummaries = in.FileSummaries
	}
	return sc
}

func (eng *Engine) writeSpan(span *eventlog.Span) {
	if eng.spans == nil {
		return
	}
	_ = eng.spans.WriteSpan(span)
}

// finish builds the terminal Outcome for reason, records metrics, and
// returns it. reason == StopComplete produces a CompletedOutcome; every
// other reason produces an EscalationOutcome.
func (eng *Engine) finish(log *logx.Logger, in proto.RunInput, state proto.EnrichmentState, reason proto.StopReason, missingAtStart int) Outcome {
	state.StopReason = reason
	enriched := proto.RenderEnrichedContext(state.DynamicCtx)

	log.Info("run finished: iterations=%d reason=%s tokens_used=%d", state.Iteration, reason, state.TokensUsed)

	toolCalls := make(map[string]int, len(state.ToolUsage))
	for name, entry := range state.ToolUsage {
		toolCalls[name] = entry.CallsMade
	}

	answerRate := metrics.AnswerRate(missingAtStart, len(state.LastMissing))
	finalConfidence := metrics.FinalConfidence(state.DynamicCtx)

	if eng.recorder != nil {
		eng.recorder.ObserveRun(metrics.Outcome{
			Category:        state.Category,
			Iterations:      state.Iteration,
			Success:         reason == proto.StopComplete,
			StopReason:      reason,
			TokensUsed:      state.TokensUsed,
			AnswerRate:      answerRate,
			FinalConfidence: finalConfidence,
			ToolCalls:       toolCalls,
		})
	}

	if reason == proto.StopComplete {
		return Outcome{Completed: &proto.CompletedOutcome{
			RequestID:       in.RequestID,
			Category:        state.Category,
			Subcategories:   state.Subcategories,
			EnrichedContext: enriched,
			ArchitectBrief:  RenderForArchitect(state.DynamicCtx),
			History:         state.History,
			TokensUsed:      state.TokensUsed,
			Iterations:      state.Iteration,
		}}
	}

	return Outcome{Escalation: &proto.EscalationOutcome{
		RequestID:        in.RequestID,
		Category:         state.Category,
		Subcategories:    state.Subcategories,
		StopReason:       reason,
		MissingQuestions: state.LastMissing,
		EnrichedContext:  enriched,
		History:          state.History,
		TokensUsed:       state.TokensUsed,
		Iterations:       state.Iteration,
	}}
}
