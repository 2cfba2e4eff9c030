// Package router implements the Router: a pure function with no I/O that
// inspects the state after each Validator pass and chooses the next edge.
// It is deliberately decoupled from pkg/validator and pkg/enrichment so the
// five-way decision tree can be tested exhaustively in isolation.
package router

import "rcve/pkg/proto"

// Decision is the edge the Router chose.
type Decision string

const (
	DecisionArchitect Decision = "architect"
	DecisionEnrich    Decision = "enrich"
	DecisionEscalate  Decision = "escalate"
)

// Input is everything Route needs, gathered by the caller from
// EnrichmentState and the latest Validator output. Iteration is the pass
// just completed (0 for the initial validation before any enrichment).
type Input struct {
	Iteration          int
	MaxIterations      int
	TokensUsed         int
	TokenBudget        int
	NoProgress         bool
	ValidatorComplete  bool
	Category           proto.Category
}

// Route applies the fixed priority order from the Component Design's Router
// contract. Order matters: S6 requires max_iterations to be checked before
// no_progress when both conditions hold at once.
func Route(in Input) (Decision, proto.StopReason) {
	if in.ValidatorComplete {
		return DecisionArchitect, proto.StopComplete
	}
	if in.Iteration == 0 && in.Category == proto.CategoryUnclear {
		return DecisionEscalate, proto.StopUnclear
	}
	if in.Iteration >= in.MaxIterations {
		return DecisionEscalate, proto.StopMaxIterations
	}
	if in.TokensUsed >= in.TokenBudget {
		return DecisionEscalate, proto.StopTokenLimit
	}
	if in.NoProgress {
		return DecisionEscalate, proto.StopNoProgress
	}
	return DecisionEnrich, ""
}
