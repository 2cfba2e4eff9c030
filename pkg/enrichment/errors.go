package enrichment

import "fmt"

// BudgetExhaustedError names a tool whose per-request budget is spent, for
// callers that want to distinguish it from a generic tool failure. The
// Registry's pre-check does not return this type: it reports the condition
// as a ToolResult with error kind "budget". Local recovery: the offending
// action is dropped and the iteration continues.
type BudgetExhaustedError struct {
	Tool string
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("tool %q: budget exhausted", e.Tool)
}

// ToolTimeoutError mirrors a per-call deadline expiring. Local recovery:
// the result is dropped and that call's budget slot is restored (done by
// pkg/tools.Registry itself).
type ToolTimeoutError struct {
	Tool string
}

func (e *ToolTimeoutError) Error() string {
	return fmt.Sprintf("tool %q: timed out", e.Tool)
}

// ToolError wraps a tool body's own reported failure. Local recovery:
// record the failure, do not retry within the iteration.
type ToolError struct {
	Tool    string
	Kind    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q: %s: %s", e.Tool, e.Kind, e.Message)
}

// PlannerOutputInvalidError means the Planner's structured output could not
// be parsed. Local recovery: treated as an empty plan for this iteration,
// which will surface as lack of progress if it keeps happening.
type PlannerOutputInvalidError struct {
	Cause error
}

func (e *PlannerOutputInvalidError) Error() string {
	return fmt.Sprintf("planner output invalid: %v", e.Cause)
}

func (e *PlannerOutputInvalidError) Unwrap() error { return e.Cause }

// ValidatorOutputInvalidError means the Validator's structured output could
// not be parsed even after one retry. Fatal: the Validator is the engine's
// only arbiter of completeness, so the run routes to escalation with
// stop_reason=validator_parse_error.
type ValidatorOutputInvalidError struct {
	Cause error
}

func (e *ValidatorOutputInvalidError) Error() string {
	return fmt.Sprintf("validator output invalid after retry: %v", e.Cause)
}

func (e *ValidatorOutputInvalidError) Unwrap() error { return e.Cause }

// GlobalTokenLimitError means the global token budget was exceeded partway
// through an iteration. Terminal: the loop stops and routes to escalation.
type GlobalTokenLimitError struct {
	TokensUsed  int
	TokenBudget int
}

func (e *GlobalTokenLimitError) Error() string {
	return fmt.Sprintf("global token budget exceeded: %d/%d", e.TokensUsed, e.TokenBudget)
}

// DeadlineExceededError means the host's cancellation signal fired.
// Terminal: in-flight work is discarded and no tokens are charged for it.
type DeadlineExceededError struct {
	Cause error
}

func (e *DeadlineExceededError) Error() string {
	return fmt.Sprintf("deadline exceeded: %v", e.Cause)
}

func (e *DeadlineExceededError) Unwrap() error { return e.Cause }
