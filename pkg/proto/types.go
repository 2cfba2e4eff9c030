// Package proto defines the wire-level data model the RCVE engine is entered
// and exited with: requests, the static context upstream collaborators
// supply, the outcomes the engine hands downstream, and the per-tool result
// envelope every tool in pkg/tools returns.
package proto

import "rcve/pkg/config"

// Category is one of the ten fixed request classifications the Validator must
// assign. "unclear" on iteration 0 is a terminal signal to the Router.
type Category string

const (
	CategoryBlogPost          Category = "blog_post"
	CategorySEOOptimization   Category = "seo_optimization"
	CategoryBugFix            Category = "bug_fix"
	CategoryContentUpdate     Category = "content_update"
	CategoryBusinessInfoUpdate Category = "business_info_update"
	CategoryNewPage           Category = "new_page"
	CategoryFormChanges       Category = "form_changes"
	CategoryDesignChanges     Category = "design_changes"
	CategoryFeatureRequest    Category = "feature_request"
	CategoryUnclear           Category = "unclear"
)

// Categories lists every valid Category, used by the Validator to reject an
// LLM-produced category it doesn't recognize (falling back to CategoryUnclear).
var Categories = []Category{
	CategoryBlogPost, CategorySEOOptimization, CategoryBugFix, CategoryContentUpdate,
	CategoryBusinessInfoUpdate, CategoryNewPage, CategoryFormChanges, CategoryDesignChanges,
	CategoryFeatureRequest, CategoryUnclear,
}

// Valid reports whether c is one of the ten fixed categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// StopReason is the categorical terminal state recorded on EnrichmentState.
type StopReason string

const (
	StopComplete             StopReason = "complete"
	StopUnclear              StopReason = "unclear"
	StopMaxIterations        StopReason = "max_iterations"
	StopTokenLimit           StopReason = "token_limit"
	StopNoProgress           StopReason = "no_progress"
	StopDeadline             StopReason = "deadline"
	StopValidatorParseError  StopReason = "validator_parse_error"
)

// File is one client-supplied attachment awaiting tool-driven extraction.
type File struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	URL      string `json:"url,omitempty"`
	Bytes    []byte `json:"-"` // never serialized; populated by the upstream collaborator in-process
}

// FileSummary is an upstream-produced extract for one attachment.
type FileSummary struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Request is the immutable input for one run: the client's free-text ask plus
// whatever upstream collaborators already resolved about where it targets.
type Request struct {
	RawText    string  `json:"raw_request"`
	WebsiteURL *string `json:"website_url,omitempty"`
	Attachments []File `json:"attachments,omitempty"`
	ClientID   string  `json:"client_id"`
}

// StaticContext is the immutable, pre-enrichment input populated by upstream
// collaborators: client profile, rendered site summary, file extracts.
type StaticContext struct {
	ClientProfile   map[string]any `json:"client_profile"`
	WebsiteContent  string         `json:"website_content,omitempty"`
	FileSummaries   []FileSummary  `json:"file_summaries,omitempty"`
}

// Observation is one value accumulated in DynamicContext: what a tool found,
// which tool found it, and how confident that tool was in the finding.
type Observation struct {
	Value      any     `json:"value"`
	SourceTool string  `json:"source_tool"`
	Confidence float64 `json:"confidence"`
	Iteration  int     `json:"iteration"` // iteration the observation was written at, for recency tie-breaks
}

// DynamicContext grows monotonically across iterations: semantic key to
// Observation. Keys are appended only; a key's value may be overwritten by a
// later, higher-confidence observation (ties broken by iteration recency) but
// the key itself is never removed — see EnrichmentState invariant 6.
type DynamicContext map[string]Observation

// Clone returns a shallow copy, used by the Loop Driver's fold so each
// iteration writes a new map rather than mutating the previous snapshot.
func (d DynamicContext) Clone() DynamicContext {
	out := make(DynamicContext, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Merge folds an observation into the context under the set-once /
// overwrite-by-confidence-or-recency rule, returning a new map.
func (d DynamicContext) Merge(key string, obs Observation) DynamicContext {
	out := d.Clone()
	existing, ok := out[key]
	if !ok || obs.Confidence > existing.Confidence ||
		(obs.Confidence == existing.Confidence && obs.Iteration >= existing.Iteration) {
		out[key] = obs
	}
	return out
}

// ToolCallOutcome records one executed action's disposition for the history.
type ToolCallOutcome struct {
	Tool              string         `json:"tool"`
	QuestionAnswered  string         `json:"question_it_answers,omitempty"`
	Params            map[string]any `json:"params"`
	OK                bool           `json:"ok"`
	ObservationsAdded []string       `json:"observations_added,omitempty"`
	EstTokens         int            `json:"est_tokens"`
	ErrorKind         string         `json:"error_kind,omitempty"`
	ErrorMessage      string         `json:"error_message,omitempty"`
}

// IterationRecord is one full enrichment pass: the plan issued, what the
// Executor actually ran, and the missing-question delta the Validator
// observed as a result.
type IterationRecord struct {
	Iteration       int                `json:"iteration"` // 1-based within the enrichment loop
	PlanActionCount int                `json:"plan_action_count"`
	ToolCalls       []ToolCallOutcome  `json:"tool_calls"`
	TokensUsed      int                `json:"tokens_used"`
	MissingBefore   []string           `json:"missing_before"`
	MissingAfter    []string           `json:"missing_after"`
}

// ToolUsageEntry tracks one tool's budget consumption for a single request.
type ToolUsageEntry struct {
	CallsMade int `json:"calls_made"`
	MaxCalls  int `json:"max_calls"`
}

// ToolUsage maps tool name to its per-request budget state.
type ToolUsage map[string]ToolUsageEntry

// Clone returns a shallow copy for the Loop Driver's immutable fold.
func (u ToolUsage) Clone() ToolUsage {
	out := make(ToolUsage, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}

// EnrichmentState is the full per-request record threaded through the Loop
// Driver's fold. It is never mutated in place once published by one fold
// step; each step's output is the next step's input.
type EnrichmentState struct {
	Iteration      int                `json:"iteration"`
	History        []IterationRecord  `json:"history"`
	DynamicCtx     DynamicContext     `json:"dynamic_context"`
	ToolUsage      ToolUsage          `json:"tool_usage"`
	TokensUsed     int                `json:"tokens_used"`
	TokenBudget    int                `json:"token_budget"`
	StopReason     StopReason         `json:"stop_reason,omitempty"`
	LastMissing    []string           `json:"last_missing"`
	LastConfidence float64            `json:"last_confidence"`
	Category       Category           `json:"category"`
	Subcategories  []Category         `json:"subcategories,omitempty"`
}

// RunInput is the fully populated entry record the engine is invoked with.
type RunInput struct {
	RequestID      string            `json:"request_id"`
	ClientID       string            `json:"client_id"`
	RawRequest     string            `json:"raw_request"`
	WebsiteURL     *string           `json:"website_url,omitempty"`
	Attachments    []File            `json:"attachments,omitempty"`
	StaticContext  StaticContext     `json:"static_context"`
	WebsiteContent string            `json:"website_content,omitempty"`
	FileSummaries  []FileSummary     `json:"file_summaries,omitempty"`
	Config         config.Overrides  `json:"-"`
}

// EnrichedContextEntry is one flattened dynamic-context row for the outbound
// records, ordered for deterministic serialization.
type EnrichedContextEntry struct {
	Key        string  `json:"key"`
	Value      any     `json:"value"`
	SourceTool string  `json:"source_tool"`
	Confidence float64 `json:"confidence"`
}

// CompletedOutcome is emitted when the Router reaches ARCHITECT.
type CompletedOutcome struct {
	RequestID       string                  `json:"request_id"`
	Category        Category                `json:"category"`
	Subcategories   []Category              `json:"subcategories,omitempty"`
	EnrichedContext []EnrichedContextEntry  `json:"enriched_context"`
	ArchitectBrief  string                  `json:"architect_brief"`
	History         []IterationRecord       `json:"history"`
	TokensUsed      int                     `json:"tokens_used"`
	Iterations      int                     `json:"iterations"`
}

// EscalationOutcome is emitted on any non-complete terminal stop.
type EscalationOutcome struct {
	RequestID        string                  `json:"request_id"`
	Category         Category                `json:"category"`
	Subcategories    []Category              `json:"subcategories,omitempty"`
	StopReason       StopReason              `json:"stop_reason"`
	MissingQuestions []string                `json:"missing_questions"`
	EnrichedContext  []EnrichedContextEntry  `json:"enriched_context"`
	History          []IterationRecord       `json:"history"`
	TokensUsed       int                     `json:"tokens_used"`
	Iterations       int                     `json:"iterations"`
}

// ToolResultErrorKind enumerates the error taxonomy a tool body may report.
type ToolResultErrorKind string

const (
	ToolErrorTimeout      ToolResultErrorKind = "timeout"
	ToolErrorHTTP         ToolResultErrorKind = "http"
	ToolErrorParse        ToolResultErrorKind = "parse"
	ToolErrorBudget       ToolResultErrorKind = "budget"
	ToolErrorInvalidInput ToolResultErrorKind = "invalid_input"
)

// ToolResultError is the structured error payload a ToolResult may carry.
type ToolResultError struct {
	Kind    ToolResultErrorKind `json:"kind"`
	Message string              `json:"message"`
}

// ToolResult is the uniform result envelope every tool invocation returns.
type ToolResult struct {
	OK               bool               `json:"ok"`
	Observations     map[string]any     `json:"observations,omitempty"`
	ConfidenceByKey  map[string]float64 `json:"confidence_by_key,omitempty"`
	EstTokens        int                `json:"est_tokens"`
	Error            *ToolResultError   `json:"error,omitempty"`
}

// DefaultObservationConfidence is applied to an observation whose tool did
// not specify a per-key confidence.
const DefaultObservationConfidence = 0.7

// RenderEnrichedContext flattens a DynamicContext into the ordered, JSON-safe
// slice both outcome records carry. Key order is sorted for determinism.
func RenderEnrichedContext(ctx DynamicContext) []EnrichedContextEntry {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sortStrings(keys)

	out := make([]EnrichedContextEntry, 0, len(keys))
	for _, k := range keys {
		obs := ctx[k]
		out = append(out, EnrichedContextEntry{
			Key:        k,
			Value:      obs.Value,
			SourceTool: obs.SourceTool,
			Confidence: obs.Confidence,
		})
	}
	return out
}

// sortStrings is a tiny insertion sort to avoid importing sort for one call
// site; kept local since the slices here are small (one entry per dynamic key).
func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
