// Package validator implements the Validator: the engine's only arbiter of
// completeness. One structured-output LLM call decides whether a request
// carries enough information to hand to the architect, classifies it into
// one of ten fixed categories, and — when incomplete — lists what's still
// missing. The iteration-aware confidence thresholds are applied here, not
// trusted from the LLM's own judgement of "complete."
package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"rcve/pkg/config"
	"rcve/pkg/contextmgr"
	"rcve/pkg/llm"
	"rcve/pkg/proto"
	"rcve/pkg/tools"
)

const toolName = "emit_validation"

// rawVerdict is the shape the LLM is forced to emit; Complete here is the
// model's own opinion, before the iteration-aware threshold is applied.
type rawVerdict struct {
	Complete      bool     `json:"complete"`
	Missing       []string `json:"missing"`
	Confidence    float64  `json:"confidence"`
	Category      string   `json:"category"`
	Subcategories []string `json:"subcategories"`
}

// Result is the Validator's final, threshold-applied verdict.
type Result struct {
	Complete      bool
	Missing       []string
	Confidence    float64
	Category      proto.Category
	Subcategories []proto.Category
}

// Input bundles everything the Validator needs for one pass.
type Input struct {
	Request       proto.Request
	StaticContext proto.StaticContext
	DynamicContext proto.DynamicContext
	History        []proto.IterationRecord
	Iteration      int
}

// Validator drives one llm.LLMClient.Complete call per pass and applies
// config.Thresholds as a deterministic wrapper around the LLM's own
// complete/incomplete opinion.
type Validator struct {
	client     llm.LLMClient
	model      config.ModelConfig
	thresholds config.Thresholds
	trimmer    *contextmgr.Trimmer
}

// New builds a Validator bound to one LLM client, model, and acceptance
// curve (normally config.Config.ConfidenceThresholds for this run). trimmer
// may be nil, in which case static context is included untrimmed.
func New(client llm.LLMClient, model config.ModelConfig, thresholds config.Thresholds, trimmer *contextmgr.Trimmer) *Validator {
	return &Validator{client: client, model: model, thresholds: thresholds, trimmer: trimmer}
}

// Validate runs one pass. A returned error means the LLM output could not
// be parsed into a verdict at all — the caller (the Loop Driver) is
// responsible for the retry-once-then-escalate policy this maps to
// (ValidatorOutputInvalid in the error-handling design).
func (v *Validator) Validate(ctx context.Context, in Input) (Result, error) {
	req := llm.CompletionRequest{
		Messages: []llm.CompletionMessage{
			llm.NewSystemMessage(systemPrompt()),
			llm.NewUserMessage(renderUserPrompt(in, v.trimmer)),
		},
		Tools:       []tools.ToolDefinition{verdictDefinition()},
		ToolChoice:  "any",
		MaxTokens:   v.model.MaxTokens,
		Temperature: v.model.Temperature,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 1024
	}

	resp, err := v.client.Complete(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("validator completion: %w", err)
	}

	for _, call := range resp.ToolCalls {
		if call.Name != toolName {
			continue
		}
		raw, err := decodeVerdict(call.Parameters)
		if err != nil {
			return Result{}, err
		}
		return v.applyThreshold(raw, in.Iteration), nil
	}
	return Result{}, fmt.Errorf("validator: no %s tool call in response", toolName)
}

func decodeVerdict(params map[string]any) (rawVerdict, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return rawVerdict{}, fmt.Errorf("validator: re-encode tool call parameters: %w", err)
	}
	var raw rawVerdict
	if err := json.Unmarshal(data, &raw); err != nil {
		return rawVerdict{}, fmt.Errorf("validator: decode verdict: %w", err)
	}
	return raw, nil
}

// applyThreshold is the deterministic wrapper: the LLM's own "complete"
// opinion only stands if its confidence also clears the iteration-indexed
// threshold this run is entering.
func (v *Validator) applyThreshold(raw rawVerdict, iteration int) Result {
	threshold := v.thresholds.At(iteration)
	complete := raw.Complete && raw.Confidence >= threshold

	category := proto.Category(raw.Category)
	if !category.Valid() {
		category = proto.CategoryUnclear
	}

	subcats := make([]proto.Category, 0, len(raw.Subcategories))
	for _, s := range raw.Subcategories {
		c := proto.Category(s)
		if c.Valid() {
			subcats = append(subcats, c)
		}
	}

	return Result{
		Complete:      complete,
		Missing:       raw.Missing,
		Confidence:    raw.Confidence,
		Category:      category,
		Subcategories: subcats,
	}
}

func systemPrompt() string {
	categories := make([]string, len(proto.Categories))
	for i, c := range proto.Categories {
		categories[i] = string(c)
	}
	return "You are the Validator in a context-gathering engine for website change requests. " +
		"Decide whether the request plus everything gathered so far is enough for a developer " +
		"to act on confidently. Classify it into exactly one of these categories: " +
		strings.Join(categories, ", ") + ". Use \"unclear\" only when the request is not actually " +
		"a website change request at all (e.g. an account/billing message) — enrichment cannot " +
		"help those. List every concrete gap still blocking a developer as a missing question; " +
		"do not re-list something already answered in the known context. Always call " +
		toolName + " with your answer."
}

func renderUserPrompt(in Input, trimmer *contextmgr.Trimmer) string {
	out := fmt.Sprintf("Iteration: %d\nRequest: %s\n\n", in.Iteration, in.Request.RawText)

	staticContext := in.StaticContext
	if trimmer != nil {
		staticContext = trimmer.TrimStaticContext(staticContext)
	}

	if in.Request.WebsiteURL != nil && *in.Request.WebsiteURL != "" {
		out += "Website: " + *in.Request.WebsiteURL + "\n"
	}
	if staticContext.WebsiteContent != "" {
		out += "Website content summary: " + staticContext.WebsiteContent + "\n"
	}
	for _, fs := range staticContext.FileSummaries {
		if fs.Text != "" {
			out += fmt.Sprintf("Attachment %s: %s\n", fs.Filename, fs.Text)
		}
	}

	out += "\nKnown context:\n"
	keys := make([]string, 0, len(in.DynamicContext))
	for k := range in.DynamicContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		out += "  (nothing yet)\n"
	}
	for _, k := range keys {
		obs := in.DynamicContext[k]
		out += fmt.Sprintf("  - %s = %v (source: %s, confidence: %.2f)\n", k, obs.Value, obs.SourceTool, obs.Confidence)
	}

	out += "\nPrior questions already asked (do not repeat verbatim unless still unresolved):\n"
	if len(in.History) == 0 {
		out += "  (none)\n"
	}
	for _, rec := range in.History {
		for _, q := range rec.MissingBefore {
			out += "  - " + q + "\n"
		}
	}

	return out
}

func verdictDefinition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        toolName,
		Description: "Emit the completeness verdict for this validation pass.",
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"complete":   {Type: "boolean", Description: "Whether the request is ready for the architect."},
				"missing":    {Type: "array", Description: "Outstanding questions blocking completeness.", Items: &tools.Property{Type: "string"}},
				"confidence": {Type: "number", Description: "Confidence in this verdict, 0 to 1."},
				"category":   {Type: "string", Description: "Primary request category."},
				"subcategories": {
					Type:        "array",
					Description: "Any secondary categories that also apply.",
					Items:       &tools.Property{Type: "string"},
				},
			},
			Required: []string{"complete", "missing", "confidence", "category"},
		},
	}
}
