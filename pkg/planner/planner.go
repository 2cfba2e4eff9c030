// Package planner implements the Planner component: given the current
// enrichment state, it asks an LLM to emit an advisory plan naming which
// tools to call with which parameters. The Planner never calls a tool
// itself — pkg/executor is the only component allowed to dispatch
// side-effectful tool calls, and it re-validates everything the Planner
// proposes before running it.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"rcve/pkg/config"
	"rcve/pkg/contextmgr"
	"rcve/pkg/llm"
	"rcve/pkg/proto"
	"rcve/pkg/tools"
)

// toolName is the synthetic tool definition the Planner forces the LLM to
// call, the same way the teacher's agents force structured output via
// CompletionRequest.Tools + ToolChoice rather than parsing free text.
const toolName = "emit_enrichment_plan"

// Action is one proposed tool call, advisory until pkg/executor validates
// and runs it.
type Action struct {
	Tool             string         `json:"tool"`
	QuestionAnswered string         `json:"question_it_answers"`
	Params           map[string]any `json:"params"`
	Rationale        string         `json:"rationale"`
}

// Plan is the Planner's full output for one iteration.
type Plan struct {
	Actions        []Action `json:"actions"`
	EstTotalTokens int      `json:"est_total_tokens"`
}

// AvailableTool describes one tool the Planner may name, with the budget
// remaining so it can avoid proposing a call it already knows is futile.
type AvailableTool struct {
	Name      string
	Remaining int
}

// Input is everything the Planner is given to produce a Plan. Both the raw
// request and the dynamic context accumulated so far are included so the
// LLM can avoid proposing a call that would just re-derive what's already
// known.
type Input struct {
	RawRequest     string
	WebsiteURL     *string
	StaticContext  proto.StaticContext
	LastMissing    []string
	AvailableTools []AvailableTool
	DynamicContext proto.DynamicContext
	Iteration      int
}

// Planner drives one llm.LLMClient.Complete call per iteration. It is
// transport-agnostic: constructed with an llm.LLMClient, it never imports a
// specific provider package.
type Planner struct {
	client  llm.LLMClient
	model   config.ModelConfig
	trimmer *contextmgr.Trimmer
}

// New builds a Planner bound to one LLM client and its model configuration.
// trimmer may be nil, in which case static context is included untrimmed.
func New(client llm.LLMClient, model config.ModelConfig, trimmer *contextmgr.Trimmer) *Planner {
	return &Planner{client: client, model: model, trimmer: trimmer}
}

// Plan asks the LLM for one EnrichmentPlan. A returned error means the
// output could not be parsed into a Plan at all (ValidatorOutputInvalid's
// sibling at the Planner layer); the caller treats that as an empty plan
// for this iteration per the error-handling design, rather than aborting
// the run.
func (p *Planner) Plan(ctx context.Context, in Input) (Plan, error) {
	req := llm.CompletionRequest{
		Messages: []llm.CompletionMessage{
			llm.NewSystemMessage(systemPrompt()),
			llm.NewUserMessage(renderUserPrompt(in, p.trimmer)),
		},
		Tools:       []tools.ToolDefinition{planDefinition()},
		ToolChoice:  "any",
		MaxTokens:   p.model.MaxTokens,
		Temperature: p.model.Temperature,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = 2048
	}

	resp, err := p.client.Complete(ctx, req)
	if err != nil {
		return Plan{}, fmt.Errorf("planner completion: %w", err)
	}

	for _, call := range resp.ToolCalls {
		if call.Name != toolName {
			continue
		}
		return decodePlan(call.Parameters)
	}
	return Plan{}, fmt.Errorf("planner: no %s tool call in response", toolName)
}

func decodePlan(params map[string]any) (Plan, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Plan{}, fmt.Errorf("planner: re-encode tool call parameters: %w", err)
	}
	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return Plan{}, fmt.Errorf("planner: decode plan: %w", err)
	}
	return plan, nil
}

func systemPrompt() string {
	return "You are the Planner in a context-gathering engine for website change requests. " +
		"Given outstanding missing questions and the tools still available, propose an ordered " +
		"list of tool calls that could answer them. You are advisory only: a deterministic " +
		"executor will drop any action naming a tool with zero remaining budget or an unknown " +
		"tool, so do not bother proposing those. Never propose a field not implied by the missing " +
		"questions, and never schedule a tool call to resolve something only the client can decide " +
		"(preferences like target keywords or a preferred colour) — leave those in the missing list " +
		"instead. Always call " + toolName + " with your answer."
}

func renderUserPrompt(in Input, trimmer *contextmgr.Trimmer) string {
	websiteURL := "none"
	if in.WebsiteURL != nil && *in.WebsiteURL != "" {
		websiteURL = *in.WebsiteURL
	}

	staticContext := in.StaticContext
	if trimmer != nil {
		staticContext = trimmer.TrimStaticContext(staticContext)
	}

	sortedTools := make([]AvailableTool, len(in.AvailableTools))
	copy(sortedTools, in.AvailableTools)
	sort.Slice(sortedTools, func(i, j int) bool { return sortedTools[i].Name < sortedTools[j].Name })

	out := fmt.Sprintf("Iteration: %d\nRequest: %s\nWebsite URL: %s\n\nMissing questions:\n",
		in.Iteration, in.RawRequest, websiteURL)
	if len(in.LastMissing) == 0 {
		out += "  (none)\n"
	}
	for _, q := range in.LastMissing {
		out += "  - " + q + "\n"
	}

	out += "\nTools with remaining budget:\n"
	for _, t := range sortedTools {
		if t.Remaining <= 0 {
			continue
		}
		out += fmt.Sprintf("  - %s (remaining: %d)\n", t.Name, t.Remaining)
	}

	if staticContext.WebsiteContent != "" {
		out += "\nWebsite content summary: " + staticContext.WebsiteContent + "\n"
	}
	for _, fs := range staticContext.FileSummaries {
		out += fmt.Sprintf("\nFile %s summary: %s\n", fs.Filename, fs.Text)
	}

	out += "\nAlready known (do not re-derive):\n"
	keys := make([]string, 0, len(in.DynamicContext))
	for k := range in.DynamicContext {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		out += "  (nothing yet)\n"
	}
	for _, k := range keys {
		out += "  - " + k + "\n"
	}

	return out
}

func planDefinition() tools.ToolDefinition {
	return tools.ToolDefinition{
		Name:        toolName,
		Description: "Emit the ordered list of tool actions proposed for this iteration.",
		InputSchema: tools.InputSchema{
			Type: "object",
			Properties: map[string]tools.Property{
				"actions": {
					Type:        "array",
					Description: "Ordered list of proposed tool calls.",
					Items: &tools.Property{
						Type: "object",
						Properties: map[string]*tools.Property{
							"tool":                 {Type: "string", Description: "Name of the tool to call."},
							"question_it_answers":  {Type: "string", Description: "Which missing question this action targets."},
							"params":               {Type: "object", Description: "Tool-specific parameters."},
							"rationale":            {Type: "string", Description: "Why this action was chosen."},
						},
					},
				},
				"est_total_tokens": {
					Type:        "integer",
					Description: "Rough total token cost estimate for this plan.",
				},
			},
			Required: []string{"actions"},
		},
	}
}
