package tools

import (
	"context"
	"fmt"
)

// ToolWebSearch is the catalog name for the web search tool.
const ToolWebSearch = "web_search"

// SearchResult is one hit from a SearchProvider.
type SearchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SearchProvider abstracts the backend a web_search call is dispatched to.
// Swappable so tests can inject a fixture provider without network access.
type SearchProvider interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// WebSearchTool answers open questions a site render and direct page fetches
// couldn't: competitor info, industry context, things not on the client's
// own site.
type WebSearchTool struct {
	provider   SearchProvider
	maxResults int
}

// NewWebSearchTool builds a web_search tool bound to provider.
func NewWebSearchTool(provider SearchProvider) *WebSearchTool {
	return &WebSearchTool{provider: provider, maxResults: 5}
}

// Name returns the catalog name.
func (t *WebSearchTool) Name() string { return ToolWebSearch }

// Definition describes the tool for the Planner's LLM.
func (t *WebSearchTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolWebSearch,
		Description: `Search the open web for information not available on the client's own site:
competitor pricing, industry terminology, general business context. Returns up to 5 results with
title, description, and URL.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "Search query string",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Exec runs a search and folds each hit into the dynamic context keyed by
// result index, so later tools can reference a specific hit.
func (t *WebSearchTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query is required and must be a string")
	}
	if t.provider == nil {
		return errResult("no search provider configured")
	}

	results, err := t.provider.Search(ctx, query, t.maxResults)
	if err != nil {
		return errResult("search failed: " + err.Error())
	}

	observations := make(map[string]any, len(results))
	confidence := make(map[string]float64, len(results))
	tokens := 0
	for i, r := range results {
		key := fmt.Sprintf("web_search_result:%s:%d", query, i)
		observations[key] = r
		confidence[key] = 0.6 // search results are a lead, not ground truth
		tokens += estimateTokens(r.Title + r.Description)
	}

	return okResult(observations, confidence, tokens)
}
