package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ToolReviewsLookup is the catalog name for the reviews-lookup tool.
const ToolReviewsLookup = "reviews_lookup"

// reviewSummary mirrors the minimal shape a reviews aggregator returns.
type reviewSummary struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// ReviewsLookupTool pulls a business's aggregate rating and review count
// from a configured reviews aggregator endpoint, for requests that cite
// social proof (testimonials pages, trust badges). See DESIGN.md for why
// this is a plain JSON client rather than a vendor reviews SDK.
type ReviewsLookupTool struct {
	httpClient *http.Client
	baseURL    string
}

// NewReviewsLookupTool builds a reviews_lookup tool against the given
// aggregator base URL (expected to expose a `/reviews?business=` endpoint).
func NewReviewsLookupTool(baseURL string) *ReviewsLookupTool {
	return &ReviewsLookupTool{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

// Name returns the catalog name.
func (t *ReviewsLookupTool) Name() string { return ToolReviewsLookup }

// Definition describes the tool for the Planner's LLM.
func (t *ReviewsLookupTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolReviewsLookup,
		Description: `Look up a business's aggregate review rating and review count from the configured
reviews aggregator. Use for requests that reference testimonials or trust signals.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"business_name": {Type: "string", Description: "Business name to look up reviews for"},
			},
			Required: []string{"business_name"},
		},
	}
}

// Exec looks up reviews for args["business_name"].
func (t *ReviewsLookupTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	name, _ := args["business_name"].(string)
	if name == "" {
		return nil, fmt.Errorf("business_name is required and must be a string")
	}
	if t.baseURL == "" {
		return errResult("no reviews aggregator configured")
	}

	endpoint := t.baseURL + "/reviews?" + url.Values{"business": {name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return errResult("failed to create request: " + err.Error())
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return errResult("reviews request failed: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errResult(fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return errResult("failed to read response: " + err.Error())
	}

	var summary reviewSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		return errResult("failed to parse reviews response: " + err.Error())
	}

	key := "review_rating:" + name
	return okResult(map[string]any{
		key:                      summary.Rating,
		"review_count:" + name:   summary.ReviewCount,
	}, map[string]float64{key: 0.75}, 15)
}
