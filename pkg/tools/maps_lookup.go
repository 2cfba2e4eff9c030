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

// ToolMapsLookup is the catalog name for the maps/geocoding lookup tool.
const ToolMapsLookup = "maps_lookup"

// geocodeHit mirrors the Nominatim search response shape this tool consumes.
type geocodeHit struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// MapsLookupTool resolves a business address into normalized coordinates and
// a canonical display form, for business_info_update requests that need the
// client's location confirmed. Talks to an OpenStreetMap Nominatim-compatible
// endpoint over plain JSON — see DESIGN.md for why no maps SDK is wired here.
type MapsLookupTool struct {
	httpClient *http.Client
	baseURL    string
}

// NewMapsLookupTool builds a maps_lookup tool against the given geocoding
// endpoint base URL (a Nominatim-compatible `/search` API).
func NewMapsLookupTool(baseURL string) *MapsLookupTool {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &MapsLookupTool{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

// Name returns the catalog name.
func (t *MapsLookupTool) Name() string { return ToolMapsLookup }

// Definition describes the tool for the Planner's LLM.
func (t *MapsLookupTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolMapsLookup,
		Description: `Resolve a business address or name into normalized coordinates and a canonical address
string. Use for business_info_update requests that need the client's location confirmed.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {Type: "string", Description: "Address or business name to geocode"},
			},
			Required: []string{"query"},
		},
	}
}

// Exec geocodes args["query"] against the configured endpoint.
func (t *MapsLookupTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query is required and must be a string")
	}

	endpoint := t.baseURL + "/search?" + url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return errResult("failed to create request: " + err.Error())
	}
	req.Header.Set("User-Agent", "RCVE/1.0 (context-gathering tool)")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return errResult("geocode request failed: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errResult(fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return errResult("failed to read response: " + err.Error())
	}

	var hits []geocodeHit
	if err := json.Unmarshal(body, &hits); err != nil {
		return errResult("failed to parse geocode response: " + err.Error())
	}
	if len(hits) == 0 {
		return errResult("no match found for query")
	}

	hit := hits[0]
	key := "business_address:" + query
	return okResult(map[string]any{
		key:                     hit.DisplayName,
		"business_lat:" + query: hit.Lat,
		"business_lon:" + query: hit.Lon,
	}, map[string]float64{key: 0.8}, 20)
}
