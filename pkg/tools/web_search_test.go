package tools

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearchProvider struct {
	results []SearchResult
	err     error
}

func (p *fakeSearchProvider) Name() string { return "fake" }

func (p *fakeSearchProvider) Search(_ context.Context, _ string, maxResults int) ([]SearchResult, error) {
	if p.err != nil {
		return nil, p.err
	}
	if len(p.results) > maxResults {
		return p.results[:maxResults], nil
	}
	return p.results, nil
}

func TestWebSearchFoldsResultsIntoKeyedObservations(t *testing.T) {
	provider := &fakeSearchProvider{results: []SearchResult{
		{Title: "Acme Plumbing", Description: "Local plumber", URL: "https://acme.example/"},
	}}
	tool := NewWebSearchTool(provider)

	res, err := tool.Exec(context.Background(), map[string]any{"query": "acme plumbing"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "web_search_result:acme plumbing:0")
	assert.Contains(t, res.Content, `"success":true`)
}

func TestWebSearchRequiresQuery(t *testing.T) {
	tool := NewWebSearchTool(&fakeSearchProvider{})
	_, err := tool.Exec(context.Background(), map[string]any{})
	require.Error(t, err)
}

func TestWebSearchReturnsErrorResultWhenProviderNil(t *testing.T) {
	tool := NewWebSearchTool(nil)
	res, err := tool.Exec(context.Background(), map[string]any{"query": "anything"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "no search provider configured")
}

func TestWebSearchReturnsErrorResultOnProviderFailure(t *testing.T) {
	tool := NewWebSearchTool(&fakeSearchProvider{err: fmt.Errorf("boom")})
	res, err := tool.Exec(context.Background(), map[string]any{"query": "anything"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "search failed")
}
