package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapsLookupResolvesFirstHit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme plumbing", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[{"display_name":"123 Main St, Springfield","lat":"1.23","lon":"4.56"}]`))
	}))
	defer srv.Close()

	tool := NewMapsLookupTool(srv.URL)
	res, err := tool.Exec(context.Background(), map[string]any{"query": "acme plumbing"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "123 Main St, Springfield")
	assert.Contains(t, res.Content, "1.23")
}

func TestMapsLookupReturnsErrorResultWhenNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	tool := NewMapsLookupTool(srv.URL)
	res, err := tool.Exec(context.Background(), map[string]any{"query": "nowhere"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "no match found")
}

func TestMapsLookupDefaultsToNominatimWhenBaseURLEmpty(t *testing.T) {
	tool := NewMapsLookupTool("")
	assert.Equal(t, "https://nominatim.openstreetmap.org", tool.baseURL)
}

func TestMapsLookupRequiresQuery(t *testing.T) {
	tool := NewMapsLookupTool("http://example.invalid")
	_, err := tool.Exec(context.Background(), map[string]any{})
	require.Error(t, err)
}
