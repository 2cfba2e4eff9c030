package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewsLookupReportsRatingAndCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Acme Plumbing", r.URL.Query().Get("business"))
		_, _ = w.Write([]byte(`{"rating":4.5,"review_count":120}`))
	}))
	defer srv.Close()

	tool := NewReviewsLookupTool(srv.URL)
	res, err := tool.Exec(context.Background(), map[string]any{"business_name": "Acme Plumbing"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "4.5")
	assert.Contains(t, res.Content, "120")
}

func TestReviewsLookupReturnsErrorResultWhenUnconfigured(t *testing.T) {
	tool := NewReviewsLookupTool("")
	res, err := tool.Exec(context.Background(), map[string]any{"business_name": "Acme"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "no reviews aggregator configured")
}

func TestReviewsLookupRequiresBusinessName(t *testing.T) {
	tool := NewReviewsLookupTool("http://example.invalid")
	_, err := tool.Exec(context.Background(), map[string]any{})
	require.Error(t, err)
}
