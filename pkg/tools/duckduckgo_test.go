package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuckDuckGoSearchParsesResultLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acme plumbing", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`<html><body>
			<a class="result__a" href="https://acme.example/">Acme Plumbing</a>
			<a class="result__snippet">Local plumber since 1990</a>
		</body></html>`))
	}))
	defer srv.Close()

	provider := &DuckDuckGoProvider{httpClient: srv.Client(), baseURL: srv.URL}
	results, err := provider.Search(context.Background(), "acme plumbing", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://acme.example/", results[0].URL)
	assert.Equal(t, "Acme Plumbing", results[0].Title)
	assert.Equal(t, "Local plumber since 1990", results[0].Description)
}

func TestDuckDuckGoSearchReturnsErrorOnHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	provider := &DuckDuckGoProvider{httpClient: srv.Client(), baseURL: srv.URL}
	_, err := provider.Search(context.Background(), "anything", 5)
	require.Error(t, err)
}

func TestDuckDuckGoProviderName(t *testing.T) {
	assert.Equal(t, "duckduckgo", NewDuckDuckGoProvider().Name())
}
