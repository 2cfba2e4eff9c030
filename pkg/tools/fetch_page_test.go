package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchPageExtractsTitleAndText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Contact Us</title></head><body><p>Call us at 555-1234.</p></body></html>`))
	}))
	defer srv.Close()

	tool := NewFetchPageTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Contains(t, res.Content, `"success":true`)
	assert.Contains(t, res.Content, "Contact Us")
	assert.Contains(t, res.Content, "Call us at 555-1234")
}

func TestFetchPageRejectsNonHTTPURL(t *testing.T) {
	tool := NewFetchPageTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": "ftp://example.com/file"})
	require.NoError(t, err)
	assert.Contains(t, res.Content, `"success":false`)
}

func TestFetchPageRequiresURL(t *testing.T) {
	tool := NewFetchPageTool()
	_, err := tool.Exec(context.Background(), map[string]any{})
	require.Error(t, err)
}

func TestFetchPageReportsHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	tool := NewFetchPageTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "404")
}

func TestFetchPageRejectsUnsupportedContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	tool := NewFetchPageTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "unsupported content type")
}

func TestExtractTextStripsScriptsAndCollapsesWhitespace(t *testing.T) {
	html := `<html><body><script>alert(1)</script><h1>Title</h1>
	<p>Line   one.</p><p>Line two.</p></body></html>`
	text := extractText(html)
	assert.NotContains(t, text, "alert")
	assert.True(t, strings.Contains(text, "Title"))
	assert.True(t, strings.Contains(text, "Line one."))
}
