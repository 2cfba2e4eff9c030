package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSEOAuditFlagsMissingMetaDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Home</title></head><body><h1>Welcome</h1><img src="x.png"></body></html>`))
	}))
	defer srv.Close()

	tool := NewSEOAuditTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	require.Contains(t, res.Content, `:has_meta_description":false`)
	require.Contains(t, res.Content, `:images_missing_alt":1`)
}

func TestSocialFindDeduplicatesPlatforms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<a href="https://facebook.com/acme">FB</a>
			<a href="https://facebook.com/acme/about">FB about</a>
			<a href="https://instagram.com/acme">IG</a>
		</body></html>`))
	}))
	defer srv.Close()

	tool := NewSocialFindTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	require.Contains(t, res.Content, "facebook")
	require.Contains(t, res.Content, "instagram")
	require.NotContains(t, res.Content, "acme/about")
}
