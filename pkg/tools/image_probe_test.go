package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageProbeReportsFormatAndSizeViaHEAD(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", "2048")
	}))
	defer srv.Close()

	tool := NewImageProbeTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "image/png")
	assert.Contains(t, res.Content, "2048")
}

func TestImageProbeFallsBackToRangedGetWhenHEADRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte{0xFF})
	}))
	defer srv.Close()

	tool := NewImageProbeTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "image/jpeg")
}

func TestImageProbeRejectsNonImageContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
	}))
	defer srv.Close()

	tool := NewImageProbeTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	assert.Contains(t, res.Content, "not an image")
}

func TestImageProbeRequiresURL(t *testing.T) {
	tool := NewImageProbeTool()
	_, err := tool.Exec(context.Background(), map[string]any{})
	require.Error(t, err)
}
