package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormDetectFindsContactForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
			<form action="/contact" method="post">
				<input name="email" type="email">
				<textarea name="message"></textarea>
			</form>
		</body></html>`))
	}))
	defer srv.Close()

	tool := NewFormDetectTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	require.Contains(t, res.Content, `"forms_detected`)
	require.Contains(t, res.Content, "email")
}

func TestFormDetectReportsNoFormsWithLowerConfidence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>no forms here</p></body></html>`))
	}))
	defer srv.Close()

	tool := NewFormDetectTool()
	res, err := tool.Exec(context.Background(), map[string]any{"url": srv.URL})
	require.NoError(t, err)
	require.Contains(t, res.Content, `"success":true`)
	require.Contains(t, res.Content, `":0.75`)
}
