package tools

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// ToolPDFExtract is the catalog name for the PDF-extraction tool.
const ToolPDFExtract = "pdf_extract"

// PDFExtractTool pulls readable text out of a client-supplied PDF (menu,
// brochure, price sheet) so its content can answer missing questions. It
// does a best-effort extraction of Tj/TJ text-showing operators from both
// uncompressed and Flate-compressed content streams; it does not attempt
// layout reconstruction, OCR, or encrypted documents.
type PDFExtractTool struct {
	httpClient *http.Client
}

// NewPDFExtractTool builds a pdf_extract tool.
func NewPDFExtractTool() *PDFExtractTool {
	return &PDFExtractTool{httpClient: &http.Client{Timeout: 25 * time.Second}}
}

// Name returns the catalog name.
func (t *PDFExtractTool) Name() string { return ToolPDFExtract }

// Definition describes the tool for the Planner's LLM.
func (t *PDFExtractTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolPDFExtract,
		Description: `Extract readable text from a PDF attachment or URL (menu, brochure, price sheet). Best-effort
only: does not OCR scanned images and does not reconstruct layout or tables.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"url":      {Type: "string", Description: "URL of the PDF to extract"},
				"question": {Type: "string", Description: "The missing question this extraction is expected to answer"},
			},
			Required: []string{"url"},
		},
	}
}

// Exec downloads url and extracts its visible text content.
func (t *PDFExtractTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	urlStr, _ := args["url"].(string)
	if urlStr == "" {
		return nil, fmt.Errorf("url is required and must be a string")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		return errResult("failed to create request: " + err.Error())
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return errResult("fetch request failed: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errResult(fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return errResult("failed to read response: " + err.Error())
	}

	text := extractPDFText(body)
	if strings.TrimSpace(text) == "" {
		return errResult("no extractable text found (may be a scanned/image-only PDF)")
	}

	const maxChars = 20000
	if len(text) > maxChars {
		text = text[:maxChars]
	}

	key := "pdf_text:" + urlStr
	return okResult(map[string]any{key: text}, map[string]float64{key: 0.65}, estimateTokens(text))
}

var (
	flateStreamRegex = regexp.MustCompile(`(?s)stream\r?\n(.*?)\r?\nendstream`)
	showTextRegex    = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*T[jJ]`)
)

// extractPDFText scans a raw PDF byte stream for content streams (inflating
// Flate-compressed ones) and pulls text out of Tj/TJ show-text operators.
func extractPDFText(raw []byte) string {
	var out strings.Builder

	for _, m := range flateStreamRegex.FindAllSubmatch(raw, -1) {
		stream := m[1]
		if inflated, ok := tryInflate(stream); ok {
			stream = inflated
		}
		for _, tm := range showTextRegex.FindAllSubmatch(stream, -1) {
			out.Write(unescapePDFString(tm[1]))
			out.WriteByte(' ')
		}
	}

	return out.String()
}

func tryInflate(data []byte) ([]byte, bool) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, false
	}
	defer func() { _ = r.Close() }()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, false
	}
	return out, true
}

func unescapePDFString(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, s[i])
			}
			continue
		}
		out = append(out, s[i])
	}
	return out
}
