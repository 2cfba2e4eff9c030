package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ToolFetchPage is the catalog name for the page-fetch tool.
const ToolFetchPage = "fetch_page"

// FetchPageTool retrieves a page from the client's website and extracts its
// readable text, for questions a cached site render didn't already answer.
type FetchPageTool struct {
	httpClient   *http.Client
	maxBodyBytes int64
}

// NewFetchPageTool builds a fetch_page tool with sane network defaults.
func NewFetchPageTool() *FetchPageTool {
	return &FetchPageTool{
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		maxBodyBytes: 150 * 1024,
	}
}

// Name returns the catalog name.
func (t *FetchPageTool) Name() string { return ToolFetchPage }

// Definition describes the tool for the Planner's LLM.
func (t *FetchPageTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolFetchPage,
		Description: `Fetch a specific page on the client's website and extract its visible text and title.
Use this when a missing question is scoped to a page the initial site render didn't cover (a subpage,
a form page, a policy page). Has a 150KB response cap.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"url": {
					Type:        "string",
					Description: "Full URL of the page to fetch (e.g. https://example.com/contact)",
				},
				"question": {
					Type:        "string",
					Description: "The missing question this fetch is expected to answer",
				},
			},
			Required: []string{"url"},
		},
	}
}

// Exec fetches url and returns its title/text as a dynamic-context observation.
func (t *FetchPageTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	urlStr, _ := args["url"].(string)
	if urlStr == "" {
		return nil, fmt.Errorf("url is required and must be a string")
	}
	if !strings.HasPrefix(urlStr, "http://") && !strings.HasPrefix(urlStr, "https://") {
		return errResult("url must start with http:// or https://")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		return errResult("failed to create request: " + err.Error())
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; RCVE/1.0; context-gathering tool)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,text/plain;q=0.8")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return errResult("fetch request failed: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errResult(fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	contentType := resp.Header.Get("Content-Type")
	if !isTextContent(contentType) {
		return errResult(fmt.Sprintf("unsupported content type: %s", contentType))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, t.maxBodyBytes))
	if err != nil {
		return errResult("failed to read response: " + err.Error())
	}

	html := string(body)
	title := extractTitle(html)
	text := extractText(html)

	const maxChars = 20000
	if len(text) > maxChars {
		text = text[:maxChars]
	}

	key := "page_content:" + urlStr
	return okResult(map[string]any{
		key:             text,
		"page_title:" + urlStr: title,
	}, map[string]float64{
		key: 0.85,
	}, estimateTokens(text))
}

// errResult and okResult, isTextContent/extractTitle/extractText/estimateTokens
// are shared across every tool body; defined once in helpers.go.
