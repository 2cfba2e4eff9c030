package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DuckDuckGoProvider implements SearchProvider against DuckDuckGo's HTML
// result page, which needs no API key — the default provider when no
// dedicated search API credentials are configured.
type DuckDuckGoProvider struct {
	httpClient *http.Client
	baseURL    string
}

const duckDuckGoBaseURL = "https://html.duckduckgo.com/html/"

// NewDuckDuckGoProvider builds a DuckDuckGoProvider.
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{httpClient: &http.Client{Timeout: 15 * time.Second}, baseURL: duckDuckGoBaseURL}
}

// Name identifies this provider.
func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

var ddgResultRegex = regexp.MustCompile(
	`(?is)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.*?)</a>.*?<a[^>]+class="result__snippet"[^>]*>(.*?)</a>`,
)

// Search scrapes DuckDuckGo's lite HTML endpoint for up to maxResults hits.
func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	endpoint := p.baseURL + "?" + url.Values{"q": {query}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; RCVE/1.0; context-gathering tool)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	matches := ddgResultRegex.FindAllSubmatch(body, maxResults)
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		results = append(results, SearchResult{
			URL:         strings.TrimSpace(string(m[1])),
			Title:       cleanSnippet(string(m[2])),
			Description: cleanSnippet(string(m[3])),
		})
	}
	return results, nil
}

func cleanSnippet(s string) string {
	s = tagRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}
