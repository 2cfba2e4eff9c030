package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ToolSocialFind is the catalog name for the social-link-discovery tool.
const ToolSocialFind = "social_find"

// knownSocialDomains maps a hostname fragment to the platform it belongs to.
var knownSocialDomains = map[string]string{
	"facebook.com":  "facebook",
	"instagram.com": "instagram",
	"twitter.com":   "twitter",
	"x.com":         "twitter",
	"linkedin.com":  "linkedin",
	"youtube.com":   "youtube",
	"tiktok.com":    "tiktok",
	"pinterest.com": "pinterest",
}

// SocialFindTool walks a page's anchors looking for outbound links to known
// social platforms, answering "does the client have an Instagram" questions.
type SocialFindTool struct {
	httpClient *http.Client
}

// NewSocialFindTool builds a social_find tool.
func NewSocialFindTool() *SocialFindTool {
	return &SocialFindTool{httpClient: &http.Client{Timeout: 20 * time.Second}}
}

// Name returns the catalog name.
func (t *SocialFindTool) Name() string { return ToolSocialFind }

// Definition describes the tool for the Planner's LLM.
func (t *SocialFindTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolSocialFind,
		Description: `Scan a page's links for known social media platforms (Facebook, Instagram, X/Twitter,
LinkedIn, YouTube, TikTok, Pinterest). Use for questions about the client's social media presence.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"url": {Type: "string", Description: "Page URL to scan for social links"},
			},
			Required: []string{"url"},
		},
	}
}

// Exec fetches url and extracts any outbound social links.
func (t *SocialFindTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
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

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return errResult("failed to parse HTML: " + err.Error())
	}

	links := findSocialLinks(doc)
	observations := make(map[string]any, len(links))
	confidence := make(map[string]float64, len(links))
	for platform, href := range links {
		key := "social_link:" + platform
		observations[key] = href
		confidence[key] = 0.9
	}

	return okResult(observations, confidence, len(links)*10)
}

func findSocialLinks(n *html.Node) map[string]string {
	found := make(map[string]string)
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "a" {
			href := attr(node, "href")
			for domain, platform := range knownSocialDomains {
				if strings.Contains(href, domain) {
					if _, exists := found[platform]; !exists {
						found[platform] = href
					}
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return found
}
