package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ToolSEOAudit is the catalog name for the SEO-audit tool.
const ToolSEOAudit = "seo_audit"

// SEOAuditTool inspects a page's title, meta description, and heading
// structure — the handful of on-page signals an seo_optimization request
// typically needs grounded before planning changes.
type SEOAuditTool struct {
	httpClient *http.Client
}

// NewSEOAuditTool builds a seo_audit tool.
func NewSEOAuditTool() *SEOAuditTool {
	return &SEOAuditTool{httpClient: &http.Client{Timeout: 20 * time.Second}}
}

// Name returns the catalog name.
func (t *SEOAuditTool) Name() string { return ToolSEOAudit }

// Definition describes the tool for the Planner's LLM.
func (t *SEOAuditTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolSEOAudit,
		Description: `Audit a page's on-page SEO signals: title length, meta description presence, H1 count,
and image alt-text coverage. Use for seo_optimization requests.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"url": {Type: "string", Description: "Page URL to audit"},
			},
			Required: []string{"url"},
		},
	}
}

// Exec fetches url and runs the on-page audit.
func (t *SEOAuditTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
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

	audit := runSEOAudit(doc)
	prefix := "seo:" + urlStr + ":"
	observations := map[string]any{
		prefix + "title_length":       audit.TitleLength,
		prefix + "has_meta_description": audit.HasMetaDescription,
		prefix + "h1_count":            audit.H1Count,
		prefix + "images_missing_alt":  audit.ImagesMissingAlt,
	}
	confidence := map[string]float64{
		prefix + "title_length":        0.95,
		prefix + "has_meta_description": 0.95,
		prefix + "h1_count":             0.95,
		prefix + "images_missing_alt":   0.9,
	}
	return okResult(observations, confidence, 30)
}

type seoAuditResult struct {
	TitleLength        int
	HasMetaDescription bool
	H1Count            int
	ImagesMissingAlt   int
}

func runSEOAudit(n *html.Node) seoAuditResult {
	var result seoAuditResult
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "title":
				if node.FirstChild != nil {
					result.TitleLength = len(strings.TrimSpace(node.FirstChild.Data))
				}
			case "meta":
				if strings.EqualFold(attr(node, "name"), "description") && attr(node, "content") != "" {
					result.HasMetaDescription = true
				}
			case "h1":
				result.H1Count++
			case "img":
				if attr(node, "alt") == "" {
					result.ImagesMissingAlt++
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return result
}
