package tools

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// toolResultPayload is the JSON shape every tool body marshals into its
// ExecResult.Content; Registry.decodeResult unmarshals exactly this shape.
type toolResultPayload struct {
	Success         bool               `json:"success"`
	Error           string             `json:"error,omitempty"`
	Observations    map[string]any     `json:"observations,omitempty"`
	ConfidenceByKey map[string]float64 `json:"confidence_by_key,omitempty"`
	EstTokens       int                `json:"est_tokens"`
}

func okResult(observations map[string]any, confidence map[string]float64, estTokens int) (*ExecResult, error) {
	payload := toolResultPayload{
		Success:         true,
		Observations:    observations,
		ConfidenceByKey: confidence,
		EstTokens:       estTokens,
	}
	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return &ExecResult{Content: string(content)}, nil
}

func errResult(msg string) (*ExecResult, error) {
	payload := toolResultPayload{Success: false, Error: msg}
	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal tool error result: %w", err)
	}
	return &ExecResult{Content: string(content)}, nil
}

// estimateTokens approximates token count for a piece of extracted text,
// used to populate a tool result's est_tokens field for the token budget.
func estimateTokens(s string) int {
	return len(s)/4 + 1
}

func isTextContent(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") ||
		strings.Contains(ct, "text/plain") ||
		strings.Contains(ct, "application/xhtml") ||
		strings.Contains(ct, "application/xml") ||
		strings.Contains(ct, "text/xml")
}

var (
	titleRegex   = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	scriptRegex  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRegex   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	commentRegex = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockRegex   = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|br|hr)[^>]*>`)
	brRegex      = regexp.MustCompile(`(?i)<br[^>]*>`)
	tagRegex     = regexp.MustCompile(`<[^>]+>`)
	spaceRegex   = regexp.MustCompile(`[ \t]+`)
	newlineRegex = regexp.MustCompile(`\n{3,}`)
)

func extractTitle(html string) string {
	matches := titleRegex.FindStringSubmatch(html)
	if len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

func extractText(html string) string {
	html = scriptRegex.ReplaceAllString(html, "")
	html = styleRegex.ReplaceAllString(html, "")
	html = commentRegex.ReplaceAllString(html, "")
	html = blockRegex.ReplaceAllString(html, "\n")
	html = brRegex.ReplaceAllString(html, "\n")
	text := tagRegex.ReplaceAllString(html, "")

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", "\"")
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&apos;", "'")

	text = spaceRegex.ReplaceAllString(text, " ")
	text = newlineRegex.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	cleanLines := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			cleanLines = append(cleanLines, trimmed)
		}
	}
	return strings.Join(cleanLines, "\n")
}
