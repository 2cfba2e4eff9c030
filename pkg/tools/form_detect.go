package tools

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ToolFormDetect is the catalog name for the form-detection tool.
const ToolFormDetect = "form_detect"

// FormDetectTool walks a page's DOM looking for <form> elements and reports
// their fields, so the Validator can answer "does the site have a contact
// form" / "what fields does the booking form collect" style questions.
type FormDetectTool struct {
	httpClient *http.Client
}

// NewFormDetectTool builds a form_detect tool.
func NewFormDetectTool() *FormDetectTool {
	return &FormDetectTool{httpClient: &http.Client{Timeout: 20 * time.Second}}
}

// Name returns the catalog name.
func (t *FormDetectTool) Name() string { return ToolFormDetect }

// Definition describes the tool for the Planner's LLM.
func (t *FormDetectTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolFormDetect,
		Description: `Parse a page's HTML for <form> elements and report each form's input fields and submit
target. Use for questions about contact forms, booking forms, or newsletter signups.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"url": {Type: "string", Description: "Page URL to scan for forms"},
			},
			Required: []string{"url"},
		},
	}
}

// FormField is one input collected by a detected form.
type FormField struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// DetectedForm is one <form> element and the fields it collects.
type DetectedForm struct {
	Action string      `json:"action"`
	Method string      `json:"method"`
	Fields []FormField `json:"fields"`
}

// Exec fetches url and walks its parsed DOM for forms.
func (t *FormDetectTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
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

	forms := walkForms(doc)
	key := "forms_detected:" + urlStr
	conf := 0.9
	if len(forms) == 0 {
		conf = 0.75 // confident absence, not as strong as a confirmed positive
	}
	return okResult(map[string]any{key: forms}, map[string]float64{key: conf}, len(forms)*20)
}

func walkForms(n *html.Node) []DetectedForm {
	var forms []DetectedForm
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "form" {
			forms = append(forms, DetectedForm{
				Action: attr(node, "action"),
				Method: strings.ToUpper(orDefault(attr(node, "method"), "GET")),
				Fields: collectFields(node),
			})
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return forms
}

func collectFields(form *html.Node) []FormField {
	var fields []FormField
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && (node.Data == "input" || node.Data == "textarea" || node.Data == "select") {
			name := attr(node, "name")
			if name != "" {
				fields = append(fields, FormField{Name: name, Type: orDefault(attr(node, "type"), node.Data)})
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(form)
	return fields
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
