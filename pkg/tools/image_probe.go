package tools

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ToolImageProbe is the catalog name for the image-probe tool.
const ToolImageProbe = "image_probe"

// ImageProbeTool confirms an image asset exists and reports its format and
// size without downloading the full body — answers "does the client have a
// logo/hero image at this URL" questions cheaply.
type ImageProbeTool struct {
	httpClient *http.Client
}

// NewImageProbeTool builds an image_probe tool.
func NewImageProbeTool() *ImageProbeTool {
	return &ImageProbeTool{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// Name returns the catalog name.
func (t *ImageProbeTool) Name() string { return ToolImageProbe }

// Definition describes the tool for the Planner's LLM.
func (t *ImageProbeTool) Definition() ToolDefinition {
	return ToolDefinition{
		Name: ToolImageProbe,
		Description: `Probe an image URL (logo, hero image, product photo) to confirm it exists and report its
format and byte size, without downloading the full image. Use for questions about whether a specific
visual asset is present on the site.`,
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"url": {Type: "string", Description: "Image URL to probe"},
			},
			Required: []string{"url"},
		},
	}
}

// Exec issues a HEAD request (falling back to a ranged GET if HEAD is
// rejected) and reports the image's content type and size.
func (t *ImageProbeTool) Exec(ctx context.Context, args map[string]any) (*ExecResult, error) {
	urlStr, _ := args["url"].(string)
	if urlStr == "" {
		return nil, fmt.Errorf("url is required and must be a string")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, urlStr, http.NoBody)
	if err != nil {
		return errResult("failed to create request: " + err.Error())
	}
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return errResult("probe request failed: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusMethodNotAllowed {
		return t.probeViaRangedGet(ctx, urlStr)
	}
	if resp.StatusCode != http.StatusOK {
		return errResult(fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return errResult(fmt.Sprintf("not an image: content-type %s", contentType))
	}
	sizeBytes, _ := strconv.Atoi(resp.Header.Get("Content-Length"))

	key := "image_exists:" + urlStr
	return okResult(map[string]any{
		key:                      true,
		"image_format:" + urlStr: contentType,
		"image_bytes:" + urlStr:  sizeBytes,
	}, map[string]float64{key: 0.9}, 50)
}

func (t *ImageProbeTool) probeViaRangedGet(ctx context.Context, urlStr string) (*ExecResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, http.NoBody)
	if err != nil {
		return errResult("failed to create request: " + err.Error())
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err := t.httpClient.Do(req)
	if err != nil {
		return errResult("probe request failed: " + err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return errResult(fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return errResult(fmt.Sprintf("not an image: content-type %s", contentType))
	}

	key := "image_exists:" + urlStr
	return okResult(map[string]any{
		key:                      true,
		"image_format:" + urlStr: contentType,
	}, map[string]float64{key: 0.8}, 50)
}
