package enrichment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"rcve/pkg/proto"
)

func TestRenderForArchitectReportsNoContextGathered(t *testing.T) {
	assert.Equal(t, "(no enriched context gathered)", RenderForArchitect(proto.DynamicContext{}))
}

func TestRenderForArchitectFlagsLowConfidenceEntries(t *testing.T) {
	ctx := proto.DynamicContext{
		"target_page": {Value: "/contact", SourceTool: "fetch_page", Confidence: 0.9},
		"brand_color":  {Value: "unknown", SourceTool: "image_probe", Confidence: 0.3},
	}

	out := RenderForArchitect(ctx)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, out, "- brand_color: unknown (source: image_probe, confidence: 0.30) [uncertain]")
	assert.Contains(t, out, "- target_page: /contact (source: fetch_page, confidence: 0.90)")
	assert.NotContains(t, out, "target_page: /contact (source: fetch_page, confidence: 0.90) [uncertain]")
}
