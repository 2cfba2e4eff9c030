package enrichment

import (
	"fmt"
	"sort"
	"strings"

	"rcve/pkg/proto"
)

// uncertainThreshold is the confidence floor below which a bullet is
// flagged "uncertain" for the architect, per §4.7.
const uncertainThreshold = 0.5

// RenderForArchitect builds the bullet-rendered dynamic_context view handed
// to the architect on a complete exit: one labelled line per entry, source
// tool and confidence to two decimal places, flagging anything below
// uncertainThreshold so the architect knows to cite it cautiously rather
// than treat it as ground truth.
func RenderForArchitect(ctx proto.DynamicContext) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return "(no enriched context gathered)"
	}

	var b strings.Builder
	for _, k := range keys {
		obs := ctx[k]
		line := fmt.Sprintf("- %s: %v (source: %s, confidence: %.2f)", k, obs.Value, obs.SourceTool, obs.Confidence)
		if obs.Confidence < uncertainThreshold {
			line += " [uncertain]"
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
