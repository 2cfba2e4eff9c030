package contextmgr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"rcve/pkg/config"
	"rcve/pkg/proto"
)

func TestTrimStaticContextUnderBudgetIsUnchanged(t *testing.T) {
	trimmer, err := NewTrimmer(1000, 100)
	require.NoError(t, err)

	sc := proto.StaticContext{
		WebsiteContent: "a short page",
		FileSummaries:  []proto.FileSummary{{Filename: "a.pdf", Text: "short summary"}},
	}

	out := trimmer.TrimStaticContext(sc)
	require.Equal(t, sc.WebsiteContent, out.WebsiteContent)
	require.Len(t, out.FileSummaries, 1)
}

func TestTrimStaticContextTruncatesOversizedWebsiteContent(t *testing.T) {
	trimmer, err := NewTrimmer(50, 10)
	require.NoError(t, err)

	sc := proto.StaticContext{
		WebsiteContent: strings.Repeat("word ", 500),
		FileSummaries:  []proto.FileSummary{{Filename: "a.pdf", Text: "irrelevant, dropped since website alone overflows"}},
	}

	out := trimmer.TrimStaticContext(sc)
	require.Less(t, len(out.WebsiteContent), len(sc.WebsiteContent))
	require.Empty(t, out.FileSummaries)
}

func TestTrimStaticContextDropsTrailingFileSummaries(t *testing.T) {
	trimmer, err := NewTrimmer(60, 10)
	require.NoError(t, err)

	sc := proto.StaticContext{
		WebsiteContent: "short",
		FileSummaries: []proto.FileSummary{
			{Filename: "a.pdf", Text: "short"},
			{Filename: "b.pdf", Text: strings.Repeat("overflow ", 200)},
			{Filename: "c.pdf", Text: "never reached"},
		},
	}

	out := trimmer.TrimStaticContext(sc)
	require.Len(t, out.FileSummaries, 1)
	require.Equal(t, "a.pdf", out.FileSummaries[0].Filename)
}

func TestTrimStaticContextPreservesClientProfile(t *testing.T) {
	trimmer, err := NewTrimmer(1000, 100)
	require.NoError(t, err)

	sc := proto.StaticContext{ClientProfile: map[string]any{"industry": "plumbing"}}
	out := trimmer.TrimStaticContext(sc)
	require.Equal(t, sc.ClientProfile, out.ClientProfile)
}

func TestNewTrimmerForModelSizesBudgetOffMaxTokens(t *testing.T) {
	trimmer, err := NewTrimmerForModel(config.ModelConfig{Name: "claude-haiku", MaxTokens: 500})
	require.NoError(t, err)
	require.Equal(t, 500, trimmer.replyBuffer)
	require.Equal(t, 500*8, trimmer.maxContextTokens)
	require.Equal(t, 500*8-500, trimmer.budget())
}

func TestNewTrimmerForModelFallsBackWhenMaxTokensUnset(t *testing.T) {
	trimmer, err := NewTrimmerForModel(config.ModelConfig{Name: "claude-haiku"})
	require.NoError(t, err)
	require.Equal(t, DefaultReplyBuffer, trimmer.replyBuffer)
	require.Equal(t, DefaultReplyBuffer*8, trimmer.maxContextTokens)
}
