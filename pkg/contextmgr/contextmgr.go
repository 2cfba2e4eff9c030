// Package contextmgr trims the static context handed into a Planner or
// Validator prompt so that a large website scrape or a long run of file
// summaries never pushes a single completion request over its model's
// context window. Unlike a multi-turn chat history, RCVE's prompts are
// stateless per call — there is nothing to compact across turns, only a
// single snapshot to fit inside budget before it is sent.
package contextmgr

import (
	"rcve/pkg/config"
	"rcve/pkg/proto"
	"rcve/pkg/utils"
)

// Default token budget for the static-context portion of a prompt, and the
// room reserved for the model's reply within the same context window.
const (
	DefaultMaxContextTokens = 8000
	DefaultReplyBuffer      = 1024
)

// Trimmer fits a proto.StaticContext inside a fixed token budget.
type Trimmer struct {
	counter          *utils.TokenCounter
	maxContextTokens int
	replyBuffer      int
}

// NewTrimmer builds a Trimmer. A non-positive maxContextTokens or
// replyBuffer falls back to the package defaults.
func NewTrimmer(maxContextTokens, replyBuffer int) (*Trimmer, error) {
	counter, err := utils.NewTokenCounter("gpt-4")
	if err != nil {
		return nil, err
	}
	if maxContextTokens <= 0 {
		maxContextTokens = DefaultMaxContextTokens
	}
	if replyBuffer <= 0 {
		replyBuffer = DefaultReplyBuffer
	}
	return &Trimmer{counter: counter, maxContextTokens: maxContextTokens, replyBuffer: replyBuffer}, nil
}

// NewTrimmerForModel builds a Trimmer sized off a model's configured reply
// budget: the reply buffer is the model's MaxTokens, and the context budget
// is a multiple of it, since none of the providers RCVE talks to expose
// their actual context-window size through config.ModelConfig.
func NewTrimmerForModel(model config.ModelConfig) (*Trimmer, error) {
	replyBuffer := model.MaxTokens
	if replyBuffer <= 0 {
		replyBuffer = DefaultReplyBuffer
	}
	return NewTrimmer(replyBuffer*8, replyBuffer)
}

func (t *Trimmer) budget() int {
	b := t.maxContextTokens - t.replyBuffer
	if b < 0 {
		return 0
	}
	return b
}

// TrimStaticContext fits sc inside the trimmer's budget: website content is
// truncated first if it alone exceeds budget, otherwise file summaries are
// kept in order until the next one would overflow what's left.
func (t *Trimmer) TrimStaticContext(sc proto.StaticContext) proto.StaticContext {
	budget := t.budget()

	website := sc.WebsiteContent
	websiteTokens := t.counter.CountTokens(website)
	if websiteTokens > budget {
		return proto.StaticContext{
			ClientProfile:  sc.ClientProfile,
			WebsiteContent: t.counter.TruncateToTokenLimit(website, budget),
		}
	}
	remaining := budget - websiteTokens

	kept := make([]proto.FileSummary, 0, len(sc.FileSummaries))
	for _, fs := range sc.FileSummaries {
		cost := t.counter.CountTokens(fs.Text)
		if cost > remaining {
			break
		}
		kept = append(kept, fs)
		remaining -= cost
	}

	return proto.StaticContext{ClientProfile: sc.ClientProfile, WebsiteContent: website, FileSummaries: kept}
}
