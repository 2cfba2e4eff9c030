package llm

import (
	"context"
	"fmt"

	"rcve/pkg/limiter"
)

// LimitedClient wraps an LLMClient with pkg/limiter's per-model agent-slot
// and token-rate reservation. Every Planner and Validator call flows through
// one of these so that a fleet of concurrent requests sharing the same
// underlying model never collectively exceeds its concurrency or token-rate
// ceiling. The limiter's daily spend budget is not reserved here.
type LimitedClient struct {
	inner LLMClient
	lim   *limiter.Limiter
	model string
}

// NewLimitedClient builds a LimitedClient for one model. lim may be nil, in
// which case every call passes through unreserved — useful for tests and
// for roles that intentionally share no budget with anything else.
func NewLimitedClient(inner LLMClient, lim *limiter.Limiter, model string) *LimitedClient {
	return &LimitedClient{inner: inner, lim: lim, model: model}
}

// Complete reserves an agent slot and the request's max token allotment
// before delegating, releasing the agent slot once the call returns.
func (c *LimitedClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	if c.lim == nil {
		return c.inner.Complete(ctx, in)
	}

	if err := c.lim.ReserveAgent(c.model); err != nil {
		return CompletionResponse{}, fmt.Errorf("reserve agent slot for %s: %w", c.model, err)
	}
	defer func() { _ = c.lim.ReleaseAgent(c.model) }()

	if err := c.lim.Reserve(c.model, in.MaxTokens); err != nil {
		return CompletionResponse{}, fmt.Errorf("reserve tokens for %s: %w", c.model, err)
	}

	return c.inner.Complete(ctx, in)
}

// Stream applies the same agent-slot reservation as Complete; the token
// reservation is skipped since streamed responses do not have a known
// token count up front.
func (c *LimitedClient) Stream(ctx context.Context, in CompletionRequest) (<-chan StreamChunk, error) {
	if c.lim == nil {
		return c.inner.Stream(ctx, in)
	}

	if err := c.lim.ReserveAgent(c.model); err != nil {
		return nil, fmt.Errorf("reserve agent slot for %s: %w", c.model, err)
	}

	ch, err := c.inner.Stream(ctx, in)
	if err != nil {
		_ = c.lim.ReleaseAgent(c.model)
		return nil, err
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		defer func() { _ = c.lim.ReleaseAgent(c.model) }()
		for chunk := range ch {
			out <- chunk
		}
	}()
	return out, nil
}

// GetModelName delegates to the wrapped client.
func (c *LimitedClient) GetModelName() string {
	return c.inner.GetModelName()
}
