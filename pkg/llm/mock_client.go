package llm

import (
	"context"
	"fmt"
)

// MockClient provides a controllable LLMClient for tests in pkg/planner and
// pkg/validator that need deterministic completions without a live API key.
type MockClient struct {
	model         string
	responses     []CompletionResponse
	errors        []error
	responseIndex int
	errorIndex    int
}

// NewMockClient creates a mock client that returns responses and errors in
// order as Complete is called. Either slice may be shorter than the number
// of calls made; extra calls return a "no more responses queued" error.
func NewMockClient(model string, responses []CompletionResponse, errors []error) *MockClient {
	return &MockClient{
		model:     model,
		responses: responses,
		errors:    errors,
	}
}

// Complete returns the next queued response or error.
func (m *MockClient) Complete(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
	if m.errorIndex < len(m.errors) && m.errors[m.errorIndex] != nil {
		err := m.errors[m.errorIndex]
		m.errorIndex++
		return CompletionResponse{}, err
	}
	if m.responseIndex >= len(m.responses) {
		return CompletionResponse{}, fmt.Errorf("mock llm client: no more responses queued")
	}
	resp := m.responses[m.responseIndex]
	m.responseIndex++
	return resp, nil
}

// Stream emits the next queued response as a single chunk.
func (m *MockClient) Stream(ctx context.Context, in CompletionRequest) (<-chan StreamChunk, error) {
	resp, err := m.Complete(ctx, in)
	if err != nil {
		return nil, err
	}
	ch := make(chan StreamChunk, 1)
	go func() {
		defer close(ch)
		ch <- StreamChunk{Content: resp.Content, Done: true}
	}()
	return ch, nil
}

// GetModelName returns the configured model name.
func (m *MockClient) GetModelName() string {
	return m.model
}
