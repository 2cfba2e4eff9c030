package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClientReturnsQueuedResponsesInOrder(t *testing.T) {
	client := NewMockClient("mock-model", []CompletionResponse{
		{Content: "first"},
		{Content: "second"},
	}, nil)

	resp, err := client.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.Content)

	resp, err = client.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.Content)

	_, err = client.Complete(context.Background(), CompletionRequest{})
	assert.Error(t, err)
}

func TestMockClientReturnsQueuedErrorsInOrder(t *testing.T) {
	boom := errors.New("boom")
	client := NewMockClient("mock-model", []CompletionResponse{{Content: "ok"}}, []error{boom})

	_, err := client.Complete(context.Background(), CompletionRequest{})
	assert.ErrorIs(t, err, boom)

	resp, err := client.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestMockClientStreamEmitsSingleDoneChunk(t *testing.T) {
	client := NewMockClient("mock-model", []CompletionResponse{{Content: "streamed"}}, nil)
	ch, err := client.Stream(context.Background(), CompletionRequest{})
	require.NoError(t, err)

	chunk := <-ch
	assert.Equal(t, "streamed", chunk.Content)
	assert.True(t, chunk.Done)

	_, ok := <-ch
	assert.False(t, ok)
}

func TestMockClientGetModelName(t *testing.T) {
	client := NewMockClient("haiku", nil, nil)
	assert.Equal(t, "haiku", client.GetModelName())
}
