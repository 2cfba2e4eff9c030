package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcve/pkg/config"
	"rcve/pkg/contextmgr"
	"rcve/pkg/llm"
	"rcve/pkg/proto"
)

func toolCallResponse(params map[string]any) llm.CompletionResponse {
	return llm.CompletionResponse{
		ToolCalls: []llm.ToolCall{{Name: toolName, Parameters: params}},
	}
}

func defaultThresholds() config.Thresholds {
	return config.Thresholds{0.85, 0.75, 0.65, 0.60}
}

func TestValidateAcceptsCompleteVerdictAboveThreshold(t *testing.T) {
	client := llm.NewMockClient("mock-validator", []llm.CompletionResponse{
		toolCallResponse(map[string]any{
			"complete":   true,
			"missing":    []any{},
			"confidence": 0.9,
			"category":   string(proto.CategoryContentUpdate),
		}),
	}, nil)

	v := New(client, config.ModelConfig{}, defaultThresholds(), nil)
	res, err := v.Validate(context.Background(), Input{Request: proto.Request{RawText: "swap the hero text"}, Iteration: 0})
	require.NoError(t, err)
	assert.True(t, res.Complete)
	assert.Equal(t, proto.CategoryContentUpdate, res.Category)
}

func TestValidateRejectsCompleteVerdictBelowThreshold(t *testing.T) {
	client := llm.NewMockClient("mock-validator", []llm.CompletionResponse{
		toolCallResponse(map[string]any{
			"complete":   true,
			"missing":    []any{},
			"confidence": 0.70,
			"category":   string(proto.CategoryContentUpdate),
		}),
	}, nil)

	v := New(client, config.ModelConfig{}, defaultThresholds(), nil)
	res, err := v.Validate(context.Background(), Input{Request: proto.Request{RawText: "swap the hero text"}, Iteration: 0})
	require.NoError(t, err)
	assert.False(t, res.Complete, "0.70 confidence must not clear the iteration-0 threshold of 0.85")
}

func TestValidateFallsBackToUnclearForInvalidCategory(t *testing.T) {
	client := llm.NewMockClient("mock-validator", []llm.CompletionResponse{
		toolCallResponse(map[string]any{
			"complete":   false,
			"missing":    []any{"what page"},
			"confidence": 0.5,
			"category":   "not_a_real_category",
		}),
	}, nil)

	v := New(client, config.ModelConfig{}, defaultThresholds(), nil)
	res, err := v.Validate(context.Background(), Input{Request: proto.Request{RawText: "do something"}})
	require.NoError(t, err)
	assert.Equal(t, proto.CategoryUnclear, res.Category)
}

func TestValidateReturnsErrorWhenNoMatchingToolCall(t *testing.T) {
	client := llm.NewMockClient("mock-validator", []llm.CompletionResponse{{Content: "no tool call here"}}, nil)
	v := New(client, config.ModelConfig{}, defaultThresholds(), nil)
	_, err := v.Validate(context.Background(), Input{Request: proto.Request{RawText: "anything"}})
	assert.Error(t, err)
}

func TestRenderUserPromptTrimsStaticContext(t *testing.T) {
	trimmer, err := contextmgr.NewTrimmer(15, 10)
	require.NoError(t, err)

	in := Input{
		Request: proto.Request{RawText: "update the pricing page"},
		StaticContext: proto.StaticContext{
			WebsiteContent: "some reasonably long piece of website content to trim down",
		},
		DynamicContext: proto.DynamicContext{
			"price": {Value: "$10", SourceTool: "fetch_page", Confidence: 0.9},
		},
	}

	prompt := renderUserPrompt(in, trimmer)
	assert.Contains(t, prompt, "price = $10")
	assert.NotContains(t, prompt, "to trim down")
	assert.Less(t, len(prompt), 400)
}

func TestRenderUserPromptIncludesPriorMissingQuestions(t *testing.T) {
	in := Input{
		Request: proto.Request{RawText: "add testimonials section"},
		History: []proto.IterationRecord{
			{MissingBefore: []string{"which section"}},
		},
	}

	prompt := renderUserPrompt(in, nil)
	assert.Contains(t, prompt, "which section")
}
