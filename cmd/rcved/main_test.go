package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rcve/pkg/config"
	"rcve/pkg/enrichment"
	"rcve/pkg/executor"
	"rcve/pkg/llm"
	"rcve/pkg/logx"
	"rcve/pkg/planner"
	"rcve/pkg/proto"
	"rcve/pkg/tools"
	"rcve/pkg/validator"
)

func verdictResponse(complete bool, confidence float64, category string) llm.CompletionResponse {
	return llm.CompletionResponse{ToolCalls: []llm.ToolCall{{
		Name: "emit_validation",
		Parameters: map[string]any{
			"complete":   complete,
			"missing":    []string{},
			"confidence": confidence,
			"category":   category,
		},
	}}}
}

func testEngine() *enrichment.Engine {
	cfg := config.Defaults()
	cfg.ToolBudgets = map[string]int{}

	p := planner.New(llm.NewMockClient("mock-planner", nil, nil), cfg.PlannerModel, nil)
	v := validator.New(
		llm.NewMockClient("mock-validator", []llm.CompletionResponse{verdictResponse(true, 0.95, "bug_fix")}, nil),
		cfg.ValidatorModel, cfg.ConfidenceThresholds, nil,
	)
	return enrichment.New(p, executor.New(), v, cfg, tools.Deps{}, nil, nil)
}

func TestProcessOneWritesCompletedOutcomeToOutbox(t *testing.T) {
	inboxDir := t.TempDir()
	outboxDir := t.TempDir()
	log := logx.NewLogger("test")

	in := proto.RunInput{RequestID: "job-1", RawRequest: "fix the broken contact link"}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	jobPath := filepath.Join(inboxDir, "job-1.json")
	require.NoError(t, os.WriteFile(jobPath, data, 0o644))

	eng := testEngine()
	require.NoError(t, processOne(context.Background(), jobPath, data, outboxDir, eng, nil, log))

	outPath := filepath.Join(outboxDir, "job-1.json")
	outData, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var completed proto.CompletedOutcome
	require.NoError(t, json.Unmarshal(outData, &completed))
	assert.Equal(t, "job-1", completed.RequestID)
	assert.Equal(t, proto.CategoryBugFix, completed.Category)
}

func TestProcessOneAssignsRequestIDWhenMissing(t *testing.T) {
	inboxDir := t.TempDir()
	outboxDir := t.TempDir()
	log := logx.NewLogger("test")

	in := proto.RunInput{RawRequest: "swap the hero banner"}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	jobPath := filepath.Join(inboxDir, "anonymous.json")
	require.NoError(t, os.WriteFile(jobPath, data, 0o644))

	eng := testEngine()
	require.NoError(t, processOne(context.Background(), jobPath, data, outboxDir, eng, nil, log))

	entries, err := os.ReadDir(outboxDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "a generated request id must still produce exactly one outcome file")
}

func TestWriteOutcomeSanitizesRequestIDForFilename(t *testing.T) {
	outboxDir := t.TempDir()
	outcome := enrichment.Outcome{Completed: &proto.CompletedOutcome{RequestID: "weird/id:with\\chars"}}

	require.NoError(t, writeOutcome(outboxDir, "weird/id:with\\chars", outcome))

	entries, err := os.ReadDir(outboxDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "/")
	assert.NotContains(t, entries[0].Name(), "\\")
}
