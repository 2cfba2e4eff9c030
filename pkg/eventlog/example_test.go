package eventlog

import (
	"fmt"
	"os"
	"testing"
)

func ExampleWriter_usage() {
	tmpDir, err := os.MkdirTemp("", "eventlog_example")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer os.RemoveAll(tmpDir)

	fmt.Println("=== Event Log Demo ===")

	writer, err := NewWriter(tmpDir, 24)
	if err != nil {
		fmt.Printf("Failed to create writer: %v\n", err)
		return
	}
	defer writer.Close()

	requestID := "req-demo-001"

	writer.WriteSpan(&Span{RequestID: requestID, Kind: KindValidatorPass, Iteration: 0, OK: true})
	fmt.Println("Logged validator_pass: iteration 0")

	writer.WriteSpan(&Span{RequestID: requestID, Kind: KindToolCall, Iteration: 1, Tool: "fetch_page", OK: true, DurationMS: 420})
	fmt.Println("Logged tool_call: fetch_page (iteration 1)")

	writer.WriteSpan(&Span{RequestID: requestID, Kind: KindToolCall, Iteration: 1, Tool: "web_search", OK: false, DurationMS: 30000})
	fmt.Println("Logged tool_call: web_search failed (iteration 1)")

	writer.WriteSpan(&Span{RequestID: requestID, Kind: KindIteration, Iteration: 1, OK: true})
	fmt.Println("Logged iteration: 1 complete")

	writer.WriteSpan(&Span{RequestID: requestID, Kind: KindValidatorPass, Iteration: 1, OK: true})
	fmt.Println("Logged validator_pass: iteration 1")

	currentLogFile := writer.GetCurrentLogFile()
	spans, err := ReadSpans(currentLogFile)
	if err != nil {
		fmt.Printf("Failed to read spans: %v\n", err)
		return
	}

	fmt.Printf("\nSpan log summary: %d spans recorded\n", len(spans))
	for i, span := range spans {
		fmt.Printf("  %d. iteration=%d kind=%s tool=%q ok=%v\n", i+1, span.Iteration, span.Kind, span.Tool, span.OK)
	}

	fmt.Printf("\nLog file: %s\n", currentLogFile)
	fmt.Println("=== End Demo ===")
}

func TestEventLogUsage(t *testing.T) {
	ExampleWriter_usage()
}
