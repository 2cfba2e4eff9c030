package eventlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewWriter(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer writer.Close()

	if _, err := os.Stat(tmpDir); os.IsNotExist(err) {
		t.Error("Log directory was not created")
	}

	currentFile := writer.GetCurrentLogFile()
	if currentFile == "" {
		t.Error("No current log file set")
	}

	if _, err := os.Stat(currentFile); os.IsNotExist(err) {
		t.Error("Current log file does not exist")
	}
}

func TestWriteSpan(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer writer.Close()

	span := &Span{RequestID: "req-001", Kind: KindIteration, Iteration: 0, OK: true}

	if err := writer.WriteSpan(span); err != nil {
		t.Fatalf("Failed to write span: %v", err)
	}

	currentFile := writer.GetCurrentLogFile()
	data, err := os.ReadFile(currentFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	if len(data) == 0 {
		t.Error("Log file is empty")
	}

	if data[len(data)-1] != '\n' {
		t.Error("Log line should end with newline")
	}
}

func TestWriteMultipleSpans(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer writer.Close()

	spans := []*Span{
		{RequestID: "req-001", Kind: KindValidatorPass, Iteration: 0, OK: true},
		{RequestID: "req-001", Kind: KindToolCall, Iteration: 0, Tool: "fetch_page", OK: true},
		{RequestID: "req-001", Kind: KindToolCall, Iteration: 0, Tool: "web_search", OK: false},
	}

	for i, span := range spans {
		if err := writer.WriteSpan(span); err != nil {
			t.Fatalf("Failed to write span %d: %v", i, err)
		}
	}

	currentFile := writer.GetCurrentLogFile()
	readSpans, err := ReadSpans(currentFile)
	if err != nil {
		t.Fatalf("Failed to read spans: %v", err)
	}

	if len(readSpans) != len(spans) {
		t.Fatalf("Expected %d spans, got %d", len(spans), len(readSpans))
	}

	for i, readSpan := range readSpans {
		if readSpan.Kind != spans[i].Kind {
			t.Errorf("Span %d kind mismatch: expected %s, got %s", i, spans[i].Kind, readSpan.Kind)
		}
		if readSpan.Tool != spans[i].Tool {
			t.Errorf("Span %d tool mismatch: expected %s, got %s", i, spans[i].Tool, readSpan.Tool)
		}
		if readSpan.OK != spans[i].OK {
			t.Errorf("Span %d ok mismatch: expected %v, got %v", i, spans[i].OK, readSpan.OK)
		}
	}
}

func TestDailyRotation(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer writer.Close()

	span1 := &Span{RequestID: "req-today", Kind: KindIteration, OK: true}
	if err := writer.WriteSpan(span1); err != nil {
		t.Fatalf("Failed to write first span: %v", err)
	}

	initialFile := writer.GetCurrentLogFile()

	writer.mu.Lock()
	err = writer.rotate("2025-12-25")
	writer.mu.Unlock()
	if err != nil {
		t.Fatalf("Failed to manually rotate: %v", err)
	}

	span2 := &Span{RequestID: "req-christmas", Kind: KindIteration, OK: true}

	writer.mu.Lock()
	jsonData, err := span2.toJSON()
	if err != nil {
		writer.mu.Unlock()
		t.Fatalf("Failed to serialize span: %v", err)
	}
	if _, err := writer.currentFile.Write(jsonData); err != nil {
		writer.mu.Unlock()
		t.Fatalf("Failed to write span: %v", err)
	}
	if _, err := writer.currentFile.WriteString("\n"); err != nil {
		writer.mu.Unlock()
		t.Fatalf("Failed to write newline: %v", err)
	}
	err = writer.currentFile.Sync()
	writer.mu.Unlock()
	if err != nil {
		t.Fatalf("Failed to sync file: %v", err)
	}

	newFile := writer.GetCurrentLogFile()
	if initialFile == newFile {
		t.Errorf("Expected file to rotate from %s, but still using same file", initialFile)
	}

	originalSpans, err := ReadSpans(initialFile)
	if err != nil {
		t.Fatalf("Failed to read original file: %v", err)
	}
	if len(originalSpans) != 1 || originalSpans[0].RequestID != "req-today" {
		t.Errorf("Expected 1 span with request id req-today in original file, got %+v", originalSpans)
	}

	newSpans, err := ReadSpans(newFile)
	if err != nil {
		t.Fatalf("Failed to read new file: %v", err)
	}
	if len(newSpans) != 1 || newSpans[0].RequestID != "req-christmas" {
		t.Errorf("Expected 1 span with request id req-christmas in new file, got %+v", newSpans)
	}
}

func TestReadSpans(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "test-events.jsonl")

	span1 := &Span{RequestID: "req-1", Kind: KindToolCall, Tool: "seo_audit", OK: true}
	span2 := &Span{RequestID: "req-1", Kind: KindValidatorPass, OK: false}

	file, err := os.Create(logFile)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	json1, _ := json.Marshal(span1)
	json2, _ := json.Marshal(span2)
	file.Write(json1)
	file.WriteString("\n")
	file.Write(json2)
	file.WriteString("\n")
	file.Close()

	spans, err := ReadSpans(logFile)
	if err != nil {
		t.Fatalf("Failed to read spans: %v", err)
	}

	if len(spans) != 2 {
		t.Fatalf("Expected 2 spans, got %d", len(spans))
	}
	if spans[0].Tool != "seo_audit" {
		t.Errorf("Expected tool 'seo_audit', got %v", spans[0].Tool)
	}
	if spans[1].Kind != KindValidatorPass || spans[1].OK {
		t.Errorf("Expected second span to be a failed validator_pass, got %+v", spans[1])
	}
}

func TestReadEmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "empty.jsonl")

	file, err := os.Create(logFile)
	if err != nil {
		t.Fatalf("Failed to create empty file: %v", err)
	}
	file.Close()

	spans, err := ReadSpans(logFile)
	if err != nil {
		t.Fatalf("Failed to read empty file: %v", err)
	}

	if len(spans) != 0 {
		t.Errorf("Expected 0 spans from empty file, got %d", len(spans))
	}
}

func TestListLogFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testFiles := []string{
		"events-2025-01-01.jsonl",
		"events-2025-01-02.jsonl",
		"events-2025-01-03.jsonl",
		"other-file.txt",
	}

	for _, filename := range testFiles {
		filePath := filepath.Join(tmpDir, filename)
		file, err := os.Create(filePath)
		if err != nil {
			t.Fatalf("Failed to create test file %s: %v", filename, err)
		}
		file.Close()
	}

	logFiles, err := ListLogFiles(tmpDir)
	if err != nil {
		t.Fatalf("Failed to list log files: %v", err)
	}

	if len(logFiles) != 3 {
		t.Errorf("Expected 3 log files, got %d", len(logFiles))
	}

	for _, file := range logFiles {
		filename := filepath.Base(file)
		matched, err := filepath.Match("events-*.jsonl", filename)
		if err != nil {
			t.Fatalf("Failed to match pattern: %v", err)
		}
		if !matched {
			t.Errorf("File %s doesn't match expected pattern", filename)
		}
	}
}

func TestWriterClose(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}

	span := &Span{RequestID: "req-1", Kind: KindIteration, OK: true}
	if err := writer.WriteSpan(span); err != nil {
		t.Fatalf("Failed to write span: %v", err)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	if writer.currentFile != nil {
		t.Error("Expected current file to be nil after close")
	}

	if err := writer.WriteSpan(span); err != nil {
		t.Fatalf("Writing after close should work by creating new file, but got error: %v", err)
	}
}

func TestConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	if err != nil {
		t.Fatalf("Failed to create writer: %v", err)
	}
	defer writer.Close()

	done := make(chan bool, 10)

	for i := 0; i < 10; i++ {
		go func(id int) {
			span := &Span{RequestID: "req-concurrent", Kind: KindToolCall, Iteration: id, OK: true}
			if writeErr := writer.WriteSpan(span); writeErr != nil {
				t.Errorf("Failed to write span %d: %v", id, writeErr)
			}
			done <- true
		}(i)
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	currentFile := writer.GetCurrentLogFile()
	spans, err := ReadSpans(currentFile)
	if err != nil {
		t.Fatalf("Failed to read spans: %v", err)
	}

	if len(spans) != 10 {
		t.Errorf("Expected 10 spans, got %d", len(spans))
	}
}
