// Package eventlog writes the engine's per-node observability spans to
// daily-rotated JSONL files, giving the "per-node spans" observability
// surface promises without requiring a full OpenTelemetry collector.
package eventlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Kind names the node a Span was emitted for.
type Kind string

const (
	KindValidatorPass Kind = "validator_pass"
	KindIteration     Kind = "iteration"
	KindToolCall      Kind = "tool_call"
)

// Span is one JSONL record: one Validator pass, one enrichment iteration,
// or one tool invocation. Detail carries node-specific fields (e.g. a tool
// call's params and error kind) as a pre-marshaled JSON object so Span
// itself stays fixed-shape across all three kinds.
type Span struct {
	RequestID  string          `json:"request_id"`
	Kind       Kind            `json:"kind"`
	Iteration  int             `json:"iteration"`
	Tool       string          `json:"tool,omitempty"`
	OK         bool            `json:"ok"`
	DurationMS int64           `json:"duration_ms"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

func (s *Span) toJSON() ([]byte, error) {
	return json.Marshal(s)
}

func spanFromJSON(data []byte) (*Span, error) {
	var s Span
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Writer handles structured logging of engine spans to daily rotated
// JSONL log files. Grounded on the teacher's pkg/eventlog.Writer, adapted
// from AgentMsg to Span.
type Writer struct {
	logDir       string
	currentFile  *os.File
	currentDate  string
	mu           sync.Mutex
	rotationHour int // Configured rotation interval in hours (default 24); files rotate when the calendar date changes
}

// NewWriter creates a new event log writer with daily rotation in the specified directory.
func NewWriter(logDir string, rotationHours int) (*Writer, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if rotationHours <= 0 {
		rotationHours = 24
	}

	writer := &Writer{
		logDir:       logDir,
		rotationHour: rotationHours,
	}

	if err := writer.rotateIfNeeded(); err != nil {
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}

	return writer, nil
}

// WriteSpan appends one span to the current log file, rotating first if needed.
func (w *Writer) WriteSpan(span *Span) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	jsonData, err := span.toJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize span: %w", err)
	}

	if _, err := w.currentFile.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write span: %w", err)
	}
	if _, err := w.currentFile.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := w.currentFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	return nil
}

func (w *Writer) rotateIfNeeded() error {
	now := time.Now()
	newDate := now.Format("2006-01-02")

	if w.currentFile == nil || w.currentDate != newDate {
		return w.rotate(newDate)
	}

	return nil
}

func (w *Writer) rotate(newDate string) error {
	if w.currentFile != nil {
		if err := w.currentFile.Close(); err != nil {
			return fmt.Errorf("failed to close current log file: %w", err)
		}
	}

	filename := fmt.Sprintf("events-%s.jsonl", newDate)
	path := filepath.Join(w.logDir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	w.currentFile = file
	w.currentDate = newDate

	return nil
}

// Close closes the current log file and cleans up resources.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile != nil {
		err := w.currentFile.Close()
		w.currentFile = nil
		if err != nil {
			return fmt.Errorf("failed to close event log file: %w", err)
		}
	}

	return nil
}

// GetCurrentLogFile returns the path of the currently active log file.
func (w *Writer) GetCurrentLogFile() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile == nil {
		return ""
	}

	return filepath.Join(w.logDir, fmt.Sprintf("events-%s.jsonl", w.currentDate))
}

// ReadSpans reads and parses spans from a specific log file.
func ReadSpans(logFilePath string) ([]*Span, error) {
	data, err := os.ReadFile(logFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	if len(data) == 0 {
		return []*Span{}, nil
	}

	var spans []*Span
	line := []byte{}

	for _, b := range data {
		if b == '\n' {
			if len(line) > 0 {
				span, err := spanFromJSON(line)
				if err != nil {
					return nil, fmt.Errorf("failed to parse span: %w", err)
				}
				spans = append(spans, span)
				line = []byte{}
			}
		} else {
			line = append(line, b)
		}
	}

	if len(line) > 0 {
		span, err := spanFromJSON(line)
		if err != nil {
			return nil, fmt.Errorf("failed to parse final span: %w", err)
		}
		spans = append(spans, span)
	}

	return spans, nil
}

// ListLogFiles returns all event log files in the log directory.
func ListLogFiles(logDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(logDir, "events-*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}

	return files, nil
}
