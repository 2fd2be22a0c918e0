package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{"info", "info", slog.LevelInfo},
		{"debug", "debug", slog.LevelDebug},
		{"trace", "trace", LevelTrace},
		{"uppercase INFO", "INFO", slog.LevelInfo},
		{"uppercase TRACE", "TRACE", LevelTrace},
		{"mixed case Debug", "Debug", slog.LevelDebug},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		logAtDebug bool
		logAtInfo  bool
	}{
		{"info filters debug", "info", false, true},
		{"debug passes debug", "debug", true, true},
		{"trace passes debug", "trace", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(tt.level, &buf)

			logger.Debug("debug message")
			hasDebug := strings.Contains(buf.String(), "debug message")
			if hasDebug != tt.logAtDebug {
				t.Errorf("debug message visible = %v, want %v (buf: %q)", hasDebug, tt.logAtDebug, buf.String())
			}

			buf.Reset()
			logger.Info("info message")
			hasInfo := strings.Contains(buf.String(), "info message")
			if hasInfo != tt.logAtInfo {
				t.Errorf("info message visible = %v, want %v (buf: %q)", hasInfo, tt.logAtInfo, buf.String())
			}
		})
	}
}

func TestLevelTrace(t *testing.T) {
	// Trace should be below debug (more verbose)
	if LevelTrace >= slog.LevelDebug {
		t.Errorf("LevelTrace (%d) should be less than LevelDebug (%d)", LevelTrace, slog.LevelDebug)
	}
}

func TestNewTraceLogger_InfoLevel(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "info")

	// At info level, trace logger should be nil
	if tl != nil {
		t.Error("expected nil TraceLogger at info level")
	}

	// Nil logger should still be safe to use
	tl.Log(map[string]any{"event": "test"})
	tl.LogLimited("step", map[string]any{"step": 1})

	path := filepath.Join(dir, "trace.jsonl")
	if _, err := os.Stat(path); err == nil {
		t.Error("trace.jsonl should not exist at info level")
	}
}

func TestNewTraceLogger_DebugLevel(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	defer tl.Close()

	tl.Log(map[string]any{"event": "step_complete", "goodness": 0.87})

	path := filepath.Join(dir, "trace.jsonl")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read trace.jsonl: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("failed to parse JSONL entry: %v", err)
	}

	if entry["event"] != "step_complete" {
		t.Errorf("event = %v, want step_complete", entry["event"])
	}
	if entry["goodness"] != 0.87 {
		t.Errorf("goodness = %v, want 0.87", entry["goodness"])
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected 'time' field in trace entry")
	}
}

func TestNewTraceLogger_MultipleWrites(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	defer tl.Close()

	tl.Log(map[string]any{"event": "first"})
	tl.Log(map[string]any{"event": "second"})

	path := filepath.Join(dir, "trace.jsonl")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read trace.jsonl: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), string(data))
	}

	var first, second map[string]any
	json.Unmarshal([]byte(lines[0]), &first)
	json.Unmarshal([]byte(lines[1]), &second)

	if first["event"] != "first" {
		t.Errorf("first event = %v, want 'first'", first["event"])
	}
	if second["event"] != "second" {
		t.Errorf("second event = %v, want 'second'", second["event"])
	}
}

func TestTraceLogger_LogLimited(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "trace")
	defer tl.Close()

	// Burst is 20; write 50 and expect the excess to be dropped.
	for i := 0; i < 50; i++ {
		tl.LogLimited("layer_step", map[string]any{"step": i})
	}

	path := filepath.Join(dir, "trace.jsonl")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read trace.jsonl: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) >= 50 {
		t.Errorf("expected rate limiting to drop events, got all %d", len(lines))
	}
	if len(lines) < 20 {
		t.Errorf("expected at least the burst of 20 events, got %d", len(lines))
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("failed to parse JSONL entry: %v", err)
	}
	if entry["event"] != "layer_step" {
		t.Errorf("event = %v, want layer_step", entry["event"])
	}
}

func TestTraceLogger_NilSafety(t *testing.T) {
	// nil TraceLogger should not panic
	var tl *TraceLogger
	tl.Log(map[string]any{"event": "should_not_panic"})
	tl.LogLimited("step", nil)
	tl.Close()
}

func TestTraceLogger_DoesNotMutateCallerMap(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	defer tl.Close()

	event := map[string]any{"event": "test"}
	tl.Log(event)

	if _, hasTime := event["time"]; hasTime {
		t.Error("Log() should not mutate caller's map, but 'time' was injected")
	}
}

func TestTraceLogger_LogAfterClose(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")

	tl.Log(map[string]any{"event": "before_close"})
	tl.Close()

	// Should be a no-op, not panic or error
	tl.Log(map[string]any{"event": "after_close"})
}

func TestNewTraceLogger_CreatesDir(t *testing.T) {
	base := t.TempDir()
	nestedDir := filepath.Join(base, "sub", "dir")

	tl := NewTraceLogger(nestedDir, "debug")
	if tl == nil {
		t.Fatal("expected non-nil TraceLogger when dir needs creation")
	}
	defer tl.Close()

	tl.Log(map[string]any{"event": "dir_create_test"})

	path := filepath.Join(nestedDir, "trace.jsonl")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("trace.jsonl should exist after dir creation: %v", err)
	}
}
