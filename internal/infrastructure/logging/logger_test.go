package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nerrad567/logq"
	"github.com/nerrad567/logq/internal/infrastructure/config"
)

// Compile-time check that Logger can be used as logq diagnostics.
var _ logq.Diagnostics = (*Logger)(nil)

func TestNew_Outputs(t *testing.T) {
	for _, output := range []string{"stdout", "stderr", "discard", ""} {
		logger := New(config.LoggingConfig{Level: "info", Format: "json", Output: output}, "1.0.0")
		if logger == nil {
			t.Fatalf("New(output=%q) returned nil", output)
		}
		if err := logger.Close(); err != nil {
			t.Errorf("Close(output=%q) error = %v", output, err)
		}
	}
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "logq-diag.log")
	logger := New(config.LoggingConfig{Level: "info", Format: "text", Output: path}, "1.0.0")

	logger.Info("settings reloaded", "modules", 3)
	if err := logger.With("component", "api").Close(); err != nil {
		t.Errorf("child Close() error = %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "msg=\"settings reloaded\"") || !strings.Contains(string(data), "modules=3") {
		t.Errorf("log file = %q", data)
	}
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "json"}, "1.2.3", &buf)

	logger.With("component", "sinks").Warn("sink failed", "sink", "file")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	want := map[string]any{
		"service":   "logq",
		"version":   "1.2.3",
		"component": "sinks",
		"sink":      "file",
		"msg":       "sink failed",
		"level":     "WARN",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("entry[%q] = %v, want %v", k, entry[k], v)
		}
	}
}

func TestNewWithWriter_TextAndLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "text"}, "dev", &buf)

	logger.Info("hidden")
	logger.Error("shown", "error", "boom")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message passed a warn threshold:\n%s", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "service=logq") {
		t.Errorf("unexpected text output:\n%s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := parseLevel(tt.input); result != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	logger := Default()
	child := logger.With("component", "mqtt")

	if child == nil {
		t.Fatal("expected non-nil child logger")
	}
	if child == logger {
		t.Error("expected child logger to be different from parent")
	}
}
