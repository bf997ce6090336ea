package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/unklstewy/nearest-aircraft/pkg/config"
)

// TestParseLevel tests level parsing.
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

// TestNewHandler tests JSON and text output.
func TestNewHandler(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, "json", slog.LevelInfo)).Info("hello", "flight", "UAL123")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["flight"] != "UAL123" {
		t.Errorf("Unexpected entry %v", entry)
	}

	buf.Reset()
	logger := slog.New(NewHandler(&buf, "text", slog.LevelWarn))
	logger.Info("dropped")
	logger.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "msg=kept") {
		t.Errorf("Unexpected text output %q", buf.String())
	}
}

// TestNewWithFile tests logging to a rotating file.
func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nearest.log")
	cfg := config.DefaultConfig().Logging
	cfg.File = path

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	l.Info("sighting recorded", "hex", "abc123")
	if err := l.Close(); err != nil {
		t.Fatalf("Unexpected close error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	if !strings.Contains(string(data), `"hex":"abc123"`) {
		t.Errorf("Expected entry in log file, got %q", data)
	}
	if l.LogFile != path {
		t.Errorf("Expected LogFile %s, got %s", path, l.LogFile)
	}
}

// TestNewInvalidLevel tests that a bad level is reported.
func TestNewInvalidLevel(t *testing.T) {
	cfg := config.DefaultConfig().Logging
	cfg.Level = "loud"
	if _, err := New(cfg); err == nil {
		t.Error("Expected error for invalid level")
	}
}
