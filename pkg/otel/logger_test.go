package otel_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/easyops/adqa-go/pkg/otel"
)

func TestSlogLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := otel.NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	logger.With("component", "generator").Warn("generation failed", "error_type", "timeout")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if entry["component"] != "generator" || entry["error_type"] != "timeout" {
		t.Fatalf("unexpected log entry: %v", entry)
	}
	if entry["msg"] != "generation failed" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := otel.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adqa.log")
	cfg := otel.DefaultConfig().Logging
	cfg.File = path
	cfg.Format = "json"

	logger, closer := otel.NewLogger(cfg)
	logger.Info("server started", "addr", ":8000")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"addr":":8000"`) {
		t.Fatalf("expected log line in file, got %q", data)
	}
}

func TestNewLogger_LevelFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adqa.log")
	cfg := otel.DefaultConfig().Logging
	cfg.File = path
	cfg.Level = "warn"

	logger, closer := otel.NewLogger(cfg)
	logger.Info("hidden")
	logger.Warn("visible")
	closer.Close()

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "hidden") || !strings.Contains(string(data), "visible") {
		t.Fatalf("level filter not applied: %q", data)
	}
}
