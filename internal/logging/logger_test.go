package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ncmirtools/internal/config"
	"ncmirtools/internal/logging"
)

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf, Component: "imagetokiosk"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("transfer started", logging.String(logging.FieldFile, "/data/a b.dm4"), logging.Int64(logging.FieldBytes, 42))

	line := buf.String()
	if !strings.Contains(line, " INFO imagetokiosk: transfer started") {
		t.Fatalf("unexpected prefix in %q", line)
	}
	if !strings.Contains(line, `file="/data/a b.dm4"`) || !strings.Contains(line, "bytes=42") {
		t.Fatalf("expected fields in %q", line)
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", line)
	}
}

func TestConsoleLoggerPrefixesRunIDAndSize(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithRunID(context.Background(), "1a2b3c4d-0000-4000-8000-000000000000")
	logging.WithContext(ctx, logging.NewComponentLogger(logger, "transport")).
		Info("transfer complete", logging.Int64(logging.FieldBytes, 5*1024*1024))

	line := buf.String()
	if !strings.Contains(line, " INFO [1a2b3c4d] transport: transfer complete") {
		t.Fatalf("unexpected prefix in %q", line)
	}
	if !strings.Contains(line, "bytes=5242880 size=5.0MiB") {
		t.Fatalf("expected raw and readable size in %q", line)
	}
	if strings.Contains(line, "run_id=") {
		t.Fatalf("run_id should only appear as prefix in %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information, got %q", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestJSONLoggerCarriesRunID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithRunID(context.Background(), "")
	id, ok := logging.RunIDFromContext(ctx)
	if !ok || id == "" {
		t.Fatal("expected generated run id")
	}
	logging.WithContext(ctx, logger).Info("hello", logging.Duration("duration", 1500*time.Millisecond))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["run_id"] != id {
		t.Fatalf("expected run_id %q, got %v", id, entry["run_id"])
	}
	if entry["level"] != "info" || entry["msg"] != "hello" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key in %v", entry)
	}
	if entry["duration"] != 1.5 {
		t.Fatalf("expected duration in seconds, got %v", entry["duration"])
	}
	if host, _ := os.Hostname(); host != "" && entry[logging.FieldHost] != host {
		t.Fatalf("expected host %q, got %v", host, entry[logging.FieldHost])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigWritesRotatedFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "info"
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "ncmirtools.log")

	logger, err := logging.NewFromConfig(&cfg, "test")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("persisted")

	content, err := os.ReadFile(cfg.Logging.File)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "test: persisted") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNopLogger(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should not be enabled")
	}
	logging.WithContext(nil, nil).Info("discarded") //nolint:staticcheck
}
