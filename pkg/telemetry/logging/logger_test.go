package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"sundial-hq/meridian/pkg/config"
)

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("provider revived", "provider", "openai-main")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["msg"] != "provider revived" {
		t.Errorf("msg = %v, want %q", entry["msg"], "provider revived")
	}
	if entry["provider"] != "openai-main" {
		t.Errorf("provider = %v, want %q", entry["provider"], "openai-main")
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&config.LoggingConfig{Level: "warn", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Error("info entry emitted at warn level")
	}
	if !strings.Contains(out, "emitted") {
		t.Error("warn entry missing")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&config.LoggingConfig{Level: "verbose", Format: "json"}, nil); err == nil {
		t.Fatal("New() expected error for unknown level")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(&config.LoggingConfig{Level: "info", Format: "logfmt"}, nil); err == nil {
		t.Fatal("New() expected error for unknown format")
	}
}

func TestContextAttrs(t *testing.T) {
	ctx := context.Background()
	if attrs := ContextAttrs(ctx); len(attrs) != 0 {
		t.Errorf("ContextAttrs(empty) = %v, want none", attrs)
	}

	ctx = WithRequestID(ctx, "req-123")
	ctx = WithEndpoint(ctx, "/fast")
	ctx = WithProvider(ctx, "backup")

	attrs := ContextAttrs(ctx)
	if len(attrs) != 6 {
		t.Fatalf("len(ContextAttrs) = %d, want 6", len(attrs))
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.With(attrs...).Info("attempt")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["request_id"] != "req-123" || entry["endpoint"] != "/fast" || entry["provider"] != "backup" {
		t.Errorf("unexpected context fields: %v", entry)
	}
}
