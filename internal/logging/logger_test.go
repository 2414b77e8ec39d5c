package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"clipforge/internal/services"
)

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	logger.Info("pipeline started",
		String(FieldComponent, "workflow"),
		String("topic", "laptop review"),
		Int("steps", 5),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO workflow: pipeline started") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, `topic="laptop review"`) {
		t.Fatalf("expected quoted topic attr, got %q", line)
	}
	if !strings.Contains(line, "steps=5") {
		t.Fatalf("expected steps attr, got %q", line)
	}
}

func TestJSONHandlerUsesStableKeys(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))

	logger.Warn("poll failed", String("reason", "timeout"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["msg"] != "poll failed" {
		t.Fatalf("unexpected msg %v", record["msg"])
	}
	if record["level"] != "warn" {
		t.Fatalf("unexpected level %v", record["level"])
	}
	if _, ok := record["ts"]; !ok {
		t.Fatal("expected ts key")
	}
}

func TestWithContextStampsRunAndStep(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	base := slog.New(newConsoleHandler(&buf, lvl, false))

	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithStep(ctx, "titles")
	WithContext(ctx, base).Info("step started")

	line := buf.String()
	if !strings.Contains(line, "run_id=run-1") {
		t.Fatalf("expected run_id attr, got %q", line)
	}
	if !strings.Contains(line, "step=titles") {
		t.Fatalf("expected step attr, got %q", line)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
