package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestWithRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")

	if lc := GetContext(ctx); lc.RunID != "run-123" {
		t.Errorf("expected run-123, got %s", lc.RunID)
	}
}

func TestWithStagePreservesRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	ctx = WithStage(ctx, "generate")

	lc := GetContext(ctx)
	if lc.RunID != "run-123" || lc.Stage != "generate" {
		t.Errorf("unexpected context %+v", lc)
	}
}

func TestContextAttrsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	ctx := WithStage(WithRunID(context.Background(), "run-9"), "solve")
	InfoContext(ctx, "step started", slog.String("command", "./solver"))
	DebugContext(ctx, "debug line")

	out := buf.String()
	for _, want := range []string{"run.id=run-9", "stage=solve", "command=./solver", "debug line"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")
	logger.Info("hello", "rows", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output: %v (%s)", err, buf.String())
	}
	if rec["msg"] != "hello" {
		t.Errorf("unexpected record %v", rec)
	}
}
