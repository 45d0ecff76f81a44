package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/msomdec/solifound/internal/logging"
)

func TestNew_AddsCorrelationID(t *testing.T) {
	var text, js bytes.Buffer
	logger := logging.New(&text, &js, slog.LevelInfo)

	ctx := logging.WithCorrelationID(context.Background(), "abc-123")
	logger.With("component", "test").InfoContext(ctx, "hello")

	if !strings.Contains(text.String(), "correlation_id=abc-123") {
		t.Fatalf("text output missing correlation id: %s", text.String())
	}
	var rec map[string]any
	if err := json.Unmarshal(js.Bytes(), &rec); err != nil {
		t.Fatalf("decode json record: %v", err)
	}
	if rec["correlation_id"] != "abc-123" || rec["component"] != "test" {
		t.Fatalf("unexpected json record: %v", rec)
	}
}

func TestNew_RespectsLevel(t *testing.T) {
	var text, js bytes.Buffer
	logger := logging.New(&text, &js, slog.LevelWarn)

	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Contains(text.String(), "dropped") || !strings.Contains(text.String(), "kept") {
		t.Fatalf("unexpected output: %s", text.String())
	}
}

func TestCorrelationID_Missing(t *testing.T) {
	if id := logging.CorrelationID(context.Background()); id != "" {
		t.Fatalf("expected empty id, got %q", id)
	}
}
