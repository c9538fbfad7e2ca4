package obslog

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogLoggerWritesAttributes(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	l := New(slog.New(handler))

	l.Info(context.Background(), "request sent", slog.String("url", "https://example.test/v1/chat/completions"))

	out := buf.String()
	if !strings.Contains(out, "request sent") || !strings.Contains(out, "example.test") {
		t.Fatalf("missing expected log content: %s", out)
	}
}

func TestNoopDiscardsSilently(t *testing.T) {
	l := Noop()
	l.Debug(context.Background(), "ignored")
	l.Error(context.Background(), "ignored", slog.Int("n", 1))
}
