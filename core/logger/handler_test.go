package logger

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"
)

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newLineWriter([]io.Writer{buf})
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: w,
		format: formatKV,
	})
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "flow")
	LogEvent(ctx, log, slog.LevelInfo, "test.event",
		slog.String("status", "ok"),
		slog.String("state", "AWAIT_NAME"),
	)
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected log line")
	}
	tokens := strings.Split(line, " ")
	expected := []string{"ts=", "level=INFO", "component=flow", "event=test.event", "status=ok", "rid=rid-123"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%s)", len(tokens), line)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newLineWriter([]io.Writer{buf})
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: w,
		format: formatJSON,
	})
	ctx := WithRID(context.Background(), "rid-json")
	ctx = WithUpdateMeta(ctx, 11, 22, 33)

	log := slog.New(handler).With("component", "review")
	LogEvent(ctx, log, slog.LevelError, "decision.failed",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(line, "{") {
		t.Fatalf("expected JSON, got %s", line)
	}
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"review"`, `"event":"decision.failed"`, `"status":"fail"`, `"rid":"rid-json"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerDurationNormalized(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newLineWriter([]io.Writer{buf})
	handler := newStructuredHandler(handlerConfig{
		level:  slog.LevelInfo,
		writer: w,
		format: formatKV,
	})
	log := slog.New(handler)
	LogEvent(context.Background(), log, slog.LevelInfo, "timing",
		slog.Duration("duration", 1500*time.Microsecond),
	)
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	line := strings.TrimSpace(buf.String())
	if !strings.Contains(line, "duration_ms=2") {
		t.Fatalf("expected rounded duration_ms, got %s", line)
	}
}

func TestSanitizeLimit(t *testing.T) {
	in := "hello\x00world\x1b[0m"
	got := SanitizeLimit(in, 8)
	if got != "hellowor" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
}
