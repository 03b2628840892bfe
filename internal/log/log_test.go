package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestInfoProducesLogfmtWithTimestamp(t *testing.T) {
	buf := new(bytes.Buffer)
	original := Logger()
	ReplaceLogger(slog.New(newHandler(buf)))
	t.Cleanup(func() {
		ReplaceLogger(original)
	})

	Info(context.Background(), "hello", "user", "test")

	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatalf("expected log output, got empty string")
	}
	if !strings.Contains(line, "ts=") {
		t.Fatalf("expected timestamp field in log line, got %q", line)
	}
	if !strings.Contains(line, "level=info") {
		t.Fatalf("expected level field in log line, got %q", line)
	}
	if !strings.Contains(line, "msg=hello") {
		t.Fatalf("expected message field in log line, got %q", line)
	}
	if !strings.Contains(line, "user=test") {
		t.Fatalf("expected structured field in log line, got %q", line)
	}
}

func TestWithFieldsPrefixesContextFields(t *testing.T) {
	buf := new(bytes.Buffer)
	original := Logger()
	ReplaceLogger(slog.New(newHandler(buf)))
	t.Cleanup(func() {
		ReplaceLogger(original)
	})

	ctx := WithFields(context.Background(), "pipeline", "abc")
	ctx = WithFields(ctx, "owner_id", 7)
	Error(ctx, "write failed", "recipe_id", 3)

	line := strings.TrimSpace(buf.String())
	for _, want := range []string{"pipeline=abc", "owner_id=7", "recipe_id=3", "level=error"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in log line, got %q", want, line)
		}
	}
	if strings.Index(line, "pipeline=abc") > strings.Index(line, "recipe_id=3") {
		t.Fatalf("expected context fields before call-site fields, got %q", line)
	}
}

func TestSetLevelRejectsUnknown(t *testing.T) {
	if err := SetLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if err := SetLevel(" DEBUG "); err != nil {
		t.Fatalf("SetLevel(debug) error = %v", err)
	}
	t.Cleanup(func() { _ = SetLevel("info") })
}
