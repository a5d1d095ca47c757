package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	_ = w.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		t.Fatalf("read pipe: %v", err)
	}
	return buf.String()
}

func TestInfoWritesStructuredLine(t *testing.T) {
	Configure("info", "json")
	out := captureStdout(t, func() {
		Info("recommendation.generated", map[string]any{
			"provider": "gemini",
			"error":    errors.New("boom"),
			"count":    3,
		})
	})

	var line map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &line); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if line["msg"] != "recommendation.generated" || line["level"] != "info" {
		t.Fatalf("unexpected line: %v", line)
	}
	if line["provider"] != "gemini" || line["error"] != "boom" || line["count"] != float64(3) {
		t.Fatalf("unexpected fields: %v", line)
	}
	if _, ok := line["ts"]; !ok {
		t.Fatalf("missing ts: %v", line)
	}
}

func TestConfigureFiltersByLevel(t *testing.T) {
	Configure("warn", "json")
	defer Configure("info", "json")

	out := captureStdout(t, func() {
		Info("dropped", nil)
		Warn("kept", nil)
	})
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestConfigureUnknownLevelFallsBackToInfo(t *testing.T) {
	Configure("chatty", "json")
	out := captureStdout(t, func() {
		Info("visible", nil)
	})
	if !strings.Contains(out, "visible") {
		t.Fatalf("expected info line, got %q", out)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestID(ctx); got != "req-1" {
		t.Fatalf("RequestID = %q", got)
	}
	if got := RequestID(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}
