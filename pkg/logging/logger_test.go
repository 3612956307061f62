package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestLoggerWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewStructuredLogger("eduscan-api", "1.0.0", InfoLevel)
	l.SetOutput(&buf)

	ctx := WithRequestID(context.Background(), "req-1")
	l.Info(ctx, "[TEST] hello", Fields{"n": 1})

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if got["level"] != "INFO" {
		t.Errorf("level = %v, want INFO", got["level"])
	}
	if got["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", got["request_id"])
	}
	if got["service"] != "eduscan-api" {
		t.Errorf("service = %v", got["service"])
	}
}

func TestLoggerFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewStructuredLogger("svc", "1", WarnLevel)
	l.SetOutput(&buf)

	l.Debug(context.Background(), "debug", nil)
	l.Info(context.Background(), "info", nil)
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}

	l.Error(context.Background(), "boom", nil, errors.New("disk full"))
	out := buf.String()
	if !strings.Contains(out, `"error":"disk full"`) {
		t.Errorf("missing error field: %s", out)
	}
	if !strings.Contains(out, `"caller"`) {
		t.Errorf("missing caller at ERROR: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
