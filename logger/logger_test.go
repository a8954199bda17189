package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newJSONLogger(buf *bytes.Buffer, level string) *Logger {
	cfg := &Config{Level: level, Format: FormatJSON}
	return NewWithWriter(cfg, "test-svc", buf)
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-service")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-service" {
		t.Errorf("expected service 'test-service', got %q", l.service)
	}
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "debug")

	l.Info("component attached", map[string]interface{}{
		FieldComponent: "db",
		FieldStage:     "created",
	})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["message"] != "component attached" {
		t.Errorf("unexpected message %v", lines[0]["message"])
	}
	if lines[0][FieldComponent] != "db" {
		t.Errorf("expected component field, got %v", lines[0][FieldComponent])
	}
	if lines[0][FieldService] != "test-svc" {
		t.Errorf("expected service field, got %v", lines[0][FieldService])
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "warn")

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected only the warn line, got %d", len(lines))
	}
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "bogus", Format: FormatJSON}, "svc", &buf)
	l.Debug("hidden")
	l.Info("shown")
	if lines := decodeLines(t, &buf); len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info").WithComponent("cache")
	l.Info("hello")

	lines := decodeLines(t, &buf)
	if lines[0][FieldComponent] != "cache" {
		t.Errorf("expected component 'cache', got %v", lines[0][FieldComponent])
	}
}

func TestWithContext_NoSpan(t *testing.T) {
	l := NewNop()
	if got := l.WithContext(context.Background()); got != l {
		t.Error("expected same logger when context has no span")
	}
}

func TestWithContext_AddsTraceIDs(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	var buf bytes.Buffer
	newJSONLogger(&buf, "info").WithContext(ctx).Info("traced")

	lines := decodeLines(t, &buf)
	if lines[0][FieldTraceID] != span.SpanContext().TraceID().String() {
		t.Errorf("expected trace id, got %v", lines[0][FieldTraceID])
	}
	if lines[0][FieldSpanID] != span.SpanContext().SpanID().String() {
		t.Errorf("expected span id, got %v", lines[0][FieldSpanID])
	}
}

func TestWithFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	l := newJSONLogger(&buf, "info").
		WithFields(map[string]interface{}{FieldRunID: "r-1"}).
		WithError(errors.New("boom"))
	l.Error("failed")

	lines := decodeLines(t, &buf)
	if lines[0][FieldRunID] != "r-1" {
		t.Errorf("expected run_id, got %v", lines[0][FieldRunID])
	}
	if lines[0]["error"] != "boom" {
		t.Errorf("expected error field, got %v", lines[0]["error"])
	}
}

func TestInitAndGlobal(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	cfg := &Config{ServiceName: "init-svc", Level: "debug", Format: FormatJSON}
	Init(cfg)

	if GetGlobalLogger().service != "init-svc" {
		t.Errorf("expected global logger service 'init-svc', got %q", GetGlobalLogger().service)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected defaults applied, got output %q", cfg.Output)
	}

	custom := NewNop()
	SetGlobalLogger(custom)
	if GetGlobalLogger() != custom {
		t.Error("expected custom global logger")
	}
	Info("no panic")
	WithComponent("x").Debug("no panic")
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != FormatConsole {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"valid console", Config{Level: "debug", Format: "console"}, false},
		{"bad level", Config{Level: "verbose", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestConsoleFormatWrites(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: FormatConsole, NoColor: true}, "registry", &buf)
	l.Info("hello", Fields("component", "db"))
	out := buf.String()
	if !strings.Contains(out, "[REG][INF]") {
		t.Errorf("expected service and level tag, got %q", out)
	}
	if !strings.Contains(out, "component:") {
		t.Errorf("expected field name, got %q", out)
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
	if len(m) != 2 {
		t.Errorf("expected 2 fields, got %d", len(m))
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("clear", errors.New("x"))
	if ef[FieldOperation] != "clear" || ef[FieldError] != "x" {
		t.Errorf("unexpected error fields %v", ef)
	}
	df := DurationFields("construct", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("unexpected duration fields %v", df)
	}
	merged := MergeWithError(nil, errors.New("y"))
	if merged[FieldError] != "y" {
		t.Errorf("unexpected merged fields %v", merged)
	}
}
