package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("expected default level to be info, got %s", cfg.Level)
	}
	if cfg.ServiceName != "deskspin" {
		t.Errorf("expected default service name to be 'deskspin', got %s", cfg.ServiceName)
	}
	if cfg.JSONFormat {
		t.Error("expected default JSONFormat to be false")
	}
	if cfg.FilePath != "" {
		t.Errorf("expected no log file by default, got %q", cfg.FilePath)
	}
}

func TestNewLogger_NilConfig(t *testing.T) {
	log := NewLogger(nil)
	if log == nil {
		t.Error("expected non-nil logger with nil config")
	}
}

func newJSONLogger(buf *bytes.Buffer, level Level) Logger {
	return NewLogger(&Config{
		Level:       level,
		ServiceName: "test-service",
		Environment: "testing",
		JSONFormat:  true,
		Output:      buf,
	})
}

func TestLogger_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelDebug)
	log.Info("catalog written", F("products", 42))

	var output map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}

	if output["message"] != "catalog written" {
		t.Errorf("expected message 'catalog written', got %v", output["message"])
	}
	if output["service_name"] != "test-service" {
		t.Errorf("expected service_name 'test-service', got %v", output["service_name"])
	}
	if output["environment"] != "testing" {
		t.Errorf("expected environment 'testing', got %v", output["environment"])
	}
	if output["products"] != float64(42) {
		t.Errorf("expected products 42, got %v", output["products"])
	}
	if output["level"] != "info" {
		t.Errorf("expected level 'info', got %v", output["level"])
	}
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelDebug).With(F("component", "dedupe"))
	log.Info("merged")

	if !strings.Contains(buf.String(), `"component":"dedupe"`) {
		t.Errorf("expected component field in output, got %s", buf.String())
	}
}

func TestLogger_WithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := context.WithValue(context.Background(), RunIDKey, "run-1")
	ctx = context.WithValue(ctx, RequestIDKey, "req-9")

	newJSONLogger(buf, LevelDebug).WithContext(ctx).Info("spin")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-1"`) {
		t.Errorf("expected run_id in output, got %s", out)
	}
	if !strings.Contains(out, `"request_id":"req-9"`) {
		t.Errorf("expected request_id in output, got %s", out)
	}
}

func TestLogger_WithContext_EmptyContext(t *testing.T) {
	buf := &bytes.Buffer{}
	newJSONLogger(buf, LevelDebug).WithContext(context.Background()).Info("spin")

	if strings.Contains(buf.String(), "run_id") {
		t.Errorf("expected no run_id, got %s", buf.String())
	}
}

func TestLogger_FieldTypes(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelDebug)
	log.Info("types",
		F("str", "s"),
		F("int64", int64(7)),
		F("float", 1.5),
		F("bool", true),
		F("dur", time.Second),
		Err(errors.New("boom")),
	)

	var output map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}
	if output["str"] != "s" {
		t.Errorf("str = %v", output["str"])
	}
	if output["int64"] != float64(7) {
		t.Errorf("int64 = %v", output["int64"])
	}
	if output["bool"] != true {
		t.Errorf("bool = %v", output["bool"])
	}
	if output["error"] != "boom" {
		t.Errorf("error = %v", output["error"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newJSONLogger(buf, LevelWarn)
	log.Debug("hidden")
	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("expected debug/info to be filtered, got %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("expected warn message, got %s", out)
	}
}

func TestLogger_ConsoleFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewLogger(&Config{Level: LevelInfo, ServiceName: "svc", Output: buf})
	log.Info("human readable")

	out := buf.String()
	if !strings.Contains(out, "human readable") {
		t.Errorf("expected message in console output, got %s", out)
	}
	if strings.HasPrefix(strings.TrimSpace(out), "{") {
		t.Errorf("expected console output, got JSON: %s", out)
	}
	// Buffers are never terminals, so no ANSI colour codes.
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no colour codes, got %q", out)
	}
}

func TestLogger_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskspin.log")
	buf := &bytes.Buffer{}
	log := NewLogger(&Config{
		Level:      LevelInfo,
		JSONFormat: true,
		Output:     buf,
		FilePath:   path,
		MaxSizeMB:  1,
	})
	log.Info("to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "to file") {
		t.Errorf("expected message in log file, got %s", data)
	}
	if !strings.Contains(buf.String(), "to file") {
		t.Errorf("expected message on primary output, got %s", buf.String())
	}
}

func TestMustGlobal_InitializesDefaults(t *testing.T) {
	SetGlobal(nil)
	if MustGlobal() == nil {
		t.Error("expected MustGlobal to initialize a logger")
	}
	nop := NewNopLogger()
	SetGlobal(nop)
	if MustGlobal() != nop {
		t.Error("expected MustGlobal to return the logger set by SetGlobal")
	}
	SetGlobal(nil)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	log.Info("nothing", F("k", "v"))
	if log.With(F("a", 1)) != log {
		t.Error("expected nop With to return itself")
	}
}
