package internal

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, LogLevelWarn).With("aggregate")

	logger.Info("hidden %d", 1)
	logger.Debug("hidden")
	logger.Warn("shown %s", "warn")
	logger.Error("shown error")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("expected info/debug to be filtered, got %q", out)
	}
	if !strings.Contains(out, "[WARN] [aggregate] shown warn") {
		t.Fatalf("expected tagged warn line, got %q", out)
	}
	if !strings.Contains(out, "[ERROR] [aggregate] shown error") {
		t.Fatalf("expected tagged error line, got %q", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"error": LogLevelError,
		"WARN":  LogLevelWarn,
		" info": LogLevelInfo,
		"DEBUG": LogLevelDebug,
		"trace": LogLevelTrace,
		"":      LogLevelInfo,
		"loud":  LogLevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestLogLevelString(t *testing.T) {
	if got := LogLevelDebug.String(); got != "DEBUG" {
		t.Fatalf("LogLevelDebug.String() = %q", got)
	}
	if got := LogLevel(9).String(); got != "LogLevel(9)" {
		t.Fatalf("out of range level = %q", got)
	}
	if !NewLoggerTo(&bytes.Buffer{}, LogLevelInfo).Enabled(LogLevelWarn) {
		t.Fatal("info logger should emit warnings")
	}
}
