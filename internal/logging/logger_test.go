package logging

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tailrank/tailrank/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLogger(t *testing.T) {
	tmpDir := t.TempDir()

	for _, format := range []string{"text", "json"} {
		cfg := config.LoggingConfig{
			Level:      "info",
			Format:     format,
			OutputFile: filepath.Join(tmpDir, format+".log"),
			MaxSize:    1,
			MaxBackups: 1,
			MaxAge:     1,
		}

		logger := NewLogger(cfg)
		if logger == nil {
			t.Fatalf("NewLogger(%s) returned nil", format)
		}
		logger.Info("startup", "format", format)
	}
}

func TestMultiHandlerFansOut(t *testing.T) {
	var bufA, bufB bytes.Buffer
	a := slog.NewTextHandler(&bufA, &slog.HandlerOptions{Level: slog.LevelInfo})
	b := slog.NewTextHandler(&bufB, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(a, b))
	logger.Info("fan out", "key", "value")

	for name, buf := range map[string]*bytes.Buffer{"a": &bufA, "b": &bufB} {
		if !strings.Contains(buf.String(), "fan out") {
			t.Errorf("handler %s did not receive the record: %q", name, buf.String())
		}
	}
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	debugHandler := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warnHandler := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	multi := NewMultiHandler(debugHandler, warnHandler)
	if !multi.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Enabled() should be true when any handler accepts the level")
	}

	logger := slog.New(multi)
	logger.Debug("quiet")

	if !strings.Contains(debugBuf.String(), "quiet") {
		t.Error("debug handler should have received the debug record")
	}
	if warnBuf.Len() != 0 {
		t.Errorf("warn handler should have filtered the debug record, got %q", warnBuf.String())
	}
}

func TestMultiHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(base).WithAttrs([]slog.Attr{slog.String("component", "scanner")}))
	logger.Info("message")

	if !strings.Contains(buf.String(), "component=scanner") {
		t.Errorf("attributes were not propagated: %q", buf.String())
	}
}
