package slogutil

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"thinner/internal/config"
)

func TestTextHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("Test message", "key", "value", "count", 42)

	output := buf.String()

	// Check format: TIMESTAMP [level] Message | key=value
	for _, want := range []string{"[info]", "Test message", " | ", "key=value", "count=42"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
}

func TestTextHandler_QuotesSignatures(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("retained", "member", "Method : Foo(System.Int32)", "err", errors.New("boom"))

	output := buf.String()
	if !strings.Contains(output, `member="Method : Foo(System.Int32)"`) {
		t.Errorf("expected quoted member, got: %s", output)
	}
	if !strings.Contains(output, "err=boom") {
		t.Errorf("expected err=boom, got: %s", output)
	}
}

func TestTextHandler_Levels(t *testing.T) {
	tests := []struct {
		logFunc  func(*slog.Logger)
		expected string
	}{
		{func(l *slog.Logger) { l.Debug("debug") }, "[debug]"},
		{func(l *slog.Logger) { l.Info("info") }, "[info]"},
		{func(l *slog.Logger) { l.Warn("warn") }, "[warn]"},
		{func(l *slog.Logger) { l.Error("error") }, "[error]"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogger(&buf, slog.LevelDebug)
			tt.logFunc(logger)

			if !strings.Contains(buf.String(), tt.expected) {
				t.Errorf("expected %s in output, got: %s", tt.expected, buf.String())
			}
		})
	}
}

func TestTextHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo).WithGroup("depot").With("types", 3)

	logger.Info("drained")

	if !strings.Contains(buf.String(), "depot.types=3") {
		t.Errorf("expected grouped key, got: %s", buf.String())
	}
}

func TestLevelFromVerbosity(t *testing.T) {
	tests := []struct {
		verbosity int
		quiet     bool
		want      slog.Level
	}{
		{0, false, slog.LevelWarn},
		{1, false, slog.LevelInfo},
		{2, false, slog.LevelDebug},
		{5, false, slog.LevelDebug},
		{2, true, LevelSilent},
	}

	for _, tt := range tests {
		if got := LevelFromVerbosity(tt.verbosity, tt.quiet); got != tt.want {
			t.Errorf("LevelFromVerbosity(%d, %v) = %v, want %v", tt.verbosity, tt.quiet, got, tt.want)
		}
	}
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := LevelFromString(in); got != want {
			t.Errorf("LevelFromString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTeeHandler(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewTeeLogger(
		NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	logger.Info("only a")

	if !strings.Contains(a.String(), "only a") {
		t.Errorf("first handler missing record: %s", a.String())
	}
	if b.Len() != 0 {
		t.Errorf("second handler should be filtered, got: %s", b.String())
	}
}

func TestLoggerFactory_FileOutput(t *testing.T) {
	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Logging.ToFile = true
	cfg.Logging.Closure = "debug"

	var console bytes.Buffer
	factory := NewLoggerFactory(root, cfg, &console, nil)
	logger := factory.Logger(SubsystemClosure)
	logger.Debug("drained queue", "items", 7)
	if err := factory.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, config.DirName, "logs", "closure.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "items=7") {
		t.Errorf("log file missing record: %s", data)
	}
	if !strings.Contains(console.String(), "subsystem=closure") {
		t.Errorf("console missing subsystem attr: %s", console.String())
	}
}

func TestLoggerFactory_CLIOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "debug"
	level := slog.LevelError

	var console bytes.Buffer
	factory := NewLoggerFactory("", cfg, &console, &level)
	factory.Logger(SubsystemModel).Warn("suppressed")

	if console.Len() != 0 {
		t.Errorf("expected CLI level to suppress warn, got: %s", console.String())
	}
}

func TestTextHandler_GroupAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	logger.Info("pass done", slog.Group("retained", "types", 2, "members", 5))

	if !strings.Contains(buf.String(), "retained.types=2 retained.members=5") {
		t.Errorf("expected flattened group, got: %s", buf.String())
	}
}
