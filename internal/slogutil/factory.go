package slogutil

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"thinner/internal/config"
)

// Subsystem names used for per-subsystem levels and log files.
const (
	SubsystemClosure = "closure"
	SubsystemModel   = "model"
	SubsystemCatalog = "catalog"
	SubsystemStorage = "storage"
)

// LoggerFactory creates appropriately configured loggers for different subsystems.
// It respects the configuration precedence: CLI flags > subsystem config > global config.
type LoggerFactory struct {
	repoRoot string
	config   *config.Config
	console  io.Writer
	cliLevel *slog.Level
	closers  []io.Closer
}

// NewLoggerFactory creates a new logger factory writing console output to w.
// cliLevel is nil when no CLI override was specified.
func NewLoggerFactory(repoRoot string, cfg *config.Config, w io.Writer, cliLevel *slog.Level) *LoggerFactory {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if w == nil {
		w = io.Discard
	}
	return &LoggerFactory{
		repoRoot: repoRoot,
		config:   cfg,
		console:  w,
		cliLevel: cliLevel,
	}
}

// Logger returns the logger for a subsystem. When file logging is enabled
// the records are also appended to <repoRoot>/.thinner/logs/<subsystem>.log,
// which rotates once it passes logging.maxSize.
func (f *LoggerFactory) Logger(subsystem string) *slog.Logger {
	level := f.effectiveLevel(subsystem)
	console := f.consoleHandler(level)

	if !f.config.Logging.ToFile || f.repoRoot == "" {
		return slog.New(console).With("subsystem", subsystem)
	}

	logDir := filepath.Join(f.repoRoot, config.DirName, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return slog.New(console).With("subsystem", subsystem)
	}

	logging := f.config.Logging
	file, closer, err := NewFileLoggerWithRotation(filepath.Join(logDir, subsystem+".log"), level, logging.MaxSize, logging.MaxBackups)
	if err != nil {
		return slog.New(console).With("subsystem", subsystem)
	}
	f.closers = append(f.closers, closer)

	return NewTeeLogger(console, file.Handler()).With("subsystem", subsystem)
}

func (f *LoggerFactory) consoleHandler(level slog.Level) slog.Handler {
	return NewFormattedLogger(f.console, level, f.config.Logging.Format).Handler()
}

// effectiveLevel returns the effective log level for a subsystem.
// Precedence: CLI flag > subsystem config > global config > default (warn)
func (f *LoggerFactory) effectiveLevel(subsystem string) slog.Level {
	if f.cliLevel != nil {
		return *f.cliLevel
	}

	var subsystemLevel string
	switch subsystem {
	case SubsystemClosure:
		subsystemLevel = f.config.Logging.Closure
	case SubsystemModel:
		subsystemLevel = f.config.Logging.Model
	case SubsystemCatalog:
		subsystemLevel = f.config.Logging.Catalog
	}

	if subsystemLevel != "" {
		return LevelFromString(subsystemLevel)
	}
	if f.config.Logging.Level != "" {
		return LevelFromString(f.config.Logging.Level)
	}
	return slog.LevelWarn
}

// NewTeeLogger creates a logger that writes to multiple destinations.
func NewTeeLogger(handlers ...slog.Handler) *slog.Logger {
	return slog.New(NewTeeHandler(handlers...))
}

// Close closes all open log files.
func (f *LoggerFactory) Close() error {
	var firstErr error
	for _, c := range f.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.closers = nil
	return firstErr
}
