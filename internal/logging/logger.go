// Package logging provides structured logging for tandem runs.
// It wraps log/slog with a JSON file handler, run-scoped context helpers,
// and size-based rotation so long orchestration runs stay debuggable.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log levels accepted by the config file and the logs command.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// DebugLogFile is the name of the JSON log inside the log directory.
const DebugLogFile = "debug.log"

// Logger emits JSON-formatted structured log entries. The With* methods
// return child loggers that carry persistent attributes (run ID, iteration,
// agent role) and share the parent's sink, so closing any logger in the
// tree closes the underlying file once. Safe for concurrent use.
type Logger struct {
	sl   *slog.Logger
	sink *logSink
}

// logSink owns the file handle (plain or rotating) behind a logger tree.
// Keeping it separate from Logger makes Close idempotent even when several
// child loggers point at the same handle.
type logSink struct {
	mu sync.Mutex
	f  *os.File
	rw *RotatingWriter
}

func (s *logSink) close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rw != nil {
		err := s.rw.Close()
		s.rw = nil
		return err
	}
	if s.f != nil {
		f := s.f
		s.f = nil
		if err := f.Sync(); err != nil {
			return fmt.Errorf("sync log file: %w", err)
		}
		return f.Close()
	}
	return nil
}

// NewLogger creates a Logger that appends JSON entries to {dir}/debug.log,
// creating dir if needed. Entries below level are dropped; level is one of
// DEBUG, INFO, WARN, ERROR (case-insensitive, unknown values mean INFO).
// An empty dir sends entries to stderr instead of a file.
func NewLogger(dir string, level string) (*Logger, error) {
	if dir == "" {
		return &Logger{sl: newSlog(os.Stderr, level)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, DebugLogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Logger{sl: newSlog(f, level), sink: &logSink{f: f}}, nil
}

// NewLoggerWithRotation is NewLogger with the file sink replaced by a
// RotatingWriter, so {dir}/debug.log rolls over to numbered backups once it
// exceeds the configured size.
func NewLoggerWithRotation(dir string, level string, config RotationConfig) (*Logger, error) {
	if dir == "" {
		return NewLogger("", level)
	}

	rw, err := NewRotatingWriter(filepath.Join(dir, DebugLogFile), config)
	if err != nil {
		return nil, err
	}

	return &Logger{sl: newSlog(rw, level), sink: &logSink{rw: rw}}, nil
}

// NopLogger returns a Logger that discards everything. Used for dry runs
// and as the fallback when a component is handed a nil logger.
func NopLogger() *Logger {
	return &Logger{sl: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}

func newSlog(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)}))
}

// slogLevel maps a config-file level string onto slog's scale, defaulting
// to INFO for anything unrecognized.
func slogLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default: // LevelInfo and anything unrecognized
		return slog.LevelInfo
	}
}

// WithRun returns a child logger that stamps every entry with the run ID.
func (l *Logger) WithRun(runID string) *Logger {
	return l.With("run_id", runID)
}

// WithIteration returns a child logger that stamps every entry with the
// 1-based iteration number.
func (l *Logger) WithIteration(n int) *Logger {
	return l.With("iteration", n)
}

// WithAgent returns a child logger that stamps every entry with the agent
// role, "loop" or "worker".
func (l *Logger) WithAgent(role string) *Logger {
	return l.With("agent", role)
}

// With returns a child logger carrying the given alternating key-value
// pairs on every entry.
func (l *Logger) With(args ...any) *Logger {
	if len(args) == 0 {
		return l
	}
	return &Logger{sl: l.sl.With(args...), sink: l.sink}
}

// Debug logs at DEBUG level with alternating key-value pairs.
func (l *Logger) Debug(msg string, args ...any) {
	l.sl.Debug(msg, args...)
}

// Info logs at INFO level with alternating key-value pairs.
func (l *Logger) Info(msg string, args ...any) {
	l.sl.Info(msg, args...)
}

// Warn logs at WARN level with alternating key-value pairs.
func (l *Logger) Warn(msg string, args ...any) {
	l.sl.Warn(msg, args...)
}

// Error logs at ERROR level with alternating key-value pairs.
func (l *Logger) Error(msg string, args ...any) {
	l.sl.Error(msg, args...)
}

// Close flushes and closes the underlying log file. It is a no-op for
// stderr and nop loggers and safe to call more than once.
func (l *Logger) Close() error {
	return l.sink.close()
}

// ParseLevel normalizes a user-provided level string to its canonical
// constant, defaulting to LevelInfo for anything unrecognized.
func ParseLevel(level string) string {
	switch strings.ToUpper(level) {
	case LevelDebug:
		return LevelDebug
	case LevelWarn:
		return LevelWarn
	case LevelError:
		return LevelError
	default: // LevelInfo and anything unrecognized
		return LevelInfo
	}
}

// ValidLevels returns the accepted log level strings, most verbose first.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
