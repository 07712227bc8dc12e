// Package log is a thin verbosity-gated wrapper around log/slog.
//
// The CLI counts -v flags into a verbosity level; records below that level
// are dropped before they reach slog. Warnings and errors are always shown.
// A single progress line can be kept open between records.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Verbosity levels
const (
	LevelQuiet = iota // only errors and warnings
	LevelInfo         // -v: pages fetched, cache hits, counts
	LevelDebug        // -vv: API calls, retries, rate limit headers
	LevelTrace        // -vvv: every request
)

const slogLevelTrace = slog.Level(-8)

type state struct {
	mu         sync.Mutex
	verbosity  int
	out        io.Writer
	attrs      []any
	logger     *slog.Logger
	inProgress bool
}

var std state

func (s *state) rebuild() {
	s.logger = slog.New(slog.NewTextHandler(s.out, &slog.HandlerOptions{
		Level: slogLevel(s.verbosity),
	})).With(s.attrs...)
}

// endProgress terminates an open progress line so the next record starts
// on its own line. Callers hold mu.
func (s *state) endProgress() {
	if s.inProgress {
		_, _ = fmt.Fprintln(s.out)
		s.inProgress = false
	}
}

func (s *state) log(minVerbosity int, level slog.Level, msg string, args []any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.verbosity < minVerbosity {
		return
	}
	s.endProgress()
	s.logger.Log(context.Background(), level, msg, args...)
}

// Initialize sets up the global logger with the specified verbosity level.
// Attributes added with With are dropped.
func Initialize(level int, w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.verbosity = level
	std.out = w
	std.attrs = nil
	std.inProgress = false
	std.rebuild()
}

func slogLevel(level int) slog.Level {
	switch {
	case level >= LevelTrace:
		return slogLevelTrace
	case level >= LevelDebug:
		return slog.LevelDebug
	case level >= LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// With attaches attributes (for example the run ID) to every later record.
func With(args ...any) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.attrs = append(std.attrs, args...)
	std.rebuild()
}

// Info logs at info level (-v).
func Info(msg string, args ...any) { std.log(LevelInfo, slog.LevelInfo, msg, args) }

// Debug logs at debug level (-vv).
func Debug(msg string, args ...any) { std.log(LevelDebug, slog.LevelDebug, msg, args) }

// Trace logs at trace level (-vvv).
func Trace(msg string, args ...any) { std.log(LevelTrace, slogLevelTrace, msg, args) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { std.log(LevelQuiet, slog.LevelWarn, msg, args) }

// Error logs at error level.
func Error(msg string, args ...any) { std.log(LevelQuiet, slog.LevelError, msg, args) }

// Progress rewrites the current line with a progress message.
// Shown at info level and above.
func Progress(format string, args ...any) {
	std.mu.Lock()
	defer std.mu.Unlock()
	if std.verbosity < LevelInfo {
		return
	}
	std.inProgress = true
	_, _ = fmt.Fprintf(std.out, "\r"+format, args...)
}

// ProgressDone completes the open progress line with "done".
func ProgressDone() {
	std.mu.Lock()
	defer std.mu.Unlock()
	if std.inProgress {
		_, _ = fmt.Fprintln(std.out, " done")
		std.inProgress = false
	}
}

// ProgressClear erases the open progress line.
func ProgressClear() {
	std.mu.Lock()
	defer std.mu.Unlock()
	if std.inProgress {
		_, _ = fmt.Fprint(std.out, "\r\033[K")
		std.inProgress = false
	}
}

// IsInfo reports whether info records are emitted.
func IsInfo() bool { return Verbosity() >= LevelInfo }

// IsDebug reports whether debug records are emitted.
func IsDebug() bool { return Verbosity() >= LevelDebug }

// IsTrace reports whether trace records are emitted.
func IsTrace() bool { return Verbosity() >= LevelTrace }

// Verbosity returns the current verbosity level.
func Verbosity() int {
	std.mu.Lock()
	defer std.mu.Unlock()
	return std.verbosity
}

// SetOutput redirects records and progress lines to w, keeping the level
// and attributes.
func SetOutput(w io.Writer) {
	std.mu.Lock()
	defer std.mu.Unlock()
	std.out = w
	std.rebuild()
}

func init() {
	Initialize(LevelQuiet, os.Stderr)
}
