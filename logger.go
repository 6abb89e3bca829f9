package vbo

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/vbo/arena"
	"github.com/gogpu/vbo/exec"
	"github.com/gogpu/vbo/save"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for vbo and its sub-packages (exec, save
// and arena). By default vbo produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the default
// silent behavior. Backends that accept a logger receive it when a Context
// is created with them.
//
// Log levels used by vbo:
//   - [slog.LevelDebug]: buffer wraps, attribute upgrades, compiled nodes,
//     arena allocation, GL errors
//   - [slog.LevelInfo]: backend selection
//   - [slog.LevelWarn]: out of memory, failed draws, list nesting overflow
//
// Example:
//
//	vbo.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	exec.SetLogger(l)
	save.SetLogger(l)
	arena.SetLogger(l)
}

// Logger returns the current logger used by vbo.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by backends that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(b any, l *slog.Logger) {
	if ls, ok := b.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
