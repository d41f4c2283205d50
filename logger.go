package plotstream

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/plotstream/metrics"
	"github.com/gogpu/plotstream/transport"
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
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for plotstream and its sub-packages.
// By default, plotstream produces no log output. Call SetLogger to
// enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically. Pass nil to disable logging (restore default silent
// behavior).
//
// Log levels used by plotstream:
//   - [slog.LevelDebug]: wire traffic (frames sent, inbound messages,
//     transport connects and disconnects)
//   - [slog.LevelWarn]: non-fatal issues (renderer unreachable, output
//     dropped while disconnected)
//
// Example:
//
//	// Enable info-level logging to stderr:
//	plotstream.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
	transport.SetLogger(l)
	metrics.SetLogger(l)
}

// Logger returns the current logger used by plotstream.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
