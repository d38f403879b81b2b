// Package rxlog wraps github.com/charmbracelet/log (already a dependency
// of the teacher codebase's CLI tooling) in the small leveled-logger shape
// the receiver needs: debug-level transient-desync notices, info-level
// frame emissions, nothing louder unless something is actually wrong.
package rxlog

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Logger is the receiver's logging surface. The zero value is a no-op
// logger so components can hold a Logger field without a nil check on
// every call site.
type Logger struct {
	l *log.Logger
}

// New builds a Logger writing to w at the given level ("debug", "info",
// "warn", "error"; anything else defaults to "info").
func New(w io.Writer, level string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           parseLevel(level),
	})
	return &Logger{l: l}
}

func parseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(s)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func (lg *Logger) Debugf(format string, args ...any) { lg.log(log.DebugLevel, format, args...) }
func (lg *Logger) Infof(format string, args ...any)  { lg.log(log.InfoLevel, format, args...) }
func (lg *Logger) Warnf(format string, args ...any)  { lg.log(log.WarnLevel, format, args...) }
func (lg *Logger) Errorf(format string, args ...any) { lg.log(log.ErrorLevel, format, args...) }

func (lg *Logger) log(level log.Level, format string, args ...any) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.Helper()
	switch level {
	case log.DebugLevel:
		lg.l.Debugf(format, args...)
	case log.WarnLevel:
		lg.l.Warnf(format, args...)
	case log.ErrorLevel:
		lg.l.Errorf(format, args...)
	default:
		lg.l.Infof(format, args...)
	}
}

// With returns a child logger with the given key/value pairs attached to
// every subsequent line, mirroring charmbracelet/log's structured fields.
func (lg *Logger) With(keyvals ...any) *Logger {
	if lg == nil || lg.l == nil {
		return lg
	}
	return &Logger{l: lg.l.With(keyvals...)}
}
