// Package logger defines the logging interface injected into every component
// and its zerolog-backed implementation.
package logger

import "time"

// Logger is the structured logger handed to clients and commands.
// WithContext accepts any value so callers need not import context just to log.
type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	Fatal() LogEvent
	WithContext(ctx any) Logger
	WithFields(fields map[string]any) Logger
}

// LogEvent accumulates fields for one log line. Msg or Msgf emits it.
type LogEvent interface {
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Bool(key string, value bool) LogEvent
	Float64(key string, value float64) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Interface(key string, i any) LogEvent
	Msg(msg string)
	Msgf(format string, args ...any)
}
