package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// eventAdapter wraps a zerolog event. Str and Interface values pass through
// the sensitive data filter; numeric and boolean fields are logged as is.
type eventAdapter struct {
	event  *zerolog.Event
	filter *SensitiveDataFilter
	level  zerolog.Level
	hook   func(zerolog.Level)
}

func (a *eventAdapter) next(event *zerolog.Event) LogEvent {
	a.event = event
	return a
}

func (a *eventAdapter) Err(err error) LogEvent {
	return a.next(a.event.Err(err))
}

func (a *eventAdapter) Str(key, value string) LogEvent {
	if a.filter != nil {
		value = a.filter.FilterString(key, value)
	}
	return a.next(a.event.Str(key, value))
}

func (a *eventAdapter) Int(key string, value int) LogEvent {
	return a.next(a.event.Int(key, value))
}

func (a *eventAdapter) Int64(key string, value int64) LogEvent {
	return a.next(a.event.Int64(key, value))
}

func (a *eventAdapter) Bool(key string, value bool) LogEvent {
	return a.next(a.event.Bool(key, value))
}

func (a *eventAdapter) Float64(key string, value float64) LogEvent {
	return a.next(a.event.Float64(key, value))
}

func (a *eventAdapter) Dur(key string, d time.Duration) LogEvent {
	return a.next(a.event.Dur(key, d))
}

func (a *eventAdapter) Interface(key string, i any) LogEvent {
	if a.filter != nil {
		i = a.filter.FilterValue(key, i)
	}
	return a.next(a.event.Interface(key, i))
}

func (a *eventAdapter) Msg(msg string) {
	a.notify()
	a.event.Msg(msg)
}

func (a *eventAdapter) Msgf(format string, args ...any) {
	a.notify()
	a.event.Msgf(format, args...)
}

// notify reports warnings and errors to the severity hook, if any.
func (a *eventAdapter) notify() {
	if a.hook != nil && a.level >= zerolog.WarnLevel {
		a.hook(a.level)
	}
}

func (l *ZeroLogger) newEvent(level zerolog.Level, event *zerolog.Event) LogEvent {
	return &eventAdapter{
		event:  event,
		filter: l.filter,
		level:  level,
		hook:   l.severityHook,
	}
}

func (l *ZeroLogger) Debug() LogEvent { return l.newEvent(zerolog.DebugLevel, l.zlog.Debug()) }
func (l *ZeroLogger) Info() LogEvent  { return l.newEvent(zerolog.InfoLevel, l.zlog.Info()) }
func (l *ZeroLogger) Warn() LogEvent  { return l.newEvent(zerolog.WarnLevel, l.zlog.Warn()) }
func (l *ZeroLogger) Error() LogEvent { return l.newEvent(zerolog.ErrorLevel, l.zlog.Error()) }

// Fatal logs at fatal level and exits the process once the event is sent.
func (l *ZeroLogger) Fatal() LogEvent { return l.newEvent(zerolog.FatalLevel, l.zlog.Fatal()) }
