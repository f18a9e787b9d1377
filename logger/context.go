package logger

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type contextKey string

const (
	// remoteCounterKey tracks remote executions made under a context
	remoteCounterKey contextKey = "remote_exec_counter"
	// remoteElapsedKey tracks total remote execution time under a context
	remoteElapsedKey contextKey = "remote_elapsed_nanos"
	// severityHookKey stores a callback notified of warnings and errors
	severityHookKey contextKey = "severity_hook"
)

// WithRemoteCounter creates a context that accumulates the number and total
// duration of remote executions made with it.
func WithRemoteCounter(ctx context.Context) context.Context {
	counter := int64(0)
	elapsed := int64(0)
	ctx = context.WithValue(ctx, remoteCounterKey, &counter)
	ctx = context.WithValue(ctx, remoteElapsedKey, &elapsed)
	return ctx
}

// IncrementRemoteCounter increments the remote execution counter in the context
func IncrementRemoteCounter(ctx context.Context) {
	if counter, ok := ctx.Value(remoteCounterKey).(*int64); ok && counter != nil {
		atomic.AddInt64(counter, 1)
	}
}

// GetRemoteCounter returns the remote execution count from the context
func GetRemoteCounter(ctx context.Context) int64 {
	if counter, ok := ctx.Value(remoteCounterKey).(*int64); ok && counter != nil {
		return atomic.LoadInt64(counter)
	}
	return 0
}

// AddRemoteElapsed adds elapsed nanoseconds to the remote execution time in the context
func AddRemoteElapsed(ctx context.Context, nanos int64) {
	if elapsed, ok := ctx.Value(remoteElapsedKey).(*int64); ok && elapsed != nil {
		atomic.AddInt64(elapsed, nanos)
	}
}

// GetRemoteElapsed returns the remote execution time in nanoseconds from the context
func GetRemoteElapsed(ctx context.Context) int64 {
	if elapsed, ok := ctx.Value(remoteElapsedKey).(*int64); ok && elapsed != nil {
		return atomic.LoadInt64(elapsed)
	}
	return 0
}

// WithSeverityHook attaches a hook that loggers derived with WithContext call
// for every WARN or higher event.
func WithSeverityHook(ctx context.Context, hook func(zerolog.Level)) context.Context {
	if ctx == nil || hook == nil {
		return ctx
	}
	return context.WithValue(ctx, severityHookKey, hook)
}

func severityHookFromContext(ctx context.Context) func(zerolog.Level) {
	if ctx == nil {
		return nil
	}
	if hook, ok := ctx.Value(severityHookKey).(func(zerolog.Level)); ok {
		return hook
	}
	return nil
}
