// Package remote provides the execution channel used to run command lines on
// a remote host. A Dialer opens one Channel per attempt; the Channel runs a
// single command and is closed afterwards.
package remote

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrConnect wraps every failure to establish a channel: network, auth, host key or timeout.
	ErrConnect = errors.New("remote: connection failed")

	// ErrSession wraps failures to open, start or finish a remote command session.
	ErrSession = errors.New("remote: session failed")

	// ErrTimeout is returned when a command exceeds its timeout or the context is cancelled.
	ErrTimeout = errors.New("remote: command timed out")

	// ErrClosed is returned by Exec on a channel that was already closed.
	ErrClosed = errors.New("remote: channel closed")

	// ErrInvalidConfig is returned when a dialer cannot be built from its configuration.
	ErrInvalidConfig = errors.New("remote: invalid configuration")
)

// Result holds everything a remote command produced.
type Result struct {
	Stdout     []byte
	Stderr     []byte
	ExitStatus int
}

// Dialer opens channels to a remote host.
type Dialer interface {
	Dial(ctx context.Context) (Channel, error)
}

// Channel runs commands on an established connection.
// A non-zero exit status is reported in Result and is not an error.
type Channel interface {
	Exec(ctx context.Context, cmd string, timeout time.Duration) (*Result, error)
	Close() error
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc func(ctx context.Context) (Channel, error)

// Dial calls f(ctx).
func (f DialerFunc) Dial(ctx context.Context) (Channel, error) {
	return f(ctx)
}
