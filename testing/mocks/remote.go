package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/gaborage/go-remotecurl/remote"
)

// MockDialer provides a testify-based mock implementation of remote.Dialer.
//
// Example usage:
//
//	ch := &mocks.MockChannel{}
//	ch.ExpectCurlOutput("HTTP/1.1 200 OK\r\n\r\nok\nCURLSTATUS:200")
//	ch.On("Close").Return(nil)
//
//	dialer := &mocks.MockDialer{}
//	dialer.On("Dial", mock.Anything).Return(ch, nil)
type MockDialer struct {
	mock.Mock
}

// Dial implements remote.Dialer
func (m *MockDialer) Dial(ctx context.Context) (remote.Channel, error) {
	arguments := m.Called(ctx)
	ch := arguments.Get(0)
	if ch == nil {
		return nil, arguments.Error(1)
	}
	return ch.(remote.Channel), arguments.Error(1)
}

// MockChannel provides a testify-based mock implementation of remote.Channel.
type MockChannel struct {
	mock.Mock
}

// Exec implements remote.Channel
func (m *MockChannel) Exec(ctx context.Context, cmd string, timeout time.Duration) (*remote.Result, error) {
	arguments := m.Called(ctx, cmd, timeout)
	res := arguments.Get(0)
	if res == nil {
		return nil, arguments.Error(1)
	}
	return res.(*remote.Result), arguments.Error(1)
}

// Close implements remote.Channel
func (m *MockChannel) Close() error {
	arguments := m.Called()
	return arguments.Error(0)
}

// ExpectCurlOutput sets up a single successful Exec returning stdout with exit status 0.
func (m *MockChannel) ExpectCurlOutput(stdout string) *mock.Call {
	return m.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(&remote.Result{Stdout: []byte(stdout)}, nil).Once()
}

// Compile-time interface checks
var (
	_ remote.Dialer  = (*MockDialer)(nil)
	_ remote.Channel = (*MockChannel)(nil)
)
