// Package testing provides shared test utilities for go-remotecurl.
//
// # Mocks
//
// The mocks subpackage provides testify-based implementations of
// remote.Dialer and remote.Channel, so the retrying executor can be driven
// without an SSH server:
//
//	ch := &mocks.MockChannel{}
//	ch.ExpectCurlOutput(testconsts.TestCurlOutputOK)
//	ch.On("Close").Return(nil)
//
//	dialer := &mocks.MockDialer{}
//	dialer.On("Dial", mock.Anything).Return(ch, nil)
//
// # Containers
//
// The containers subpackage starts an OpenSSH server with testcontainers for
// end-to-end tests. It is compiled only with the integration build tag:
//
//	go test -tags=integration ./remote/...
//
// # Constants
//
// This package holds the literals shared across test files. Import it under
// an alias to avoid clashing with the standard library:
//
//	import testconsts "github.com/gaborage/go-remotecurl/testing"
package testing
