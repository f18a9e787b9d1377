package http

import (
	"context"
	"time"

	"github.com/gaborage/go-remotecurl/curl"
)

// Client defines the remote HTTP client interface
type Client interface {
	Request(ctx context.Context, method, url string, opts ...RequestOption) (*Response, error)
	Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error)
	Post(ctx context.Context, url string, opts ...RequestOption) (*Response, error)
	Put(ctx context.Context, url string, opts ...RequestOption) (*Response, error)
	Patch(ctx context.Context, url string, opts ...RequestOption) (*Response, error)
	Delete(ctx context.Context, url string, opts ...RequestOption) (*Response, error)
	Head(ctx context.Context, url string, opts ...RequestOption) (*Response, error)
	Do(ctx context.Context, req *curl.Request, opts ...RequestOption) (*Response, error)
}

// Response is the structured result of a remote request
type Response struct {
	StatusCode int
	// Headers of the final hop only
	Headers map[string]string
	Body    string
	// URL is the request URL after query parameters were merged
	URL string
	// RawHeaders is the unparsed header block of the final hop
	RawHeaders string
	Stats      Stats
}

// Stats contains request execution statistics
type Stats struct {
	// Attempts is the number of executions made, retries included
	Attempts    int
	ElapsedTime time.Duration
	// ExitStatus of the remote curl process on the successful attempt
	ExitStatus int
}

// RetryPolicy controls how failed attempts are retried
type RetryPolicy struct {
	Retries       int
	BackoffFactor time.Duration
	// MaxBackoff caps a single delay; zero means no cap
	MaxBackoff time.Duration
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

// Config holds the client configuration
type Config struct {
	Retry            RetryPolicy
	ExecTimeout      time.Duration
	DefaultHeaders   map[string]string
	RequestIDHeader  bool
	TracePropagation bool
}
