package http

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gaborage/go-remotecurl/curl"
	"github.com/gaborage/go-remotecurl/internal/tracking"
	"github.com/gaborage/go-remotecurl/logger"
	"github.com/gaborage/go-remotecurl/remote"
	"github.com/gaborage/go-remotecurl/trace"
)

const (
	// DefaultExecTimeout bounds a remote execution when the request sets no timeout
	DefaultExecTimeout = 30 * time.Second

	// ExecTimeoutGrace is added to a request's --max-time so curl's own timeout
	// and status trailer arrive before the exec deadline.
	ExecTimeoutGrace = 5 * time.Second

	// DefaultRetries is the default number of retries after the first attempt
	DefaultRetries = 0

	// DefaultBackoffFactor is the base delay of the exponential backoff
	DefaultBackoffFactor = 500 * time.Millisecond

	methodGet = "GET"
)

// addresser is implemented by dialers that know which host they reach
type addresser interface {
	Addr() string
}

// client implements the Client interface
type client struct {
	dialer  remote.Dialer
	logger  logger.Logger
	filter  *logger.SensitiveDataFilter
	config  *Config
	sleep   Sleeper
	jitter  func() time.Duration
	sshAddr string
}

// NewClient creates a client with default configuration
func NewClient(dialer remote.Dialer, log logger.Logger) Client {
	return NewBuilder(dialer, log).Build()
}

// Builder provides a fluent interface for configuring the client
type Builder struct {
	dialer remote.Dialer
	logger logger.Logger
	config *Config
	filter *logger.FilterConfig
	sleep  Sleeper
	jitter func() time.Duration
}

// NewBuilder creates a new client builder
func NewBuilder(dialer remote.Dialer, log logger.Logger) *Builder {
	return &Builder{
		dialer: dialer,
		logger: log,
		config: &Config{
			Retry: RetryPolicy{
				Retries:       DefaultRetries,
				BackoffFactor: DefaultBackoffFactor,
			},
			ExecTimeout:    DefaultExecTimeout,
			DefaultHeaders: make(map[string]string),
		},
	}
}

// WithRetries sets the default number of retries
func (b *Builder) WithRetries(retries int) *Builder {
	b.config.Retry.Retries = retries
	return b
}

// WithBackoff sets the default backoff factor
func (b *Builder) WithBackoff(factor time.Duration) *Builder {
	b.config.Retry.BackoffFactor = factor
	return b
}

// WithMaxBackoff caps a single backoff delay
func (b *Builder) WithMaxBackoff(d time.Duration) *Builder {
	b.config.Retry.MaxBackoff = d
	return b
}

// WithExecTimeout sets the remote execution timeout used when a request has none
func (b *Builder) WithExecTimeout(d time.Duration) *Builder {
	b.config.ExecTimeout = d
	return b
}

// WithDefaultHeader adds a header sent with every request unless the request sets it
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithRequestIDHeader sends X-Request-ID with every request
func (b *Builder) WithRequestIDHeader(enabled bool) *Builder {
	b.config.RequestIDHeader = enabled
	return b
}

// WithTracePropagation forwards the active span as W3C trace context headers
func (b *Builder) WithTracePropagation(enabled bool) *Builder {
	b.config.TracePropagation = enabled
	return b
}

// WithHeaderFilter sets which header names are masked in logged command lines
func (b *Builder) WithHeaderFilter(cfg *logger.FilterConfig) *Builder {
	b.filter = cfg
	return b
}

// WithSleeper replaces the backoff sleep, mainly for tests
func (b *Builder) WithSleeper(sleep Sleeper) *Builder {
	b.sleep = sleep
	return b
}

// WithJitter replaces the backoff jitter source, mainly for tests
func (b *Builder) WithJitter(jitter func() time.Duration) *Builder {
	b.jitter = jitter
	return b
}

// Build creates the client with the configured options
func (b *Builder) Build() Client {
	c := &client{
		dialer: b.dialer,
		logger: b.logger,
		filter: logger.NewSensitiveDataFilter(b.filter),
		config: b.config,
		sleep:  b.sleep,
		jitter: b.jitter,
	}
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	if c.jitter == nil {
		c.jitter = randomJitter
	}
	if c.logger == nil {
		c.logger = logger.New("disabled", false)
	}
	if a, ok := b.dialer.(addresser); ok {
		c.sshAddr = a.Addr()
	}
	return c
}

// Request performs a request with the given method
func (c *client) Request(ctx context.Context, method, url string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, &curl.Request{Method: method, URL: url, FollowRedirects: true}, opts...)
}

// Get performs a GET request
func (c *client) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, methodGet, url, opts...)
}

// Post performs a POST request
func (c *client) Post(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, "POST", url, opts...)
}

// Put performs a PUT request
func (c *client) Put(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, "PUT", url, opts...)
}

// Patch performs a PATCH request
func (c *client) Patch(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, "PATCH", url, opts...)
}

// Delete performs a DELETE request
func (c *client) Delete(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, "DELETE", url, opts...)
}

// Head performs a HEAD request
func (c *client) Head(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, "HEAD", url, opts...)
}

// Do performs req with opts applied on top of it. req itself is not modified.
func (c *client) Do(ctx context.Context, req *curl.Request, opts ...RequestOption) (*Response, error) {
	ctx, requestID := trace.EnsureRequestID(ctx)
	log := c.logger.WithContext(ctx).WithFields(map[string]any{"request_id": requestID})

	o, err := c.prepare(req, opts)
	if err != nil {
		log.Error().Err(err).Msg("Invalid remote request")
		return nil, err
	}
	if c.config.RequestIDHeader {
		addMissing(o.req.Headers, map[string]string{trace.HeaderXRequestID: requestID})
	}

	start := time.Now()
	ctx, span := tracking.StartRequestSpan(ctx, o.req.Method, c.filter.MaskURL(curl.MergeParams(o.req.URL, o.req.Params)), c.sshAddr)
	if c.config.TracePropagation {
		propagated := make(map[string]string, 2)
		trace.InjectHeaders(ctx, propagated)
		addMissing(o.req.Headers, propagated)
	}

	resp, err := c.execute(ctx, log, o)

	elapsed := time.Since(start)
	statusCode := 0
	if resp != nil {
		statusCode = resp.StatusCode
	}
	tracking.RecordRequest(ctx, o.req.Method, elapsed, statusCode, errorType(err))
	tracking.EndSpan(span, statusCode, errorType(err), err)

	if resp != nil {
		resp.Stats.ElapsedTime = elapsed
	}
	return resp, err
}

// prepare copies req, applies defaults and options, and validates the result.
func (c *client) prepare(req *curl.Request, opts []RequestOption) (*requestOptions, error) {
	if req == nil {
		return nil, NewValidationError("request cannot be nil", "request", nil)
	}
	if c.dialer == nil {
		return nil, NewValidationError("no remote dialer configured", "dialer", nil)
	}

	o := &requestOptions{req: cloneRequest(req), policy: c.config.Retry}
	for _, opt := range opts {
		opt(o)
	}
	if o.err != nil {
		return nil, o.err
	}

	addMissing(o.req.Headers, c.config.DefaultHeaders)
	if o.req.Method == "" {
		o.req.Method = methodGet
	}
	o.req.Method = strings.ToUpper(o.req.Method)

	if strings.TrimSpace(o.req.URL) == "" {
		return nil, NewValidationError("URL cannot be empty", "url", nil)
	}
	if o.policy.Retries < 0 {
		return nil, NewValidationError("retries cannot be negative", "retries", nil)
	}
	return o, nil
}

// execute runs the retry loop. The command line is built once; every attempt
// runs the same line.
func (c *client) execute(ctx context.Context, log logger.Logger, o *requestOptions) (*Response, error) {
	cmd, err := curl.Build(o.req)
	if err != nil {
		verr := NewValidationError("failed to build curl command", "data", err)
		log.Error().Err(verr).Msg("Invalid remote request")
		return nil, verr
	}

	timeout := c.config.ExecTimeout
	if o.req.Timeout > 0 {
		timeout = curl.MaxTime(o.req.Timeout) + ExecTimeoutGrace
	}

	c.logRequest(log, o.req, cmd)

	for attempt := 0; ; attempt++ {
		resp, err := c.attempt(ctx, log, o.req.Method, cmd, attempt, timeout)
		if err == nil {
			resp.Stats.Attempts = attempt + 1
			c.logResponse(log, resp)
			return resp, nil
		}

		if !IsRetryable(err) || attempt >= o.policy.Retries {
			log.Error().Err(err).
				Str("error_type", errorType(err)).
				Int("attempts", attempt+1).
				Msgf("Request failed after %d attempt(s)", attempt+1)
			return nil, err
		}

		delay := o.policy.backoffDelay(attempt+1, c.jitter())
		log.Warn().Err(err).
			Int("attempt", attempt+1).
			Float64("delay_seconds", delay.Seconds()).
			Msgf("Retrying in %.2fs", delay.Seconds())

		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			log.Error().Err(sleepErr).Int("attempts", attempt+1).Msg("Retry backoff interrupted")
			return nil, fmt.Errorf("%w: %w", err, sleepErr)
		}
	}
}

// attempt performs one dial, exec, close, parse cycle.
func (c *client) attempt(ctx context.Context, log logger.Logger, method string, cmd *curl.Command, attempt int, timeout time.Duration) (resp *Response, err error) {
	ctx, span := tracking.StartAttemptSpan(ctx, attempt)
	defer func() {
		statusCode := 0
		outcome := tracking.OutcomeSuccess
		if resp != nil {
			statusCode = resp.StatusCode
		}
		if err != nil {
			outcome = errorType(err)
			log.Warn().Err(err).Int("attempt", attempt+1).Msg("Remote request attempt failed")
		}
		tracking.RecordAttempt(ctx, method, outcome)
		tracking.EndSpan(span, statusCode, errorType(err), err)
	}()

	log.Debug().Str("ssh_addr", c.sshAddr).Int("attempt", attempt+1).Msg("Connecting to remote host")
	ch, err := c.dialer.Dial(ctx)
	if err != nil {
		return nil, NewConnectionError(c.sshAddr, err)
	}
	defer func() {
		if closeErr := ch.Close(); closeErr != nil {
			log.Debug().Err(closeErr).Msg("Failed to close remote channel")
			return
		}
		log.Debug().Msg("Remote channel closed")
	}()

	log.Debug().Str("command", c.redact(cmd)).Dur("timeout", timeout).Msg("Executing remote curl command")
	execStart := time.Now()
	res, err := ch.Exec(ctx, cmd.Line, timeout)
	logger.IncrementRemoteCounter(ctx)
	logger.AddRemoteElapsed(ctx, time.Since(execStart).Nanoseconds())
	if err != nil {
		return nil, NewExecutionError(err)
	}

	if stderr := strings.TrimSpace(string(res.Stderr)); stderr != "" {
		log.Warn().Str("stderr", stderr).Msg("Remote curl wrote to stderr")
	}
	if res.ExitStatus != 0 {
		log.Debug().Int("exit_status", res.ExitStatus).Msg("Remote curl exited with non-zero status")
	}
	tracking.SetExitStatus(span, res.ExitStatus)

	parsed, err := curl.Parse(string(res.Stdout))
	if err != nil {
		return nil, NewMalformedResponseError(err, res.Stdout)
	}

	return &Response{
		StatusCode: parsed.StatusCode,
		Headers:    parsed.Headers,
		Body:       parsed.Body,
		URL:        cmd.URL,
		RawHeaders: parsed.RawHeaders,
		Stats:      Stats{ExitStatus: res.ExitStatus},
	}, nil
}

func (c *client) redact(cmd *curl.Command) string {
	return RedactCommand(cmd, c.filter)
}

// RedactCommand renders cmd for logging with sensitive header values, URL
// credentials and credential options masked by filter. Bodies are replaced by
// their size. A nil filter uses the default sensitive field list.
func RedactCommand(cmd *curl.Command, filter *logger.SensitiveDataFilter) string {
	if filter == nil {
		filter = logger.NewSensitiveDataFilter(nil)
	}
	return cmd.Redact(func(name, value string) string {
		switch name {
		case curl.RedactURL:
			return filter.MaskURL(value)
		case curl.RedactBody:
			return fmt.Sprintf("<%d bytes>", len(value))
		case curl.RedactCredential:
			return filter.MaskValue()
		default:
			return filter.FilterString(name, value)
		}
	})
}

// logRequest logs the outgoing request
func (c *client) logRequest(log logger.Logger, req *curl.Request, cmd *curl.Command) {
	log.Info().
		Str("direction", "outbound").
		Str("method", req.Method).
		Str("url", cmd.URL).
		Str("ssh_addr", c.sshAddr).
		Bool("follow_redirects", req.FollowRedirects).
		Bool("insecure", req.Insecure).
		Msg("Remote request")
}

// logResponse logs the reconstructed response
func (c *client) logResponse(log logger.Logger, resp *Response) {
	log.Info().
		Str("direction", "inbound").
		Int("status", resp.StatusCode).
		Int("attempts", resp.Stats.Attempts).
		Int("body_bytes", len(resp.Body)).
		Msg("Remote response")
}

func cloneRequest(req *curl.Request) *curl.Request {
	clone := *req
	clone.Headers = make(map[string]string, len(req.Headers))
	for k, v := range req.Headers {
		clone.Headers[k] = v
	}
	clone.Params = make(map[string]string, len(req.Params))
	for k, v := range req.Params {
		clone.Params[k] = v
	}
	clone.CurlArgs = append([]string(nil), req.CurlArgs...)
	return &clone
}

// addMissing copies the entries of src whose names dst lacks in any case.
func addMissing(dst, src map[string]string) {
	for k, v := range src {
		if !curl.HasHeader(dst, k) {
			dst[k] = v
		}
	}
}
