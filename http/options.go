package http

import (
	"encoding/json"
	"time"

	"github.com/gaborage/go-remotecurl/curl"
)

// RequestOption customizes a single request
type RequestOption func(*requestOptions)

type requestOptions struct {
	req    *curl.Request
	policy RetryPolicy
	err    error
}

// WithHeaders merges headers into the request, overriding earlier values
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *requestOptions) {
		for k, v := range headers {
			o.req.Headers[k] = v
		}
	}
}

// WithHeader sets a single header
func WithHeader(name, value string) RequestOption {
	return func(o *requestOptions) {
		o.req.Headers[name] = value
	}
}

// WithData sets the request body. Maps, structs and slices are sent as JSON;
// strings and byte slices are sent verbatim.
func WithData(data any) RequestOption {
	return func(o *requestOptions) {
		o.req.Data = data
	}
}

// WithJSON serializes v to JSON and sends it as the body
func WithJSON(v any) RequestOption {
	return func(o *requestOptions) {
		encoded, err := json.Marshal(v)
		if err != nil {
			o.err = NewValidationError("failed to encode JSON body", "data", err)
			return
		}
		o.req.Data = json.RawMessage(encoded)
	}
}

// WithParams merges query parameters into the URL
func WithParams(params map[string]string) RequestOption {
	return func(o *requestOptions) {
		for k, v := range params {
			o.req.Params[k] = v
		}
	}
}

// WithCurlArgs appends raw curl arguments; each is quoted individually
func WithCurlArgs(args ...string) RequestOption {
	return func(o *requestOptions) {
		o.req.CurlArgs = append(o.req.CurlArgs, args...)
	}
}

// WithInsecure disables TLS verification on the remote side
func WithInsecure(insecure bool) RequestOption {
	return func(o *requestOptions) {
		o.req.Insecure = insecure
	}
}

// WithFollowRedirects toggles following redirects
func WithFollowRedirects(follow bool) RequestOption {
	return func(o *requestOptions) {
		o.req.FollowRedirects = follow
	}
}

// WithTimeout bounds both curl's transfer time and the remote execution
func WithTimeout(timeout time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.req.Timeout = timeout
	}
}

// WithRetryPolicy replaces the retry policy for this request
func WithRetryPolicy(policy RetryPolicy) RequestOption {
	return func(o *requestOptions) {
		o.policy = policy
	}
}

// WithRetries sets the number of retries for this request
func WithRetries(retries int) RequestOption {
	return func(o *requestOptions) {
		o.policy.Retries = retries
	}
}

// WithBackoffFactor sets the base backoff delay for this request
func WithBackoffFactor(factor time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.policy.BackoffFactor = factor
	}
}

// WithMaxBackoff caps a single backoff delay for this request
func WithMaxBackoff(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.policy.MaxBackoff = d
	}
}
