// Package http issues HTTP requests that physically run on a remote host.
// Each attempt opens a remote channel, runs a curl command line built by the
// curl package, and reconstructs a Response from its output.
//
// Retries
//   - Controlled via Builder.WithRetries or per call with WithRetries/WithRetryPolicy.
//   - retries=N allows at most N+1 attempts.
//   - Connection, execution and malformed-response failures are retried.
//   - Validation failures and any HTTP status (including 4xx and 5xx) are not.
//
// Backoff Strategy
//   - Before attempt k (k >= 1): factor * 2^(k-1) plus jitter in [0, 100ms).
//   - The delay is clamped to the max backoff when one is set.
//   - Sleeping stops early when the context is cancelled.
//
// Notes
//   - The remote channel is closed after every attempt, whatever the outcome.
//   - Header values that look sensitive are masked before the command line is logged.
//   - Only the final hop's headers of a redirect chain are exposed.
package http
