package http

import (
	"context"
	crand "crypto/rand"
	"math/big"
	"time"
)

const (
	// maxJitter bounds the random delay added to every backoff
	maxJitter = 100 * time.Millisecond

	// maxBackoffExponent keeps 2^n from overflowing time.Duration
	maxBackoffExponent = 30

	maxDelay = time.Duration(1<<63 - 1)
)

// backoffDelay returns the wait before attempt (1-based retry number):
// factor * 2^(attempt-1) + jitter, clamped to MaxBackoff when set.
func (p RetryPolicy) backoffDelay(attempt int, jitter time.Duration) time.Duration {
	exp := attempt - 1
	if exp < 0 {
		exp = 0
	}
	if exp > maxBackoffExponent {
		exp = maxBackoffExponent
	}

	d := maxDelay
	if p.BackoffFactor <= (maxDelay-jitter)>>exp {
		d = p.BackoffFactor<<exp + jitter
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

// randomJitter returns a random duration in [0, maxJitter)
func randomJitter() time.Duration {
	n, err := crand.Int(crand.Reader, big.NewInt(int64(maxJitter)))
	if err != nil {
		return 0
	}
	return time.Duration(n.Int64())
}

// sleepContext waits for d unless ctx is done first
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
