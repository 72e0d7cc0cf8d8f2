package crawler

import (
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"time"
)

// RetryPolicy bounds retries of transient fetch failures with jittered
// exponential backoff.
type RetryPolicy struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryPolicy builds a policy with the default budget: two extra
// attempts, 250ms base delay, 5s cap.
func NewRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		maxRetries: 2,
		baseDelay:  250 * time.Millisecond,
		maxDelay:   5 * time.Second,
	}
}

// ShouldRetry reports whether the error is transient and the budget allows
// another attempt. Timeouts, connection failures, and HTTP 5xx are
// transient; HTTP 4xx is permanent. attempt is zero-based.
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= p.maxRetries {
		return false
	}
	var ferr *FetchError
	if !errors.As(err, &ferr) {
		// Anything that is not a typed fetch failure (context
		// cancellation, programming errors) is never retried.
		return false
	}
	switch ferr.Kind {
	case KindTimeout, KindConnection:
		return true
	case KindHTTP:
		return ferr.StatusCode >= 500
	default:
		return false
	}
}

// Backoff returns the wait duration before the next attempt.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	jitter := p.randomJitter(time.Duration(delay) / 2)
	return time.Duration(delay/2) + jitter
}

func (p *RetryPolicy) randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
