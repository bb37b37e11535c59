package dataflows

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RetryConfig is the backoff applied to one RPC call.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2,
	}
}

// Backoff is the wait before retry number n (1-based).
func (r *RetryConfig) Backoff(n int) time.Duration {
	d := float64(r.BaseDelay)
	for i := 1; i < n; i++ {
		d *= r.Multiplier
		if time.Duration(d) >= r.MaxDelay {
			return r.MaxDelay
		}
	}
	return min(time.Duration(d), r.MaxDelay)
}

// WithRetry calls fn until it succeeds, returns a permanent error, runs out
// of retries or ctx ends.
func WithRetry(ctx context.Context, r *RetryConfig, fn func() error) error {
	var err error
	for n := 0; n <= r.MaxRetries; n++ {
		if n > 0 {
			t := time.NewTimer(r.Backoff(n))
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("retry aborted after %d attempts: %w", n, ctx.Err())
			case <-t.C:
			}
		}
		if err = fn(); err == nil {
			return nil
		}
		var p permanentError
		if errors.As(err, &p) {
			return p.err
		}
	}
	return fmt.Errorf("giving up after %d attempts: %w", r.MaxRetries+1, err)
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// permanent marks err as not worth retrying.
func permanent(err error) error {
	return permanentError{err: err}
}
