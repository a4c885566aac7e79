// Package retry runs bounded retries with exponential backoff around store calls.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Permanent marks err as not retryable. Do returns the unwrapped err.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do calls fn up to maxAttempts times, doubling the delay from baseDelay
// with jitter between attempts. It stops early on success, on a Permanent
// error, or when ctx is done.
func Do[T any](ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() (T, error)) (T, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.25
	b.MaxInterval = 32 * baseDelay

	return backoff.Retry[T](ctx, fn,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
}
