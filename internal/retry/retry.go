// Package retry runs an operation a bounded number of times with exponential backoff.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes how many times to try and how long to sleep between tries.
type Policy struct {
	Attempts        uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

// DownloadPolicy matches the page download budget: 3 tries, 1s..10s.
func DownloadPolicy() Policy {
	return Policy{Attempts: 3, InitialInterval: time.Second, MaxInterval: 10 * time.Second, Multiplier: 2}
}

// CompletionPolicy matches the model call budget: 3 tries, 2s..10s.
func CompletionPolicy() Policy {
	return Policy{Attempts: 3, InitialInterval: 2 * time.Second, MaxInterval: 10 * time.Second, Multiplier: 2}
}

// Notify is called before every backoff sleep with the attempt that just failed.
type Notify func(attempt int, err error, wait time.Duration)

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a permanent error, or the policy is exhausted.
// The last error is returned unwrapped.
func Do[T any](ctx context.Context, p Policy, op func() (T, error), notify Notify) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = 0
	if p.Multiplier > 0 {
		b.Multiplier = p.Multiplier
	}

	attempts := p.Attempts
	if attempts == 0 {
		attempts = 1
	}

	attempt := 0
	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(attempts),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(func(err error, wait time.Duration) {
			notify(attempt, err, wait)
		}))
	}

	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		return op()
	}, opts...)
}
