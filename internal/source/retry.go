package source

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// MaxRetries bounds the attempts made by Retry.
const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// Retry calls fn up to MaxRetries times while it fails with a RetryableError,
// sleeping wait(attempt) in between. A nil wait means Backoff.
func Retry[T any](ctx context.Context, log *slog.Logger, wait func(int) time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if wait == nil {
		wait = Backoff
	}
	var v T
	var err error
	for attempt := range MaxRetries {
		v, err = fn(ctx)
		if err == nil || !IsRetryable(err) {
			return v, err
		}
		if log != nil {
			log.Warn("retryable source error", "attempt", attempt, "error", err)
		}
		if attempt == MaxRetries-1 {
			break
		}
		select {
		case <-time.After(wait(attempt)):
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
	return v, err
}

// Retrying wraps a provider so transient failures are retried.
type Retrying struct {
	Provider Provider
	Log      *slog.Logger
	Wait     func(attempt int) time.Duration
}

func (r *Retrying) Fetch(ctx context.Context, topic string) (Result, error) {
	log := r.Log
	if log != nil {
		log = log.With("topic", topic)
	}
	return Retry(ctx, log, r.Wait, func(ctx context.Context) (Result, error) {
		return r.Provider.Fetch(ctx, topic)
	})
}
