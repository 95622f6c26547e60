package service

import (
	"context"
	"errors"
	"time"

	"github.com/zyborn/auction-api/internal/core/domain"
)

// RetryPolicy bounds internal retries of transient store reads.
// Writes are never retried.
type RetryPolicy struct {
	Attempts int           // total attempts including the first; <= 1 disables retries
	Backoff  time.Duration // base delay, doubled after each failed attempt
}

// DefaultRetryPolicy is used when the caller passes a zero policy.
var DefaultRetryPolicy = RetryPolicy{Attempts: 3, Backoff: 50 * time.Millisecond}

// shouldRetry reports whether another attempt is allowed after the given
// failed attempt, sleeping for the backoff first. Only ErrStorageUnavailable
// is treated as transient.
func (p RetryPolicy) shouldRetry(ctx context.Context, err error, attempt int) bool {
	if !errors.Is(err, domain.ErrStorageUnavailable) || attempt >= p.Attempts {
		return false
	}

	delay := p.Backoff << (attempt - 1)
	if delay <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// readWithRetry runs a read, retrying transient failures under p.
func readWithRetry[T any](ctx context.Context, p RetryPolicy, read func(context.Context) (T, error)) (T, error) {
	v, err := read(ctx)
	for attempt := 1; err != nil && p.shouldRetry(ctx, err, attempt); attempt++ {
		v, err = read(ctx)
	}
	return v, err
}
