package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zyborn/auction-api/internal/core/domain"
)

func TestReadWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	v, err := readWithRetry(context.Background(), RetryPolicy{Attempts: 3, Backoff: time.Millisecond}, func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, domain.ErrStorageUnavailable
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 || calls != 3 {
		t.Fatalf("expected 42 after 3 calls, got %d after %d", v, calls)
	}
}

func TestReadWithRetry_SingleAttemptDisablesRetries(t *testing.T) {
	calls := 0
	_, err := readWithRetry(context.Background(), RetryPolicy{Attempts: 1}, func(context.Context) (int, error) {
		calls++
		return 0, domain.ErrStorageUnavailable
	})
	if !errors.Is(err, domain.ErrStorageUnavailable) || calls != 1 {
		t.Fatalf("expected one failed call, got %d calls, err %v", calls, err)
	}
}

func TestReadWithRetry_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := readWithRetry(ctx, RetryPolicy{Attempts: 5, Backoff: time.Hour}, func(context.Context) (int, error) {
		calls++
		return 0, domain.ErrStorageUnavailable
	})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retry after cancellation, got %d calls", calls)
	}
}
