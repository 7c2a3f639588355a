package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/kelarin/rosync/internal/shared"
)

// RetryPolicy wraps an operation with bounded retries and linear backoff:
// after attempt n fails, wait Backoff × n before the next try.
//
// Retryable classifies which errors are worth retrying. The default policy
// retries only transient network and rate-limit errors; validation errors
// fail immediately.
type RetryPolicy struct {
	Attempts  int
	Backoff   time.Duration
	Retryable func(error) bool
}

// DefaultRetryPolicy returns the standard policy: 5 attempts, 1s linear
// backoff, transient errors only.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  5,
		Backoff:   time.Second,
		Retryable: shared.IsTransient,
	}
}

// Do runs op until it succeeds, exhausts the attempt budget, hits a
// non-retryable error, or the context is cancelled. The last error is
// returned on failure.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	retryable := p.Retryable
	if retryable == nil {
		retryable = shared.IsTransient
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == attempts {
			break
		}

		timer := time.NewTimer(p.Backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return err
}
