package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
)

const (
	maxRetryAttempts = 3
	initialBackoff   = 50 * time.Millisecond
	maxBackoff       = time.Second
)

// retryable lock-contention classes: serialization_failure,
// deadlock_detected, lock_not_available.
var retryableCodes = map[string]bool{
	"40001": true,
	"40P01": true,
	"55P03": true,
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return retryableCodes[string(pqErr.Code)]
	}
	return false
}

// withRetry runs fn, retrying bounded times with exponential backoff when
// it fails on lock contention. Concurrent upserts for overlapping serial
// numbers land here; anything else surfaces immediately.
func withRetry(ctx context.Context, fn func() error) error {
	backoff := initialBackoff

	var err error
	for attempt := 1; attempt <= maxRetryAttempts; attempt++ {
		err = fn()
		if err == nil || !isRetryable(err) {
			return err
		}
		if attempt == maxRetryAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}

	return err
}
