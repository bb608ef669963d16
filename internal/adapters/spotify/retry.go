package spotify

import (
	"context"
	"fmt"
	"time"
)

// One retry after a fixed short delay, then give up. Callers above this
// layer degrade to an empty pool instead of propagating the failure.
const (
	retryAttempts = 2
	retryDelay    = 500 * time.Millisecond
)

func withRetry[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("request canceled: %w", err)
		}
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt < retryAttempts-1 {
			if err := sleepWithContext(ctx, retryDelay); err != nil {
				return zero, err
			}
		}
	}
	return zero, lastErr
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
