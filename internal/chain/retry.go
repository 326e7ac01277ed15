package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	shadeerr "github.com/mrz1836/shade/pkg/errors"
)

// Sentinel errors for retry logic.
var (
	ErrRetryable = &shadeerr.ShadeError{
		Code:     "RETRYABLE_ERROR",
		Message:  "retryable error",
		ExitCode: shadeerr.ExitGeneral,
	}

	ErrTimeout = &shadeerr.ShadeError{
		Code:     "TIMEOUT",
		Message:  "operation timed out",
		ExitCode: shadeerr.ExitGeneral,
	}

	ErrRateLimited = &shadeerr.ShadeError{
		Code:     "RATE_LIMITED",
		Message:  "rate limited",
		ExitCode: shadeerr.ExitGeneral,
	}
)

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	BaseDelay   time.Duration // Delay increment between retries
	MaxDelay    time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns the default retry configuration.
// 4 attempts total (1 initial + 3 retries) with linear delays: 1s, 2s, 3s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    5 * time.Second,
	}
}

// Retry executes the operation with linear backoff retry using the default
// configuration.
func Retry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	return RetryWithConfig(ctx, DefaultRetryConfig(), operation)
}

// RetryWithConfig executes the operation with the specified retry configuration.
// The delay grows linearly with the attempt number and is capped at MaxDelay.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, operation func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}

		if !IsRetryable(err) {
			return result, err
		}

		// Don't delay after the last attempt
		if attempt < cfg.MaxAttempts-1 {
			delay := cfg.Delay(attempt)

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return result, fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, err)
}

// Delay returns the backoff after failed attempt number attempt (0-based):
// BaseDelay * (attempt + 1), capped at MaxDelay.
func (c RetryConfig) Delay(attempt int) time.Duration {
	delay := c.BaseDelay * time.Duration(attempt+1)
	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}
	return delay
}

// IsRetryable returns true if the error should trigger a retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrRetryable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return false
}

// WrapRetryable wraps an error to mark it as retryable.
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrRetryable, err)
}
