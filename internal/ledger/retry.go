package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

// RetryConfig configures submission retry behavior. Only transport-level
// failures retry: a rejection means the ledger saw the payload and said no,
// and resubmitting it unmodified cannot succeed.
type RetryConfig struct {
	MaxAttempts int           // Maximum number of attempts (including initial)
	BaseDelay   time.Duration // Initial delay between retries
	MaxDelay    time.Duration // Maximum delay between retries
}

// DefaultRetryConfig returns the default retry configuration.
// 4 attempts total (1 initial + 3 retries) with delays: 500ms, 1s, 2s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    4 * time.Second,
	}
}

// Retry executes the operation with exponential backoff retry using the
// default configuration.
func Retry[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	return RetryWithConfig(ctx, DefaultRetryConfig(), nil, operation)
}

// RetryWithConfig executes the operation with the specified retry
// configuration. onRetry, if non-nil, is invoked before each retry sleep.
func RetryWithConfig[T any](ctx context.Context, cfg RetryConfig, onRetry func(attempt int, err error), operation func() (T, error)) (T, error) {
	var result T
	var err error

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

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
			if onRetry != nil {
				onRetry(attempt+1, err)
			}

			delay := calculateDelay(attempt, cfg.BaseDelay, cfg.MaxDelay)

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

// calculateDelay calculates the delay for the given attempt using exponential backoff with jitter.
// Jitter prevents thundering herd when multiple goroutines retry simultaneously.
func calculateDelay(attempt int, baseDelay, maxDelay time.Duration) time.Duration {
	delay := baseDelay * (1 << attempt) // 2^attempt * baseDelay
	if delay > maxDelay {
		delay = maxDelay
	}
	// Add jitter: random duration in [delay/2, delay).
	// Cryptographic randomness is not needed for retry jitter.
	half := delay / 2
	if half <= 0 {
		return delay
	}
	return half + rand.N(half) //nolint:gosec // G404: Jitter does not require cryptographic randomness
}

// IsRetryable returns true if the error should trigger a retry.
// Transport failures are ambiguous about server-side effect and retry with
// backoff; rejections and signing declines never do.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, glypherr.ErrTransport) ||
		errors.Is(err, context.DeadlineExceeded)
}
