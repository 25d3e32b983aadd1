package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	glypherr "github.com/glyphlabs/glyph/pkg/errors"
)

func TestRetryWithConfig(t *testing.T) {
	t.Parallel()

	transportErr := glypherr.Wrap(glypherr.ErrTransport, "connection reset")

	t.Run("succeeds first attempt", func(t *testing.T) {
		t.Parallel()

		calls := 0
		result, err := RetryWithConfig(context.Background(), fastRetry(), nil, func() (string, error) {
			calls++
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries transport errors until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		var retried []int
		onRetry := func(attempt int, err error) {
			retried = append(retried, attempt)
			assert.True(t, errors.Is(err, glypherr.ErrTransport))
		}
		result, err := RetryWithConfig(context.Background(), fastRetry(), onRetry, func() (string, error) {
			calls++
			if calls < 3 {
				return "", transportErr
			}
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", result)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{1, 2}, retried)
	})

	t.Run("exhausts attempts on persistent transport failure", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := RetryWithConfig(context.Background(), fastRetry(), nil, func() (string, error) {
			calls++
			return "", transportErr
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, glypherr.ErrTransport))
		assert.Contains(t, err.Error(), "after 3 attempts")
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry rejections", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := RetryWithConfig(context.Background(), fastRetry(), nil, func() (string, error) {
			calls++
			return "", glypherr.ErrSubmissionRejected
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("does not retry signing declines", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := RetryWithConfig(context.Background(), fastRetry(), nil, func() (string, error) {
			calls++
			return "", glypherr.ErrSigningRejected
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, glypherr.ErrSigningRejected))
		assert.Equal(t, 1, calls)
	})

	t.Run("honors context cancellation between attempts", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := RetryWithConfig(ctx, RetryConfig{MaxAttempts: 5, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}, nil, func() (string, error) {
			calls++
			cancel()
			return "", transportErr
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
		assert.Equal(t, 1, calls)
	})
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "transport", err: glypherr.ErrTransport, want: true},
		{name: "wrapped transport", err: glypherr.Wrap(glypherr.ErrTransport, "dial tcp"), want: true},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "rejection", err: glypherr.ErrSubmissionRejected, want: false},
		{name: "signing decline", err: glypherr.ErrSigningRejected, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestCalculateDelay(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	maxDelay := 400 * time.Millisecond

	for attempt := 0; attempt < 6; attempt++ {
		expected := base * (1 << attempt)
		if expected > maxDelay {
			expected = maxDelay
		}
		d := calculateDelay(attempt, base, maxDelay)
		assert.GreaterOrEqual(t, d, expected/2, "attempt %d", attempt)
		assert.Less(t, d, expected, "attempt %d", attempt)
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	t.Run("burst then deny", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(1, 2)
		assert.True(t, rl.Allow(endpointSubmit))
		assert.True(t, rl.Allow(endpointSubmit))
		assert.False(t, rl.Allow(endpointSubmit))
	})

	t.Run("endpoints limited independently", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(1, 1)
		assert.True(t, rl.Allow(endpointSubmit))
		assert.False(t, rl.Allow(endpointSubmit))
		assert.True(t, rl.Allow(endpointStatus))
	})

	t.Run("wait honors context", func(t *testing.T) {
		t.Parallel()

		rl := NewRateLimiter(0.001, 1)
		require.True(t, rl.Allow(endpointData))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		err := rl.Wait(ctx, endpointData)
		assert.Error(t, err)
	})
}
