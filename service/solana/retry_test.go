package solana

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Retryable:   IsRetryable,
	}
}

func TestRetrySucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	result, err := Retry(context.Background(), fastPolicy(5), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("429 too many requests")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestRetryNonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	permanent := errors.New("invalid param: wrong signature")
	_, err := Retry(context.Background(), fastPolicy(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	transient := errors.New("gateway timeout 504")
	_, err := Retry(context.Background(), fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, transient
	})

	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls)
}

func TestRetryContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   10 * time.Second,
		MaxDelay:    10 * time.Second,
		Retryable:   IsRetryable,
	}
	_, err := Retry(ctx, policy, func(ctx context.Context) (int, error) {
		cancel()
		return 0, errors.New("connection reset by peer")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryZeroPolicyStillRuns(t *testing.T) {
	result, err := Retry(context.Background(), RetryPolicy{}, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", errors.New("request timed out"), true},
		{"rate limited", errors.New("HTTP 429: Too Many Requests"), true},
		{"bad gateway", errors.New("server returned 502"), true},
		{"unavailable", errors.New("503 service unavailable"), true},
		{"connection reset", errors.New("read tcp: connection reset"), true},
		{"bad request", errors.New("invalid base58 signature"), false},
		{"not found", errors.New("transaction not found"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestBackoffDelayBounds(t *testing.T) {
	base := 500 * time.Millisecond
	maxDelay := 8 * time.Second

	for attempt := 0; attempt < 12; attempt++ {
		expected := base << uint(attempt)
		if expected > maxDelay || expected <= 0 {
			expected = maxDelay
		}
		delay := backoffDelay(base, maxDelay, attempt)
		assert.GreaterOrEqual(t, delay, expected, "attempt %d", attempt)
		assert.LessOrEqual(t, delay, expected+time.Duration(0.3*float64(expected)), "attempt %d", attempt)
	}
}
