package solana

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
)

// RetryPolicy controls the retry combinator: attempt cap, exponential backoff
// bounds, and a predicate deciding which errors are worth retrying.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy returns the policy used for single transaction fetches:
// 5 attempts, 500ms base delay doubling up to an 8s cap.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Retryable:   IsRetryable,
	}
}

// retryableSignals are substrings that mark an RPC error as transient.
var retryableSignals = []string{
	"timeout",
	"timed out",
	"connection reset",
	"connection refused",
	"429",
	"too many requests",
	"rate limit",
	"502",
	"503",
	"504",
}

// IsRetryable classifies an error as transient by inspecting its message.
// Non-retryable errors (bad request, invalid signature, parse failures)
// propagate to the caller immediately.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, signal := range retryableSignals {
		if strings.Contains(msg, signal) {
			return true
		}
	}
	return false
}

// isRateLimited reports whether a transient error was specifically a rate
// limit response.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "too many requests") ||
		strings.Contains(msg, "rate limit")
}

// Retry runs op under the given policy. It retries transient errors with
// exponential backoff plus 0-30% jitter, gives up after MaxAttempts, and
// re-raises the last error. The zero-delay fields fall back to the defaults
// so a partially filled policy is still usable.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func(context.Context) (T, error)) (T, error) {
	var zero T

	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	base := policy.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	maxDelay := policy.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 8 * time.Second
	}
	retryable := policy.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			return zero, err
		}
		if attempt == attempts-1 {
			break
		}

		delay := backoffDelay(base, maxDelay, attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}

// backoffDelay computes the exponential backoff for the given attempt, capped
// at maxDelay, with 0-30% jitter added to spread out retry storms.
func backoffDelay(base, maxDelay time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt)
	if delay > maxDelay || delay <= 0 {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Float64() * 0.3 * float64(delay))
	return delay + jitter
}
