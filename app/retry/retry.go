// Package retry runs an operation with bounded exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

var (
	ErrExhaustedRetries = errors.New("retries exhausted")
	ErrNonRetryable     = errors.New("non-retryable error")
)

// Policy configures Do. A nil IsRetryable treats every error as retryable.
type Policy struct {
	MaxRetries    int
	MinDelay      time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
	IsRetryable   func(error) bool
}

// DefaultPolicy mirrors the values used for trip generation.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:    3,
		MinDelay:      1500 * time.Millisecond,
		MaxDelay:      7 * time.Second,
		BackoffFactor: 2,
		Jitter:        true,
	}
}

// Error is returned when Do gives up. It unwraps to both the reason
// (ErrExhaustedRetries or ErrNonRetryable) and the last operation error.
type Error struct {
	Reason   error
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v after %d attempt(s): %v", e.Reason, e.Attempts, e.Err)
}

func (e *Error) Unwrap() []error { return []error{e.Reason, e.Err} }

// swapped in tests
var (
	randFloat = rand.Float64
	wait      = sleepContext
)

// Do runs op up to policy.MaxRetries+1 times. op receives the attempt index.
// Waiting between attempts stops early when ctx is done.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	maxRetries := max(policy.MaxRetries, 0)

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return zero, err
		}

		retryable := policy.IsRetryable == nil || policy.IsRetryable(err)
		if !retryable {
			return zero, &Error{Reason: ErrNonRetryable, Attempts: attempt + 1, Err: err}
		}
		if attempt >= maxRetries {
			return zero, &Error{Reason: ErrExhaustedRetries, Attempts: attempt + 1, Err: err}
		}

		if werr := wait(ctx, Delay(policy, attempt)); werr != nil {
			return zero, werr
		}
	}
}

// Delay is the wait after a failed attempt: min(MinDelay*Factor^attempt, MaxDelay),
// drawn from [d/2, d] when jitter is on.
func Delay(policy Policy, attempt int) time.Duration {
	d := backoff(policy, attempt)
	if !policy.Jitter || d <= 0 {
		return d
	}
	half := d / 2
	j := half + time.Duration(randFloat()*float64(d-half))
	if j <= 0 {
		return 1
	}
	return j
}

func backoff(policy Policy, attempt int) time.Duration {
	if policy.MinDelay <= 0 {
		return 0
	}
	factor := policy.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	d := float64(policy.MinDelay) * math.Pow(factor, float64(attempt))
	if policy.MaxDelay > 0 && d > float64(policy.MaxDelay) {
		return policy.MaxDelay
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
