// Package retry runs an operation under a bounded-attempt policy.
//
// The default policy reproduces the operator scripts' behavior: a fixed
// inter-attempt delay with no backoff. Backoff with jitter is available as an
// opt-in improvement; both are plain data on Policy so the attempt loop stays
// inspectable and testable.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// ErrExhausted indicates the attempt budget was consumed by retryable
// failures. It wraps the last attempt's error.
var ErrExhausted = errors.New("retry attempts exhausted")

// Policy holds the attempt-loop parameters.
//
// Invalid values are normalized: MaxAttempts < 1 becomes 1, Delay < 0
// becomes 0, MaxDelay <= 0 becomes Delay.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration // inter-attempt delay; fixed unless Backoff is set
	Backoff     bool          // double the delay each retry, capped at MaxDelay
	MaxDelay    time.Duration
	Jitter      bool // randomize each delay in [delay/2, delay)
}

// normalize ensures all Policy fields have usable values.
func (p *Policy) normalize() {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = p.Delay
	}
}

// Do invokes fn until it succeeds, fails terminally, or the budget runs out.
//
// A retryable failure (per shouldRetry) consumes one attempt and, with budget
// remaining, sleeps the policy delay before the next try. A terminal failure
// stops immediately and is returned unwrapped regardless of remaining budget.
// When the budget is consumed the last error is returned wrapped in
// ErrExhausted; both the sentinel and the cause remain reachable through
// errors.Is/As. Context cancellation during a delay aborts with ctx.Err().
func Do[T any](
	ctx context.Context,
	p Policy,
	fn func(attempt int) (T, error),
	shouldRetry func(error) bool,
) (T, error) {
	p.normalize()

	var zero T
	var lastErr error
	delay := p.Delay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		result, err := fn(attempt)
		if err == nil {
			return result, nil
		}
		if !shouldRetry(err) {
			return zero, err
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}
		if err := sleep(ctx, withJitter(delay, p.Jitter)); err != nil {
			return zero, err
		}
		if p.Backoff {
			delay = min(delay*2, p.MaxDelay)
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// withJitter spreads a delay over [d/2, d) to avoid thundering retries.
func withJitter(d time.Duration, jitter bool) time.Duration {
	if !jitter || d <= 0 {
		return d
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)))
}
