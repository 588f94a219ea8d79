// SPDX-License-Identifier: Apache-2.0
// Package resilience provides retry, timeout and circuit breaker patterns
// around the flaky edges of the platform (LLM calls, vector stores).
package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/verai-labs/verai/pkg/errors"
)

// RetryConfig drives retries with exponential backoff and jitter.
type RetryConfig struct {
	// MaxAttempts bounds the total number of calls, first try included.
	MaxAttempts int

	// InitialDelay is the backoff before the second attempt.
	InitialDelay time.Duration

	// MaxDelay caps the grown backoff.
	MaxDelay time.Duration

	// Multiplier grows the delay between attempts.
	Multiplier float64

	// Jitter spreads the delay by up to this fraction either way.
	Jitter float64

	// IsRecoverable decides whether an error is worth another attempt.
	// Nil retries everything.
	IsRecoverable func(error) bool
}

// DefaultRetryConfig suits short remote calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		Multiplier:    2.0,
		Jitter:        0.1,
		IsRecoverable: recoverable,
	}
}

// WithMaxAttempts returns a copy with MaxAttempts set.
func (rc RetryConfig) WithMaxAttempts(max int) RetryConfig {
	rc.MaxAttempts = max
	return rc
}

// WithInitialDelay returns a copy with InitialDelay set.
func (rc RetryConfig) WithInitialDelay(d time.Duration) RetryConfig {
	rc.InitialDelay = d
	return rc
}

// WithIsRecoverable returns a copy with the retry predicate set.
func (rc RetryConfig) WithIsRecoverable(fn func(error) bool) RetryConfig {
	rc.IsRecoverable = fn
	return rc
}

// Do calls fn until it succeeds, the error is unrecoverable, the context
// ends, or attempts run out. The last error is returned on exhaustion.
func (rc RetryConfig) Do(ctx context.Context, fn func() error) error {
	attempts := rc.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	shouldRetry := rc.IsRecoverable
	if shouldRetry == nil {
		shouldRetry = recoverable
	}

	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return errors.New(errors.CodeContextLost, "context canceled during retry", ctx.Err()).
					WithContext("attempt", attempt-1).
					WithContext("max_attempts", attempts)
			case <-time.After(rc.backoff(attempt - 1)):
			}
		}

		last = fn()
		if last == nil {
			return nil
		}
		if !shouldRetry(last) {
			return last
		}
	}
	return last
}

// backoff grows the delay exponentially for the given completed attempt
// count and spreads it by the jitter fraction.
func (rc RetryConfig) backoff(completed int) time.Duration {
	mult := rc.Multiplier
	if mult == 0 {
		mult = 2.0
	}
	d := time.Duration(float64(rc.InitialDelay) * math.Pow(mult, float64(completed)))
	if rc.MaxDelay > 0 && d > rc.MaxDelay {
		d = rc.MaxDelay
	}
	if rc.Jitter > 0 {
		spread := 1 + rc.Jitter*(2*rand.Float64()-1)
		d = time.Duration(float64(d) * spread)
		if d < 0 {
			d = 0
		}
	}
	return d
}

// recoverable honors the Recoverable flag on typed errors and retries
// everything else.
func recoverable(err error) bool {
	if typed, ok := err.(*errors.Error); ok {
		return typed.Recoverable
	}
	return err != nil
}
