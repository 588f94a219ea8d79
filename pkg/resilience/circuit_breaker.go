// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/verai-labs/verai/pkg/errors"
)

// CircuitBreakerState is the circuit lifecycle state.
type CircuitBreakerState string

const (
	// StateClosed lets calls through and counts failures.
	StateClosed CircuitBreakerState = "closed"

	// StateOpen rejects calls until the cooldown elapses.
	StateOpen CircuitBreakerState = "open"

	// StateHalfOpen lets probe calls through to test recovery.
	StateHalfOpen CircuitBreakerState = "half-open"
)

// CircuitBreakerConfig tunes when the circuit opens and recovers.
type CircuitBreakerConfig struct {
	// FailureThreshold opens the circuit after this many consecutive failures.
	FailureThreshold int

	// SuccessThreshold closes a half-open circuit after this many successes.
	SuccessThreshold int

	// Timeout is the cooldown before an open circuit allows a probe.
	Timeout time.Duration

	// Name identifies the breaker in errors and logs.
	Name string
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = 5
	}
	if c.SuccessThreshold < 1 {
		c.SuccessThreshold = 2
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Name == "" {
		c.Name = "circuit_breaker"
	}
	return c
}

// CircuitBreaker sheds load from a failing dependency instead of
// hammering it.
type CircuitBreaker struct {
	config CircuitBreakerConfig

	mu        sync.Mutex
	state     CircuitBreakerState
	failures  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker builds a closed breaker with config defaults applied.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config: config.withDefaults(),
		state:  StateClosed,
	}
}

// Call runs fn unless the circuit is open. The breaker counts the
// outcome; an open circuit returns a recoverable error without running fn.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.openedAt) > cb.config.Timeout {
		cb.toState(StateHalfOpen)
	}
	if cb.state == StateOpen {
		return errors.New(errors.CodeInternal, "circuit breaker open", nil).
			WithContext("breaker", cb.config.Name).
			WithRecoverable(true)
	}

	if err := fn(); err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onFailure() {
	cb.failures++
	cb.openedAt = time.Now()
	switch cb.state {
	case StateHalfOpen:
		cb.toState(StateOpen)
	case StateClosed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.toState(StateOpen)
		}
	}
}

func (cb *CircuitBreaker) onSuccess() {
	switch cb.state {
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.toState(StateClosed)
		}
	case StateClosed:
		cb.failures = 0
	}
}

// toState resets the counters on every transition. Caller holds the lock.
func (cb *CircuitBreaker) toState(next CircuitBreakerState) {
	if next != cb.state {
		cb.failures = 0
		cb.successes = 0
	}
	cb.state = next
}

// State reports the current lifecycle state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.toState(StateClosed)
	cb.failures = 0
	cb.successes = 0
}
