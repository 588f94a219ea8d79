// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/verai-labs/verai/pkg/errors"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	cfg := DefaultRetryConfig().WithMaxAttempts(3).WithInitialDelay(time.Millisecond)

	calls := 0
	err := cfg.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient failure %d", calls)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnUnrecoverable(t *testing.T) {
	cfg := DefaultRetryConfig().WithMaxAttempts(5).WithInitialDelay(time.Millisecond)

	calls := 0
	err := cfg.Do(context.Background(), func() error {
		calls++
		return errors.New(errors.CodeInvalidInput, "bad request", nil)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("unrecoverable error should not retry, got %d calls", calls)
	}
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	cfg := DefaultRetryConfig().WithMaxAttempts(10).WithInitialDelay(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cfg.Do(ctx, func() error {
		return fmt.Errorf("always fails")
	})
	verr := errors.As(err)
	if verr == nil || verr.Code != errors.CodeContextLost {
		t.Fatalf("expected CodeContextLost, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), TimeoutConfig{Duration: 10 * time.Millisecond}, func() error {
		time.Sleep(100 * time.Millisecond)
		return nil
	})
	verr := errors.As(err)
	if verr == nil || verr.Code != errors.CodeTimeout {
		t.Fatalf("expected CodeTimeout, got %v", err)
	}

	if err := WithTimeout(context.Background(), TimeoutConfig{Duration: time.Second}, func() error {
		return nil
	}); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          20 * time.Millisecond,
		Name:             "test",
	})
	ctx := context.Background()
	failing := func() error { return fmt.Errorf("boom") }

	for i := 0; i < 2; i++ {
		if err := cb.Call(ctx, failing); err == nil {
			t.Fatal("expected failure")
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected open state, got %s", cb.State())
	}

	if err := cb.Call(ctx, func() error { return nil }); err == nil {
		t.Fatal("expected open circuit to reject call")
	}

	time.Sleep(30 * time.Millisecond)
	if err := cb.Call(ctx, func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected closed state after recovery, got %s", cb.State())
	}
}
