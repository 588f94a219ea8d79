// SPDX-License-Identifier: Apache-2.0
package resilience

import (
	"context"
	"time"

	"github.com/verai-labs/verai/pkg/errors"
)

// TimeoutConfig bounds an operation. A zero Duration means unbounded.
type TimeoutConfig struct {
	Duration time.Duration
}

// WithTimeout runs fn and returns errors.CodeTimeout when the deadline
// passes first. fn keeps running in its goroutine after a timeout; it
// should honor ctx to stop early.
func WithTimeout(ctx context.Context, config TimeoutConfig, fn func() error) error {
	if config.Duration <= 0 {
		return fn()
	}

	ctx, cancel := context.WithTimeout(ctx, config.Duration)
	defer cancel()

	result := make(chan error, 1)
	go func() { result <- fn() }()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return errors.New(errors.CodeTimeout, "operation exceeded timeout", ctx.Err()).
			WithContext("timeout", config.Duration.String()).
			WithRecoverable(true)
	}
}
