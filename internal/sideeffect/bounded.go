// Package sideeffect runs calls to external collaborators under a deadline.
package sideeffect

import (
	"context"
	"time"
)

// Call runs fn with a context bounded by timeout and returns as soon as
// either fn finishes or the deadline passes, even if fn ignores ctx.
// A timeout <= 0 leaves ctx unbounded.
func Call[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
