// Package deadline time-boxes blocking calls. A call that outlives its
// deadline keeps running in the background; its late result is discarded.
package deadline

import (
	"context"
	"fmt"
	"time"
)

type result[T any] struct {
	value T
	err   error
}

// Run calls fn with a context bounded by timeout and returns as soon as
// either fn returns or the deadline passes. A non-positive timeout only
// honours ctx.
func Run[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	return RunDiscard(ctx, timeout, fn, nil)
}

// RunDiscard is Run with a hook that receives values produced after the
// deadline, so owned resources can be released.
func RunDiscard[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error), discard func(T)) (T, error) {
	callCtx := ctx
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	}

	done := make(chan result[T], 1)
	go func() {
		value, err := fn(callCtx)
		done <- result[T]{value: value, err: err}
	}()

	select {
	case res := <-done:
		cancel()
		return res.value, res.err
	case <-callCtx.Done():
		err := callCtx.Err()
		cancel()
		go func() {
			late := <-done
			if discard != nil && late.err == nil {
				discard(late.value)
			}
		}()
		var zero T
		if timeout > 0 && err == context.DeadlineExceeded {
			return zero, fmt.Errorf("timed out after %s: %w", timeout, err)
		}
		return zero, err
	}
}
