// Package retry provides a bounded fixed-delay retry executor for the sync
// pipeline. Cancellation is never reported as a failure: both call shapes
// return the context's error as soon as cancellation is observed, so callers
// can tell a clean shutdown from an exhausted budget.
package retry

import (
	"context"
	"time"
)

// Do invokes op up to maxAttempts times, waiting delay between attempts.
// Each attempt is a fresh invocation. On exhaustion the last failure is
// returned. If ctx is cancelled before an attempt or during a wait, Do stops
// and returns ctx.Err().
func Do(ctx context.Context, op func(context.Context) error, delay time.Duration, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = op(ctx)
		if last == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		if err := wait(ctx, delay); err != nil {
			return err
		}
	}
	return last
}

// Await retries an asynchronous operation. start must launch a new attempt
// and return a channel that yields that attempt's outcome; it is called once
// per attempt, so a consumed completion channel is never awaited twice. If
// ctx is cancelled while an attempt is in flight or during a wait, Await
// returns ctx.Err() without consuming further attempts.
func Await(ctx context.Context, start func(context.Context) <-chan error, delay time.Duration, maxAttempts int) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		done := start(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case last = <-done:
		}
		if last == nil {
			return nil
		}
		if attempt == maxAttempts {
			break
		}
		if err := wait(ctx, delay); err != nil {
			return err
		}
	}
	return last
}

func wait(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
