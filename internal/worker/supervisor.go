// Package worker hosts the consumer loop as a supervised background task.
package worker

import (
	"context"
	"errors"
	"log"
	"time"

	"device-sync-backend/internal/retry"
)

// Supervisor restarts a background task when it exits with an error, within
// a bounded attempt budget. When the budget is exhausted the last failure is
// returned so the hosting process can exit non-zero; cancellation is a clean
// stop.
type Supervisor struct {
	name     string
	run      func(context.Context) error
	delay    time.Duration
	attempts int
}

// NewSupervisor wraps run as a supervised task.
func NewSupervisor(name string, run func(context.Context) error, delay time.Duration, attempts int) *Supervisor {
	return &Supervisor{
		name:     name,
		run:      run,
		delay:    delay,
		attempts: attempts,
	}
}

// Run blocks until the task succeeds, the attempt budget is exhausted, or
// ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	attempt := 0
	err := retry.Await(ctx, func(ctx context.Context) <-chan error {
		attempt++
		if attempt > 1 {
			log.Printf("%s: restarting (attempt %d of %d)", s.name, attempt, s.attempts)
		}
		done := make(chan error, 1)
		go func() {
			done <- s.run(ctx)
		}()
		return done
	}, s.delay, s.attempts)

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
