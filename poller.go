package goAccount

import (
	"context"
	"errors"
	"time"
)

// errPollRetry is the retry signal a poll action returns to be rescheduled
// after the same fixed delay.
var errPollRetry = errors.New("poll retry")

// pollUntil waits delay, runs action, and repeats while action returns
// errPollRetry. Any other return value is terminal. maxAttempts caps the
// number of action runs (0 = unbounded); when the cap is exhausted the poll
// fails with ErrRetryLimit. Cancelling ctx stops the loop between runs.
func pollUntil(ctx context.Context, delay time.Duration, maxAttempts int, action func(ctx context.Context) error) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		err := action(ctx)
		if !errors.Is(err, errPollRetry) {
			return err
		}

		attempts++
		if maxAttempts > 0 && attempts >= maxAttempts {
			return ErrRetryLimit
		}
		timer.Reset(delay)
	}
}
