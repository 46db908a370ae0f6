// Package wait polls a condition until it holds or a timeout elapses.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is wrapped by the error Until returns when the timeout elapses.
var ErrTimeout = errors.New("timed out")

// Default values used when a Wait is built with zero durations.
const (
	DefaultTimeout  = 10 * time.Second
	DefaultInterval = 500 * time.Millisecond
)

// Condition reports whether the awaited state was reached. Errors do not stop
// the wait; the last one is reported if the wait times out.
type Condition func() (bool, error)

// Wait is an immutable timeout/poll-interval pair.
type Wait struct {
	Timeout  time.Duration
	Interval time.Duration
}

// New returns a Wait, substituting defaults for non-positive durations.
func New(timeout, interval time.Duration) Wait {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Wait{Timeout: timeout, Interval: interval}
}

// WithTimeout returns a copy of w with a different timeout.
func (w Wait) WithTimeout(timeout time.Duration) Wait {
	return New(timeout, w.Interval)
}

// Until polls cond every Interval until it returns true, the timeout
// elapses or ctx is done. The condition is always evaluated at least once,
// and the last poll happens no later than one interval after the deadline.
func (w Wait) Until(ctx context.Context, what string, cond Condition) error {
	w = New(w.Timeout, w.Interval)
	deadline := time.Now().Add(w.Timeout)

	var lastErr error
	for {
		ok, err := cond()
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		sleep := w.Interval
		if remaining < sleep {
			sleep = remaining
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("waiting for %s: %w", what, ctx.Err())
		case <-timer.C:
		}
	}

	if lastErr != nil {
		return fmt.Errorf("%w after %s waiting for %s: %v", ErrTimeout, w.Timeout, what, lastErr)
	}
	return fmt.Errorf("%w after %s waiting for %s", ErrTimeout, w.Timeout, what)
}
