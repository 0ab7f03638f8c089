package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrExhausted is returned by Poll when every attempt completed without the
// condition being met
var ErrExhausted = errors.New("poll attempts exhausted")

// Poller repeats a lookup at a fixed interval a bounded number of times.
// The worst-case wait is (Attempts-1) * Interval plus the lookup latencies.
type Poller struct {
	Attempts int
	Interval time.Duration
}

// PollFunc performs one lookup. It reports done=true once the awaited value
// exists. A recoverable error consumes the attempt; any other error aborts.
type PollFunc func(ctx context.Context, attempt int) (done bool, err error)

// Poll runs fn until it reports done, returning the number of attempts made.
// When attempts run out, Poll returns ErrExhausted, unless the final attempt
// failed, in which case that error is returned wrapped.
func (p Poller) Poll(ctx context.Context, fn PollFunc) (int, error) {
	attempts := max(p.Attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		done, err := fn(ctx, attempt)
		switch {
		case err == nil && done:
			return attempt, nil
		case err == nil:
			lastErr = nil
		case IsRecoverable(err):
			lastErr = err
			slog.Debug("Poll attempt failed", "attempt", attempt, "max_attempts", attempts, "error", err)
		default:
			return attempt, err
		}

		if attempt == attempts {
			break
		}
		if err := sleep(ctx, p.Interval); err != nil {
			return attempt, fmt.Errorf("context cancelled while polling: %w", err)
		}
	}

	if lastErr != nil {
		return attempts, fmt.Errorf("poll failed after %d attempts: %w", attempts, lastErr)
	}
	return attempts, ErrExhausted
}
