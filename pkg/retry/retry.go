package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Options controls backoff behavior for Do.
type Options struct {
	Attempts    int           // maximum number of attempts
	BaseDelay   time.Duration // initial delay between retries
	MaxDelay    time.Duration // cap on the computed delay
	Exponential bool          // exponential backoff if true, fixed delay otherwise
	Jitter      bool          // scale each delay by a random factor in [0.5, 1.5)
	// Retryable decides whether an error is worth retrying.
	// nil retries every error; the engine never decides this itself.
	Retryable func(error) bool
}

// DefaultOptions mirrors the usual placement/persistence retry profile.
func DefaultOptions() Options {
	return Options{
		Attempts:    3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    30 * time.Second,
		Exponential: true,
		Jitter:      true,
	}
}

// Error is returned when all attempts fail.
type Error struct {
	Attempts int
	LastErr  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.LastErr)
}

func (e *Error) Unwrap() error { return e.LastErr }

// Do runs op until it succeeds, the error is not retryable, attempts are
// exhausted, or ctx is done. Context errors are returned as-is so callers can
// distinguish cancellation from exhaustion.
func Do(ctx context.Context, op func() error, opts Options) error {
	if opts.Attempts <= 0 {
		opts.Attempts = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 30 * time.Second
	}

	var lastErr error
	for attempt := 0; attempt < opts.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op()
		if err == nil {
			return nil
		}
		if opts.Retryable != nil && !opts.Retryable(err) {
			return err
		}
		lastErr = err
		if attempt == opts.Attempts-1 {
			break
		}

		delay := opts.BaseDelay
		if opts.Exponential {
			delay = opts.BaseDelay << uint(attempt)
			if delay > opts.MaxDelay {
				delay = opts.MaxDelay
			}
		}
		if opts.Jitter {
			delay = time.Duration(float64(delay) * (0.5 + rand.Float64()))
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return &Error{Attempts: opts.Attempts, LastErr: lastErr}
}
