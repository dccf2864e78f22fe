package source

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks a post that no longer exists (deleted from the dense id
// range). Not retried and not counted as a fetch failure.
var ErrNotFound = errors.New("post not found")

// ErrParse marks an unrecoverable payload-shape problem. Retrying won't help,
// so the retry policy gives up immediately without consuming attempts.
var ErrParse = errors.New("unparseable payload")

// RetryPolicy wraps a request call with bounded re-attempts and a per-attempt
// timeout. There is no extra backoff here: the fetcher's pacing delay is the
// only spacing between requests.
type RetryPolicy struct {
	MaxAttempts int
	Timeout     time.Duration
}

// Do runs fn up to MaxAttempts times, each attempt under its own timeout.
// Fatal classifications (ErrParse, ErrNotFound) short-circuit; everything
// else is treated as transient.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			return nil
		}
		if errors.Is(err, ErrParse) || errors.Is(err, ErrNotFound) {
			return err
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, p.MaxAttempts, lastErr)
}
