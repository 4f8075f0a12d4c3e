package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/takapay/wallet-service/internal/store"
)

// ErrStoreUnavailable wraps a store failure that persisted through the bounded
// retry window. It is surfaced to the user as a generic failure and logged for
// the administrator; it is never silently dropped.
var ErrStoreUnavailable = errors.New("store unavailable")

// retryPolicy bounds how often a transient store failure is retried before it
// becomes ErrStoreUnavailable. Validation and protocol errors are terminal and
// never retried.
type retryPolicy struct {
	attempts int
	backoff  time.Duration
}

func newRetryPolicy(attempts int, backoff time.Duration) retryPolicy {
	if attempts < 1 {
		attempts = 3
	}
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return retryPolicy{attempts: attempts, backoff: backoff}
}

// run executes fn, retrying transient failures with doubling backoff.
func (p retryPolicy) run(ctx context.Context, fn func() error) error {
	var err error
	delay := p.backoff
	for attempt := 0; attempt < p.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}

		err = fn()
		if err == nil {
			return nil
		}
		if isTerminal(err) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// isTerminal reports whether an error must be surfaced immediately instead of
// retried.
func isTerminal(err error) bool {
	switch {
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrAccountExists),
		errors.Is(err, store.ErrInsufficientBalance),
		errors.Is(err, store.ErrTransactionNotFound),
		errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return true
	}
	return false
}
