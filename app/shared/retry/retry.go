// Package retry provides the bounded "await-visible" helper used when a read
// depends on a write that may not be visible yet under eventual consistency.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotYetVisible is returned by an operation when the data it needs has not
// become visible yet. AwaitVisible retries on it; any other error aborts.
var ErrNotYetVisible = errors.New("not yet visible")

// Config bounds the backoff schedule.
type Config struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultConfig keeps waits short; callers are interactive triggers, not jobs.
var DefaultConfig = Config{
	InitialInterval: 100 * time.Millisecond,
	MaxInterval:     2 * time.Second,
	MaxElapsedTime:  15 * time.Second,
}

// AwaitVisible runs op with exponential backoff until it stops returning
// ErrNotYetVisible, the schedule is exhausted, or the context is cancelled.
// When the schedule runs out the last ErrNotYetVisible is surfaced so callers
// can distinguish "still invisible" from a hard failure.
func AwaitVisible(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.MaxElapsedTime = cfg.MaxElapsedTime

	return backoff.Retry(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNotYetVisible) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(bo, ctx))
}
