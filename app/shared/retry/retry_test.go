package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	return Config{
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		MaxElapsedTime:  100 * time.Millisecond,
	}
}

func TestAwaitVisible_SucceedsAfterRetries(t *testing.T) {
	attempts := 0
	err := AwaitVisible(context.Background(), fastConfig(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return ErrNotYetVisible
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestAwaitVisible_SurfacesNotYetVisibleWhenExhausted(t *testing.T) {
	err := AwaitVisible(context.Background(), fastConfig(), func(ctx context.Context) error {
		return ErrNotYetVisible
	})

	assert.ErrorIs(t, err, ErrNotYetVisible)
}

func TestAwaitVisible_HardErrorAbortsImmediately(t *testing.T) {
	boom := errors.New("boom")
	attempts := 0
	err := AwaitVisible(context.Background(), fastConfig(), func(ctx context.Context) error {
		attempts++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestAwaitVisible_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := AwaitVisible(ctx, fastConfig(), func(ctx context.Context) error {
		return ErrNotYetVisible
	})

	assert.Error(t, err)
}
