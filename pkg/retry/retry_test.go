package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOptions(attempts int) Options {
	return Options{Attempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, fastOptions(5))
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustion(t *testing.T) {
	base := errors.New("still broken")
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return base
	}, fastOptions(3))

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var rerr *Error
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 3, rerr.Attempts)
	assert.True(t, errors.Is(err, base))
}

func TestDoNonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("bad request")
	opts := fastOptions(5)
	opts.Retryable = func(err error) bool { return !errors.Is(err, fatal) }

	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return fatal
	}, opts)

	assert.Equal(t, 1, calls)
	// non-retryable errors come back as-is, unwrapped
	assert.Equal(t, fatal, err)
}

func TestDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, func() error {
		calls++
		return errors.New("never retried")
	}, fastOptions(3))

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return nil
	}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
