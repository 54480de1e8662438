package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/clipwatch/clipwatch/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2.0,
		JitterEnabled:   false,
		RetryableErrors: func(error) bool { return true },
	}
}

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.NewNetworkError("submit failed", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := RetryWithConfig(context.Background(), fastConfig(), func() error {
		calls++
		return errors.NewNetworkError("submit failed", nil)
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	config := fastConfig()
	config.RetryableErrors = errors.IsRetryableError

	calls := 0
	err := RetryWithConfig(context.Background(), config, func() error {
		calls++
		return errors.NewValidationError("bad payload")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithConfig(ctx, fastConfig(), func() error {
		return errors.NewNetworkError("submit failed", nil)
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateDelayBackoffAndCap(t *testing.T) {
	config := fastConfig()

	assert.Equal(t, time.Millisecond, calculateDelay(config, 0))
	assert.Equal(t, 2*time.Millisecond, calculateDelay(config, 1))
	assert.Equal(t, 4*time.Millisecond, calculateDelay(config, 2))
	assert.Equal(t, 5*time.Millisecond, calculateDelay(config, 10)) // capped
}
