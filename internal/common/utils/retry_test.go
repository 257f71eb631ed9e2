package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-orchestrator/internal/common/errors"
)

func fastConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetryWithBackoff_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.ConnectionError("flaky", nil)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), fastConfig(3), func() error {
		calls++
		return errors.ConnectionError("down", nil)
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_NonRetryableStopsImmediately(t *testing.T) {
	cfg := fastConfig(5)
	cfg.RetryableErrors = func(err error) bool {
		return errors.GetType(err) != errors.ErrTypeValidation
	}

	calls := 0
	original := errors.ValidationError("bad input")
	err := RetryWithBackoff(context.Background(), cfg, func() error {
		calls++
		return original
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, original, err, "non-retryable errors come back unchanged")
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastConfig(3)
	cfg.InitialDelay = time.Second

	err := RetryWithBackoff(ctx, cfg, func() error {
		return errors.ConnectionError("down", nil)
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(2, time.Millisecond, func() error {
		calls++
		return errors.InternalError("nope", nil)
	})

	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}
