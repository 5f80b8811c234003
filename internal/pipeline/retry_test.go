package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recognition-pipeline/internal/model"
)

func fastRetry(attempts int) model.RetryConfig {
	return model.RetryConfig{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, BackoffMultiplier: 2}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), fastRetry(3), zap.NewNop(), "save", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	err := withRetry(context.Background(), fastRetry(2), zap.NewNop(), "save", func(context.Context) error {
		calls++
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "save failed after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestWithRetryPermanent(t *testing.T) {
	calls := 0
	bad := errors.New("constraint violated")
	err := withRetry(context.Background(), fastRetry(5), zap.NewNop(), "save", func(context.Context) error {
		calls++
		return Permanent(bad)
	})
	assert.Equal(t, bad, err)
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := model.RetryConfig{MaxAttempts: 5, InitialDelay: time.Hour, BackoffMultiplier: 1}

	calls := 0
	err := withRetry(ctx, cfg, zap.NewNop(), "save", func(context.Context) error {
		calls++
		cancel()
		return errors.New("transient")
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestWithRetryZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_ = withRetry(context.Background(), model.RetryConfig{}, zap.NewNop(), "op", func(context.Context) error {
		calls++
		return errors.New("x")
	})
	assert.Equal(t, 1, calls)
}

func TestBackoff(t *testing.T) {
	cfg := model.RetryConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffMultiplier: 2}
	assert.Equal(t, 100*time.Millisecond, backoff(cfg, 1))
	assert.Equal(t, 200*time.Millisecond, backoff(cfg, 2))
	assert.Equal(t, 400*time.Millisecond, backoff(cfg, 3))
	assert.Equal(t, time.Second, backoff(cfg, 10))

	cfg.BackoffMultiplier = 0
	assert.Equal(t, 100*time.Millisecond, backoff(cfg, 4))
}
