package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) Config {
	return Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(5), func(ctx context.Context, attempt int) error {
		calls++
		if attempt < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExhaustsAttemptBudget(t *testing.T) {
	sentinel := errors.New("still down")
	calls := 0
	err := WithBackoff(context.Background(), fastConfig(3), func(ctx context.Context, attempt int) error {
		calls++
		return sentinel
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, calls)
}

func TestContextCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := WithBackoff(ctx, Config{InitialDelay: 50 * time.Millisecond}, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestAttemptNumbersStartAtOne(t *testing.T) {
	var attempts []int
	_ = WithBackoff(context.Background(), fastConfig(3), func(ctx context.Context, attempt int) error {
		attempts = append(attempts, attempt)
		return errors.New("fail")
	})
	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestDelayGrowsAndCaps(t *testing.T) {
	cfg := Config{
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     40 * time.Millisecond,
		Multiplier:   2.0,
	}
	assert.Equal(t, 10*time.Millisecond, delayFor(cfg, 1))
	assert.Equal(t, 20*time.Millisecond, delayFor(cfg, 2))
	assert.Equal(t, 40*time.Millisecond, delayFor(cfg, 3))
	assert.Equal(t, 40*time.Millisecond, delayFor(cfg, 4))
}
