// Package retry provides exponential-backoff retry for operations against
// flaky collaborators, such as the live feed's websocket connection.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config configures backoff behavior.
type Config struct {
	MaxAttempts  int           // 0 means retry indefinitely
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultConfig retries forever: 1s, 2s, 4s, ... capped at 60s.
func DefaultConfig() Config {
	return Config{
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
	}
}

// Func is an operation to retry; attempt starts at 1.
type Func func(ctx context.Context, attempt int) error

// WithBackoff runs fn until it succeeds, the attempt budget is exhausted, or
// the context is cancelled. It returns nil on success.
func WithBackoff(ctx context.Context, cfg Config, fn Func) error {
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 2.0
	}

	var lastErr error
	for attempt := 1; cfg.MaxAttempts == 0 || attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		select {
		case <-time.After(delayFor(cfg, attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

func delayFor(cfg Config, attempt int) time.Duration {
	d := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && d > float64(cfg.MaxDelay) {
		d = float64(cfg.MaxDelay)
	}
	return time.Duration(d)
}
