package monitor

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net"
	"time"

	"github.com/roomwatch/backend/internal/rakuten"
)

// RetryConfig holds retry configuration for per-date fetches.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  2,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// WithRetry executes a function with exponential backoff retry logic.
// Non-retryable errors are returned immediately.
func WithRetry(ctx context.Context, cfg RetryConfig, logger *slog.Logger, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err

			if !IsRetryableError(err) {
				return err
			}

			if logger != nil {
				logger.Warn("fetch attempt failed",
					slog.Int("attempt", attempt),
					slog.Int("max_attempts", cfg.MaxAttempts),
					slog.String("error", err.Error()),
				)
			}
		}

		// Don't wait after the last attempt
		if attempt < cfg.MaxAttempts {
			// Add jitter to prevent thundering herd
			jitter := time.Duration(rand.Int63n(int64(delay/4) + 1))
			waitTime := delay + jitter

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitTime):
			}

			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		}
	}

	return lastErr
}

// IsRetryableError determines if a fetch error should be retried within the
// same date. Rate limiting is not retried here: the client already backed
// off once, and the run-level failure accounting handles the rest.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, rakuten.ErrRateLimited) {
		return false
	}

	var httpErr *rakuten.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}
