package client

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the wait between attempts.
	MaxBackoff time.Duration
}

// backoffMultiplier is fixed; only the bounds are tunable.
const backoffMultiplier = 2.0

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 250 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// errNotRetriable marks an attempt error that must be surfaced as-is.
type errNotRetriable struct{ err error }

func (e errNotRetriable) Error() string { return e.err.Error() }
func (e errNotRetriable) Unwrap() error { return e.err }

// retryWithBackoff calls fn until it succeeds, returns a non-retriable error,
// the context is cancelled or maxAttempts is reached. The attempt counter is
// local to each call.
func retryWithBackoff(
	ctx context.Context,
	logger zerolog.Logger,
	cfg RetryConfig,
	maxAttempts int,
	fn func(attempt int) error,
	classify func(error) ErrorClass,
) error {
	var lastErr error
	var errClass ErrorClass
	backoff := cfg.InitialBackoff

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			if attempt > 1 {
				logger.Info().
					Str("error_class", string(errClass)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}

		lastErr = err
		errClass = classify(err)

		if !shouldRetry(errClass) {
			return errNotRetriable{err: err}
		}

		if attempt >= maxAttempts {
			break
		}

		retriesTotal.WithLabelValues(string(errClass)).Inc()

		// ±20% jitter
		wait := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))

		logger.Warn().
			Err(err).
			Str("error_class", string(errClass)).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Dur("backoff", wait).
			Msg("Retrying request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Warn().
				Str("error_class", string(errClass)).
				Int("attempt", attempt).
				Msg("Context cancelled during retry backoff")
			return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * backoffMultiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	retryExhaustedTotal.WithLabelValues(string(errClass)).Inc()
	logger.Error().
		Err(lastErr).
		Str("error_class", string(errClass)).
		Int("max_attempts", maxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, maxAttempts, lastErr)
}

