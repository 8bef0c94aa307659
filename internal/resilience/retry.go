// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxRetries      int                          // Maximum number of retry attempts
	InitialInterval time.Duration                // Initial retry interval
	MaxInterval     time.Duration                // Maximum retry interval
	Multiplier      float64                      // Exponential backoff multiplier
	MaxElapsedTime  time.Duration                // Stop retrying once this much time has passed, 0 for no limit
	Jitter          bool                         // Add up to 25% random jitter to spread retries
	OnRetry         func(attempt int, err error) // Optional callback invoked before each retry
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  2 * time.Minute,
		Jitter:          true,
	}
}

// ModelServerRetryConfig suits inference endpoints that answer 503 while a
// model is loading.
func ModelServerRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      5,
		InitialInterval: 2 * time.Second,
		MaxInterval:     60 * time.Second,
		Multiplier:      2.0,
		MaxElapsedTime:  5 * time.Minute,
		Jitter:          true,
	}
}

// RetryableOperation represents an operation that can be retried.
type RetryableOperation func(ctx context.Context) error

// backoff is the wait before retry attempt n (n >= 1).
func (c RetryConfig) backoff(attempt int, lastErr error) time.Duration {
	delay := float64(c.InitialInterval)
	for i := 1; i < attempt; i++ {
		delay *= c.Multiplier
	}
	if c.Jitter {
		delay += delay * 0.25 * rand.Float64()
	}

	wait := time.Duration(delay)
	if ce := ClassifyError(lastErr); ce != nil && ce.RetryAfter > wait {
		wait = ce.RetryAfter
	}
	if c.MaxInterval > 0 {
		wait = min(wait, c.MaxInterval)
	}
	return wait
}

// RetryWithBackoff executes an operation with exponential backoff. Only
// errors that ClassifyError marks retryable are retried. A server supplied
// Retry-After raises the wait, still capped at MaxInterval.
func RetryWithBackoff(ctx context.Context, config RetryConfig, operation RetryableOperation) error {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := config.backoff(attempt, lastErr)
			if config.MaxElapsedTime > 0 && time.Since(start)+wait > config.MaxElapsedTime {
				return lastErr
			}

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}

			if config.OnRetry != nil {
				config.OnRetry(attempt, lastErr)
			}
		}

		err := operation(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !ClassifyError(err).IsRetryable() {
			return err
		}
	}

	return lastErr
}

// RetryableFunc is a convenience type for retryable functions that return a value.
type RetryableFunc[T any] func(ctx context.Context) (T, error)

// RetryWithResult executes a function that returns a result and error with retry logic.
func RetryWithResult[T any](ctx context.Context, config RetryConfig, fn RetryableFunc[T]) (T, error) {
	var result T
	err := RetryWithBackoff(ctx, config, func(ctx context.Context) error {
		var e error
		result, e = fn(ctx)
		return e
	})
	return result, err
}

// RetryWithCircuitBreaker runs every attempt through cb. An open breaker is
// not retryable, so the loop stops as soon as the breaker trips.
func RetryWithCircuitBreaker(ctx context.Context, retryConfig RetryConfig, cb *CircuitBreaker, operation RetryableOperation) error {
	return RetryWithBackoff(ctx, retryConfig, func(ctx context.Context) error {
		return cb.Execute(ctx, operation)
	})
}
