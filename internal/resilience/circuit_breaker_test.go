// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testBreaker(clock *time.Time) *CircuitBreaker {
	cfg := DefaultCircuitBreakerConfig("classifier")
	cfg.FailureThreshold = 2
	cfg.SuccessThreshold = 1
	cfg.MaxRequests = 1
	cfg.Timeout = time.Minute
	cb := NewCircuitBreaker(cfg)
	cb.now = func() time.Time { return *clock }
	return cb
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	clock := time.Unix(0, 0)
	cb := testBreaker(&clock)
	fail := func(ctx context.Context) error { return NewTransientError("down", nil) }

	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), fail)
	}
	if cb.State() != StateOpen {
		t.Fatalf("expected OPEN, got %s", cb.State())
	}

	called := false
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if called {
		t.Error("open breaker must not call through")
	}
	if !IsCircuitBreakerError(err) {
		t.Errorf("expected circuit breaker error, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("open breaker error must not be retried")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	clock := time.Unix(0, 0)
	cb := testBreaker(&clock)
	for i := 0; i < 2; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error { return NewTransientError("down", nil) })
	}

	clock = clock.Add(2 * time.Minute)
	if err := cb.Execute(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("trial request should pass through, got %v", err)
	}
	if cb.State() != StateClosed {
		t.Errorf("expected CLOSED after successful trial request, got %s", cb.State())
	}
}

func TestCircuitBreaker_IgnoresPermanentErrors(t *testing.T) {
	clock := time.Unix(0, 0)
	cb := testBreaker(&clock)
	bad := errors.New("invalid payload")

	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), func(ctx context.Context) error { return bad })
	}
	if cb.State() != StateClosed {
		t.Errorf("non-retryable errors should not open the breaker, got %s", cb.State())
	}
}

func TestRetryWithCircuitBreaker_StopsWhenOpen(t *testing.T) {
	clock := time.Unix(0, 0)
	cb := testBreaker(&clock)

	calls := 0
	err := RetryWithCircuitBreaker(context.Background(), fastConfig(10), cb, func(ctx context.Context) error {
		calls++
		return NewTransientError("down", nil)
	})
	if !IsCircuitBreakerError(err) {
		t.Fatalf("expected breaker error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls before the breaker opened, got %d", calls)
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Error("Reset should close the breaker")
	}
}
