// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resilience retries and guards calls to external services such as
// model-inference endpoints.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"
)

// ErrorType represents different types of errors for handling strategies
type ErrorType int

const (
	ErrorTypeUnknown            ErrorType = iota
	ErrorTypeTransient                    // Temporary network issues
	ErrorTypePermanent                    // Invalid credentials, cancelled work
	ErrorTypeTimeout                      // Request timeouts
	ErrorTypeRateLimit                    // HTTP 429
	ErrorTypeServiceUnavailable           // 5xx, model still loading
	ErrorTypeInvalidInput                 // Bad request payload
	ErrorTypeResourceNotFound             // Unknown model or route
)

func (et ErrorType) String() string {
	switch et {
	case ErrorTypeUnknown:
		return "Unknown"
	case ErrorTypeTransient:
		return "Transient"
	case ErrorTypePermanent:
		return "Permanent"
	case ErrorTypeTimeout:
		return "Timeout"
	case ErrorTypeRateLimit:
		return "RateLimit"
	case ErrorTypeServiceUnavailable:
		return "ServiceUnavailable"
	case ErrorTypeInvalidInput:
		return "InvalidInput"
	case ErrorTypeResourceNotFound:
		return "ResourceNotFound"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(et))
	}
}

// ClassifiedError wraps an error with type information
type ClassifiedError struct {
	Original  error
	Type      ErrorType
	Message   string
	Retryable bool

	// RetryAfter is a server supplied minimum wait, zero when unknown.
	RetryAfter time.Duration
}

func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Original != nil {
		return e.Original.Error()
	}
	return e.Type.String()
}

func (e *ClassifiedError) Unwrap() error {
	return e.Original
}

// IsRetryable returns whether this error should be retried
func (e *ClassifiedError) IsRetryable() bool {
	return e.Retryable
}

func classified(err error, t ErrorType, retryable bool, format string) *ClassifiedError {
	return &ClassifiedError{
		Original:  err,
		Type:      t,
		Message:   fmt.Sprintf(format, err),
		Retryable: retryable,
	}
}

// ClassifyError categorizes an error for appropriate handling
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var already *ClassifiedError
	if errors.As(err, &already) {
		return already
	}

	if IsCircuitBreakerError(err) {
		return classified(err, ErrorTypeServiceUnavailable, false, "Service unavailable: %v")
	}
	if errors.Is(err, context.Canceled) {
		return classified(err, ErrorTypePermanent, false, "Cancelled: %v")
	}
	if isTimeoutError(err) {
		return classified(err, ErrorTypeTimeout, true, "Timeout error: %v")
	}
	if isNetworkError(err) {
		return classified(err, ErrorTypeTransient, true, "Network error: %v")
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "too many requests"):
		return classified(err, ErrorTypeRateLimit, true, "Rate limit exceeded: %v")

	case strings.Contains(errStr, "currently loading") || strings.Contains(errStr, "service unavailable"):
		return classified(err, ErrorTypeServiceUnavailable, true, "Service unavailable: %v")

	case strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "forbidden"):
		return classified(err, ErrorTypePermanent, false, "Authentication/authorization error: %v")

	case strings.Contains(errStr, "not found"):
		return classified(err, ErrorTypeResourceNotFound, false, "Resource not found: %v")

	case strings.Contains(errStr, "invalid") || strings.Contains(errStr, "malformed"):
		return classified(err, ErrorTypeInvalidInput, false, "Invalid input: %v")
	}

	return classified(err, ErrorTypeUnknown, false, "Unknown error: %v")
}

// ClassifyHTTPStatus turns a non-2xx response into a ClassifiedError. body is
// included in the message. retryAfter comes from the Retry-After header.
func ClassifyHTTPStatus(status int, body string, retryAfter time.Duration) *ClassifiedError {
	cause := fmt.Errorf("http %d %s: %s", status, http.StatusText(status), strings.TrimSpace(body))

	var ce *ClassifiedError
	switch {
	case status == http.StatusTooManyRequests:
		ce = classified(cause, ErrorTypeRateLimit, true, "Rate limit exceeded: %v")
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		ce = classified(cause, ErrorTypeTimeout, true, "Timeout error: %v")
	case status >= 500:
		ce = classified(cause, ErrorTypeServiceUnavailable, true, "Service unavailable: %v")
	case status == http.StatusNotFound:
		ce = classified(cause, ErrorTypeResourceNotFound, false, "Resource not found: %v")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		ce = classified(cause, ErrorTypePermanent, false, "Authentication/authorization error: %v")
	case status >= 400:
		ce = classified(cause, ErrorTypeInvalidInput, false, "Invalid input: %v")
	default:
		ce = classified(cause, ErrorTypeUnknown, false, "Unknown error: %v")
	}
	ce.RetryAfter = retryAfter
	return ce
}

// isNetworkError checks if an error is network-related
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

// isTimeoutError checks if an error is timeout-related
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}

// NewTransientError creates a new transient error
func NewTransientError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Original:  cause,
		Type:      ErrorTypeTransient,
		Message:   message,
		Retryable: true,
	}
}

// NewPermanentError creates a new permanent error
func NewPermanentError(message string, cause error) *ClassifiedError {
	return &ClassifiedError{
		Original:  cause,
		Type:      ErrorTypePermanent,
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable reports whether an error should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return ClassifyError(err).IsRetryable()
}
