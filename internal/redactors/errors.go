// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package redactors

import (
	"fmt"
	"time"
)

// RedactionErrorType defines the type of redaction error
type RedactionErrorType int

const (
	// ErrorConfiguration indicates invalid redaction options
	ErrorConfiguration RedactionErrorType = iota

	// ErrorReference indicates the reference name data could not be used
	ErrorReference

	// ErrorValidation indicates an invalid review in a partition
	ErrorValidation
)

// String returns the string representation of the error type
func (ret RedactionErrorType) String() string {
	switch ret {
	case ErrorConfiguration:
		return "configuration"
	case ErrorReference:
		return "reference"
	case ErrorValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// RedactionError represents an error that occurred during redaction
type RedactionError struct {
	Type RedactionErrorType

	Message string

	// MovieID is the movie being redacted when the error occurred, if any.
	MovieID string

	// Component is the redactor that generated the error
	Component string

	Timestamp time.Time

	Cause error
}

// Error implements the error interface
func (re *RedactionError) Error() string {
	msg := fmt.Sprintf("[%s] %s (component: %s)", re.Type, re.Message, re.Component)
	if re.MovieID != "" {
		msg = fmt.Sprintf("[%s] %s (movie: %s, component: %s)", re.Type, re.Message, re.MovieID, re.Component)
	}
	if re.Cause != nil {
		msg += ": " + re.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error unwrapping
func (re *RedactionError) Unwrap() error {
	return re.Cause
}

// NewRedactionError creates a new RedactionError
func NewRedactionError(errorType RedactionErrorType, message, movieID, component string, cause error) *RedactionError {
	return &RedactionError{
		Type:      errorType,
		Message:   message,
		MovieID:   movieID,
		Component: component,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}
