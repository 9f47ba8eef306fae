package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is matched by every TransportError.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled between attempts.
	ErrContextCancelled = errors.New("context cancelled")
)

// TransportError is returned when a request kept failing at the transport
// level (dial, connection reset, truncated body, 5xx) until every attempt
// was used.
type TransportError struct {
	Address  string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %s after %d attempts: %v",
		e.Address, ErrRetryExhausted, e.Attempts, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports ErrRetryExhausted as a match.
func (e *TransportError) Is(target error) bool {
	return target == ErrRetryExhausted
}

// ParseError is returned when a response body is not valid JSON or does not
// match the declared record shape. It is never retried.
type ParseError struct {
	Address string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Address, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// StatusError represents a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassServer, ErrorClassNetwork:
		return true
	default:
		// client, cancelled
		return false
	}
}
