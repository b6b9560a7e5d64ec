// Package types defines error types
package types

import (
	"errors"
	"fmt"
	"time"
)

// Predefined errors
var (
	// ErrNotCancellable indicates Cancel was called on a delay created without cancellation enabled
	ErrNotCancellable = errors.New("delay is not cancellable")

	// ErrCancelled indicates a delay was cancelled before it elapsed
	ErrCancelled = errors.New("delay was cancelled")

	// ErrInvalidRange indicates a random delay range with min > max or a negative bound
	ErrInvalidRange = errors.New("invalid delay range")

	// ErrInvalidInput indicates invalid input
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates operation timeout
	ErrTimeout = errors.New("operation timeout")
)

// CancelledError is the failure result of a delay that was cancelled
type CancelledError struct {
	// Reason is the caller supplied reason, empty if none was given
	Reason string

	// Cause is the caller supplied cause, nil if none was given
	Cause error
}

// Error implements the error interface
func (e *CancelledError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", ErrCancelled, e.Cause)
	case e.Reason != "":
		return fmt.Sprintf("%s: %s", ErrCancelled, e.Reason)
	default:
		return ErrCancelled.Error()
	}
}

// Unwrap returns the underlying cause
func (e *CancelledError) Unwrap() error {
	return e.Cause
}

// Is reports ErrCancelled as a match so callers can use errors.Is
func (e *CancelledError) Is(target error) bool {
	return target == ErrCancelled
}

// NewCancelledError creates a cancellation error
func NewCancelledError(reason string, cause error) *CancelledError {
	return &CancelledError{Reason: reason, Cause: cause}
}

// IsCancelled checks if an error is a delay cancellation
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// InvalidRangeError reports a rejected random delay range
type InvalidRangeError struct {
	Min time.Duration
	Max time.Duration
}

// Error implements the error interface
func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("%s: min %v, max %v", ErrInvalidRange, e.Min, e.Max)
}

// Unwrap returns ErrInvalidRange
func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// RetryError is returned when a retried operation finally fails
type RetryError struct {
	// Operation is the name the operation was executed with
	Operation string

	// Attempts is the number of attempts made
	Attempts int

	// MaxAttempts is the configured attempt limit
	MaxAttempts int

	// Cause is the error of the last attempt
	Cause error
}

// Error implements the error interface
func (e *RetryError) Error() string {
	return fmt.Sprintf("retry %s failed after %d/%d attempts: %v", e.Operation, e.Attempts, e.MaxAttempts, e.Cause)
}

// Unwrap returns the underlying error
func (e *RetryError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *RetryError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// RetryableError represents a retryable error
type RetryableError struct {
	// Err is the underlying error
	Err error

	// Retryable indicates whether the error is retryable
	Retryable bool

	// RetryAfter is the suggested retry delay
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *RetryableError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}
	return false
}

// GetRetryDelay returns the suggested retry delay
func GetRetryDelay(err error) time.Duration {
	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.RetryAfter
	}
	return 0
}
