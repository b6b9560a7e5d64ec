// Package types defines core types shared by the delay and retry packages
package types

import (
	"time"
)

// DelayStatus defines the lifecycle state of a delay
type DelayStatus int32

const (
	// StatusPending the delay is still waiting
	StatusPending DelayStatus = iota
	// StatusResolved the delay elapsed normally
	StatusResolved
	// StatusCancelled the delay was cancelled through its controller
	StatusCancelled
)

// String returns the string representation of DelayStatus
func (s DelayStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusResolved:
		return "Resolved"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// IsTerminal reports whether no further transition can happen
func (s DelayStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusCancelled
}

// ProgressFunc receives progress updates while a delay is pending.
// percent is in the range [0, 100].
type ProgressFunc func(elapsed, remaining time.Duration, percent float64)

// Result defines the result of asynchronous execution
type Result[R any] struct {
	// Value is the execution result
	Value R

	// Error is the execution error
	Error error

	// Duration is the execution time
	Duration time.Duration
}
