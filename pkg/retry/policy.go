// Package retry provides retry mechanism strategies and implementations
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jzx17/delaykit/pkg/types"
)

// RetryPolicy defines the retry strategy interface
type RetryPolicy interface {
	// ShouldRetry determines whether to retry after the given 1-indexed attempt failed
	ShouldRetry(err error, attempt int) bool

	// NextDelay returns the delay before the next retry
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the maximum retry attempts
	MaxAttempts() int

	// Reset resets the policy state (for multiple retry scenarios)
	Reset()
}

// RetryCondition is a function that determines retry conditions
type RetryCondition func(error) bool

// BaseRetryPolicy provides attempt limiting, retry conditions and jitter.
// On its own it never waits between attempts.
type BaseRetryPolicy struct {
	maxAttempts    int
	retryCondition RetryCondition
	jitter         bool
	jitterFactor   float64
	mu             sync.RWMutex
}

// NewBaseRetryPolicy creates a base retry policy
func NewBaseRetryPolicy(maxAttempts int, opts ...PolicyOption) *BaseRetryPolicy {
	policy := &BaseRetryPolicy{
		maxAttempts:    maxAttempts,
		retryCondition: DefaultRetryCondition,
		jitterFactor:   0.1,
	}

	for _, opt := range opts {
		opt(policy)
	}

	return policy
}

// ShouldRetry determines whether to retry
func (p *BaseRetryPolicy) ShouldRetry(err error, attempt int) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if attempt >= p.maxAttempts {
		return false
	}

	return p.retryCondition(err)
}

// NextDelay returns zero, the base policy retries immediately
func (p *BaseRetryPolicy) NextDelay(attempt int) time.Duration {
	return 0
}

// MaxAttempts returns the maximum retry attempts
func (p *BaseRetryPolicy) MaxAttempts() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.maxAttempts
}

// Reset resets the policy state
func (p *BaseRetryPolicy) Reset() {}

// applyJitter spreads delay uniformly within ±jitterFactor
func (p *BaseRetryPolicy) applyJitter(delay time.Duration) time.Duration {
	p.mu.RLock()
	enabled, factor := p.jitter, p.jitterFactor
	p.mu.RUnlock()

	if !enabled || delay <= 0 {
		return delay
	}

	spread := (rand.Float64()*2 - 1) * float64(delay) * factor
	result := delay + time.Duration(spread)
	if result < 0 {
		result = delay / 2
	}
	return result
}

// StrategyRetry is a retry policy whose delays come from a BackoffStrategy
type StrategyRetry struct {
	*BaseRetryPolicy
	strategy BackoffStrategy
}

// NewStrategyRetry creates a retry policy from any backoff strategy
func NewStrategyRetry(maxAttempts int, strategy BackoffStrategy, opts ...PolicyOption) *StrategyRetry {
	return &StrategyRetry{
		BaseRetryPolicy: NewBaseRetryPolicy(maxAttempts, opts...),
		strategy:        strategy,
	}
}

// NextDelay returns the strategy's delay with the policy's jitter applied
func (p *StrategyRetry) NextDelay(attempt int) time.Duration {
	return p.applyJitter(p.strategy.NextDelay(attempt))
}

// Reset resets the underlying strategy
func (p *StrategyRetry) Reset() {
	p.strategy.Reset()
}

// Strategy returns the underlying backoff strategy
func (p *StrategyRetry) Strategy() BackoffStrategy {
	return p.strategy
}

// FixedDelayRetry implements fixed delay retry strategy
type FixedDelayRetry struct {
	*StrategyRetry
}

// NewFixedDelayRetry creates a fixed delay retry policy
func NewFixedDelayRetry(maxAttempts int, delay time.Duration, opts ...PolicyOption) *FixedDelayRetry {
	return &FixedDelayRetry{NewStrategyRetry(maxAttempts, NewFixedBackoff(delay), opts...)}
}

// ExponentialBackoffRetry implements exponential backoff retry strategy
type ExponentialBackoffRetry struct {
	*StrategyRetry
}

// NewExponentialBackoffRetry creates an exponential backoff retry policy.
// Attempt 1 waits initialDelay, each later attempt multiplies it.
func NewExponentialBackoffRetry(maxAttempts int, initialDelay time.Duration, opts ...BackoffOption) *ExponentialBackoffRetry {
	cfg := newBackoffConfig(opts)
	strategy := NewExponentialBackoff(initialDelay,
		WithBackoffMultiplier(cfg.multiplier),
		WithBackoffMaxDelay(cfg.maxDelay))
	return &ExponentialBackoffRetry{NewStrategyRetry(maxAttempts, strategy, cfg.policyOpts...)}
}

// LinearBackoffRetry implements linear backoff retry strategy
type LinearBackoffRetry struct {
	*StrategyRetry
}

// NewLinearBackoffRetry creates a linear backoff retry policy
func NewLinearBackoffRetry(maxAttempts int, initialDelay, increment time.Duration, opts ...BackoffOption) *LinearBackoffRetry {
	cfg := newBackoffConfig(opts)
	strategy := NewLinearBackoff(initialDelay, increment, WithBackoffMaxDelay(cfg.maxDelay))
	return &LinearBackoffRetry{NewStrategyRetry(maxAttempts, strategy, cfg.policyOpts...)}
}

// DelayFunc is a custom delay calculation function
type DelayFunc func(attempt int) time.Duration

// NextDelay lets a DelayFunc act as a stateless BackoffStrategy
func (f DelayFunc) NextDelay(attempt int) time.Duration {
	return f(attempt)
}

// Reset is a no-op
func (f DelayFunc) Reset() {}

// CustomRetry implements custom retry strategy
type CustomRetry struct {
	*StrategyRetry
}

// NewCustomRetry creates a custom retry policy
func NewCustomRetry(maxAttempts int, delayFunc DelayFunc, opts ...PolicyOption) *CustomRetry {
	return &CustomRetry{NewStrategyRetry(maxAttempts, delayFunc, opts...)}
}

// PolicyOption is a configuration option for retry policies
type PolicyOption func(*BaseRetryPolicy)

// WithRetryCondition sets the retry condition
func WithRetryCondition(condition RetryCondition) PolicyOption {
	return func(p *BaseRetryPolicy) {
		if condition != nil {
			p.retryCondition = condition
		}
	}
}

// WithJitter enables jitter
func WithJitter(enabled bool, factor float64) PolicyOption {
	return func(p *BaseRetryPolicy) {
		p.jitter = enabled
		if factor > 0 && factor <= 1.0 {
			p.jitterFactor = factor
		}
	}
}

type backoffConfig struct {
	multiplier float64
	maxDelay   time.Duration
	policyOpts []PolicyOption
}

func newBackoffConfig(opts []BackoffOption) backoffConfig {
	cfg := backoffConfig{
		multiplier: 2.0,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// BackoffOption is a configuration option for backoff retry policies
type BackoffOption func(*backoffConfig)

// WithMultiplier sets the multiplier for exponential backoff
func WithMultiplier(multiplier float64) BackoffOption {
	return func(c *backoffConfig) {
		c.multiplier = multiplier
	}
}

// WithMaxDelay sets the maximum delay time
func WithMaxDelay(maxDelay time.Duration) BackoffOption {
	return func(c *backoffConfig) {
		c.maxDelay = maxDelay
	}
}

// WithPolicyOptions passes policy options through a backoff constructor
func WithPolicyOptions(opts ...PolicyOption) BackoffOption {
	return func(c *backoffConfig) {
		c.policyOpts = append(c.policyOpts, opts...)
	}
}

// DefaultRetryCondition is the default retry condition
func DefaultRetryCondition(err error) bool {
	if err == nil {
		return false
	}

	// explicit marking wins
	var retryableErr *types.RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return RetryableErrorTypes(err)
}

// RetryableErrorTypes checks for retryable error types
func RetryableErrorTypes(err error) bool {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return false // context-related errors are not retried
	case errors.Is(err, types.ErrCancelled), errors.Is(err, types.ErrNotCancellable):
		return false
	case errors.Is(err, types.ErrInvalidInput), errors.Is(err, types.ErrInvalidRange):
		return false
	case errors.Is(err, types.ErrTimeout):
		return true
	default:
		return false
	}
}
