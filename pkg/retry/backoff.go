// Package retry provides backoff algorithm implementations
package retry

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jzx17/delaykit/pkg/delay"
)

// DefaultMaxDelay caps growing strategies unless configured otherwise
const DefaultMaxDelay = 30 * time.Second

// BackoffStrategy defines the backoff strategy interface
type BackoffStrategy interface {
	// NextDelay calculates the delay for the next retry, attempt is 1-indexed
	NextDelay(attempt int) time.Duration

	// Reset resets the backoff state
	Reset()
}

// Wait starts a controllable delay for the strategy's next delay. The usual
// delay options apply, e.g. delay.WithCancellable or delay.WithProgress.
func Wait(strategy BackoffStrategy, attempt int, opts ...delay.Option) (*delay.Operation, *delay.Controller) {
	return delay.Start(strategy.NextDelay(attempt), opts...)
}

// FixedBackoff implements fixed backoff strategy
type FixedBackoff struct {
	delay  time.Duration
	jitter JitterFunc
}

// NewFixedBackoff creates a fixed backoff strategy
func NewFixedBackoff(d time.Duration, opts ...BackoffStrategyOption) *FixedBackoff {
	cfg := newStrategyConfig(opts)
	return &FixedBackoff{delay: d, jitter: cfg.jitter}
}

// NextDelay calculates the delay for the next retry
func (b *FixedBackoff) NextDelay(attempt int) time.Duration {
	return applyJitter(b.jitter, b.delay)
}

// Reset is a no-op, fixed backoff is stateless
func (b *FixedBackoff) Reset() {}

// ExponentialBackoff implements exponential backoff strategy
type ExponentialBackoff struct {
	initialDelay time.Duration
	multiplier   float64
	maxDelay     time.Duration
	jitter       JitterFunc
}

// NewExponentialBackoff creates an exponential backoff strategy
func NewExponentialBackoff(initialDelay time.Duration, opts ...BackoffStrategyOption) *ExponentialBackoff {
	cfg := newStrategyConfig(opts)
	return &ExponentialBackoff{
		initialDelay: initialDelay,
		multiplier:   cfg.multiplier,
		maxDelay:     cfg.maxDelay,
		jitter:       cfg.jitter,
	}
}

// NextDelay returns initialDelay * multiplier^(attempt-1), capped at the max delay
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	d := delay.Backoff(b.initialDelay, attempt-1, true, b.multiplier, b.maxDelay)
	return applyJitter(b.jitter, d)
}

// Reset is a no-op, exponential backoff is stateless
func (b *ExponentialBackoff) Reset() {}

// LinearBackoff implements linear backoff strategy
type LinearBackoff struct {
	initialDelay time.Duration
	increment    time.Duration
	maxDelay     time.Duration
	jitter       JitterFunc
}

// NewLinearBackoff creates a linear backoff strategy
func NewLinearBackoff(initialDelay, increment time.Duration, opts ...BackoffStrategyOption) *LinearBackoff {
	cfg := newStrategyConfig(opts)
	return &LinearBackoff{
		initialDelay: initialDelay,
		increment:    increment,
		maxDelay:     cfg.maxDelay,
		jitter:       cfg.jitter,
	}
}

// NextDelay returns initialDelay + (attempt-1)*increment, capped at the max delay
func (b *LinearBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	d := saturate(float64(b.initialDelay) + float64(attempt-1)*float64(b.increment))
	if b.maxDelay > 0 && d > b.maxDelay {
		d = b.maxDelay
	}

	return applyJitter(b.jitter, d)
}

// Reset is a no-op, linear backoff is stateless
func (b *LinearBackoff) Reset() {}

// FibonacciBackoff implements fibonacci backoff strategy
type FibonacciBackoff struct {
	baseDelay time.Duration
	maxDelay  time.Duration
	jitter    JitterFunc
	mu        sync.Mutex
	fibCache  []int64
}

// NewFibonacciBackoff creates a fibonacci backoff strategy
func NewFibonacciBackoff(baseDelay time.Duration, opts ...BackoffStrategyOption) *FibonacciBackoff {
	cfg := newStrategyConfig(opts)
	return &FibonacciBackoff{
		baseDelay: baseDelay,
		maxDelay:  cfg.maxDelay,
		jitter:    cfg.jitter,
		fibCache:  []int64{1, 1},
	}
}

// NextDelay returns fib(attempt) * baseDelay, capped at the max delay
func (b *FibonacciBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	fib := b.fibonacci(attempt - 1)
	d := delay.Unlimited
	if b.baseDelay <= 0 {
		d = 0
	} else if fib <= int64(delay.Unlimited)/int64(b.baseDelay) {
		d = time.Duration(fib) * b.baseDelay
	}
	if b.maxDelay > 0 && d > b.maxDelay {
		d = b.maxDelay
	}

	return applyJitter(b.jitter, d)
}

// fibonacci returns the nth Fibonacci number, saturating at math.MaxInt64
func (b *FibonacciBackoff) fibonacci(n int) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(b.fibCache); i <= n; i++ {
		prev, prev2 := b.fibCache[i-1], b.fibCache[i-2]
		next := int64(math.MaxInt64)
		if prev <= math.MaxInt64-prev2 {
			next = prev + prev2
		}
		b.fibCache = append(b.fibCache, next)
	}
	return b.fibCache[n]
}

// Reset trims the cache back to its seed values
func (b *FibonacciBackoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fibCache = b.fibCache[:2]
}

// DecorrelatedJitterBackoff decorrelated jitter backoff strategy: each delay
// is random(base, prev*3), capped
type DecorrelatedJitterBackoff struct {
	baseDelay time.Duration
	capDelay  time.Duration
	mu        sync.Mutex
	prevDelay time.Duration
}

// NewDecorrelatedJitterBackoff creates a decorrelated jitter backoff strategy
func NewDecorrelatedJitterBackoff(baseDelay, capDelay time.Duration) *DecorrelatedJitterBackoff {
	return &DecorrelatedJitterBackoff{
		baseDelay: baseDelay,
		capDelay:  capDelay,
		prevDelay: baseDelay,
	}
}

// NextDelay calculates the delay for the next retry
func (b *DecorrelatedJitterBackoff) NextDelay(attempt int) time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	upper := delay.Backoff(b.prevDelay, 1, true, 3, b.capDelay)
	if upper <= b.baseDelay {
		b.prevDelay = b.baseDelay
		return b.baseDelay
	}

	d := b.baseDelay + time.Duration(rand.Int64N(int64(upper-b.baseDelay)))
	b.prevDelay = d
	return d
}

// Reset resets the backoff state
func (b *DecorrelatedJitterBackoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prevDelay = b.baseDelay
}

// JitterFunc jitter function type
type JitterFunc func(time.Duration) time.Duration

func applyJitter(jitter JitterFunc, d time.Duration) time.Duration {
	if jitter == nil {
		return d
	}
	return jitter(d)
}

// FullJitter full jitter function - random within [0, delay) range
func FullJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(d)))
}

// EqualJitter equal jitter function - delay/2 + random(0, delay/2)
func EqualJitter(d time.Duration) time.Duration {
	half := d / 2
	if half <= 0 {
		return max(d, 0)
	}
	return half + time.Duration(rand.Int64N(int64(half)))
}

// ExponentialJitter adds exponentially distributed jitter scaled by factor
func ExponentialJitter(factor float64) JitterFunc {
	return func(d time.Duration) time.Duration {
		if d <= 0 {
			return 0
		}

		return saturate(float64(d) + rand.ExpFloat64()*float64(d)*factor)
	}
}

// saturate converts nanoseconds to a Duration, clamping to [0, delay.Unlimited]
func saturate(ns float64) time.Duration {
	switch {
	case math.IsNaN(ns) || ns <= 0:
		return 0
	case ns >= float64(delay.Unlimited):
		return delay.Unlimited
	default:
		return time.Duration(ns)
	}
}

type strategyConfig struct {
	multiplier float64
	maxDelay   time.Duration
	jitter     JitterFunc
}

func newStrategyConfig(opts []BackoffStrategyOption) strategyConfig {
	cfg := strategyConfig{
		multiplier: delay.DefaultMultiplier,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// BackoffStrategyOption backoff strategy configuration option
type BackoffStrategyOption func(*strategyConfig)

// WithBackoffMultiplier sets backoff multiplier (exponential backoff only)
func WithBackoffMultiplier(multiplier float64) BackoffStrategyOption {
	return func(c *strategyConfig) {
		c.multiplier = multiplier
	}
}

// WithBackoffMaxDelay sets maximum delay time; zero or negative removes the cap
func WithBackoffMaxDelay(maxDelay time.Duration) BackoffStrategyOption {
	return func(c *strategyConfig) {
		c.maxDelay = maxDelay
	}
}

// WithBackoffJitter sets jitter function
func WithBackoffJitter(jitter JitterFunc) BackoffStrategyOption {
	return func(c *strategyConfig) {
		c.jitter = jitter
	}
}
