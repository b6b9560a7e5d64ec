// Package retry provides retry executor implementation
package retry

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/delaykit/pkg/delay"
	"github.com/jzx17/delaykit/pkg/types"
)

// RetryExecutor implements retry execution logic
type RetryExecutor struct {
	policy       RetryPolicy
	eventHandler EventHandler
	metrics      MetricsCollector
	logger       types.Logger
	delayOpts    []delay.Option
	stats        RetryStats
	clock        quartz.Clock
}

// ExecuteFunc is the function type to retry
type ExecuteFunc[T any] func(ctx context.Context) (T, error)

// RetryStats contains retry statistics
type RetryStats struct {
	TotalAttempts   int64         // total attempt count
	TotalRetries    int64         // operations that needed more than one attempt
	TotalSuccesses  int64         // total success count
	TotalFailures   int64         // total failure count
	AverageAttempts float64       // average attempt count
	LastRetryTime   time.Time     // last retry time
	TotalRetryDelay time.Duration // total retry delay time
	mu              sync.RWMutex
}

// EventHandler handles retry events
type EventHandler interface {
	OnRetryAttempt(ctx context.Context, attempt int, err error)
	OnRetrySuccess(ctx context.Context, attempt int, duration time.Duration)
	OnRetryFailure(ctx context.Context, attempt int, err error)
	OnMaxAttemptsReached(ctx context.Context, attempt int, err error)
}

// NewRetryExecutor creates a retry executor
func NewRetryExecutor(policy RetryPolicy, opts ...ExecutorOption) *RetryExecutor {
	executor := &RetryExecutor{
		policy:  policy,
		metrics: nopMetrics{},
		logger:  types.NopLogger(),
		clock:   quartz.NewReal(),
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Execute executes a function with retry logic
func Execute[T any](r *RetryExecutor, ctx context.Context, fn ExecuteFunc[T]) (T, error) {
	return ExecuteWithName(r, ctx, "default", fn)
}

// ExecuteWithName executes a function with retry logic (with name for metrics and events).
// Waits between attempts are cancellable delays, cancelled when ctx ends.
func ExecuteWithName[T any](r *RetryExecutor, ctx context.Context, name string, fn ExecuteFunc[T]) (T, error) {
	var zero T
	attempt := 0
	start := r.clock.Now()

	r.policy.Reset()

	for {
		attempt++

		if err := ctx.Err(); err != nil {
			return zero, err
		}

		r.updateStats(func(stats *RetryStats) {
			stats.TotalAttempts++
		})
		r.metrics.RecordAttempt(name)

		if r.eventHandler != nil && attempt > 1 {
			r.eventHandler.OnRetryAttempt(ctx, attempt, nil)
		}

		executeStart := r.clock.Now()
		result, err := fn(ctx)
		executeDuration := r.clock.Since(executeStart)

		if err == nil {
			r.finish(attempt, true)
			r.metrics.RecordSuccess(name, attempt, r.clock.Since(start))

			if r.eventHandler != nil && attempt > 1 {
				r.eventHandler.OnRetrySuccess(ctx, attempt, executeDuration)
			}

			return result, nil
		}

		if !r.policy.ShouldRetry(err, attempt) {
			r.finish(attempt, false)
			r.metrics.RecordFailure(name, attempt, r.clock.Since(start))

			if r.eventHandler != nil {
				if attempt >= r.policy.MaxAttempts() {
					r.eventHandler.OnMaxAttemptsReached(ctx, attempt, err)
				} else {
					r.eventHandler.OnRetryFailure(ctx, attempt, err)
				}
			}

			return zero, &types.RetryError{
				Operation:   name,
				Attempts:    attempt,
				MaxAttempts: r.policy.MaxAttempts(),
				Cause:       err,
			}
		}

		// a server supplied hint may only lengthen the wait
		wait := r.policy.NextDelay(attempt)
		if hint := types.GetRetryDelay(err); hint > wait {
			wait = hint
		}

		r.updateStats(func(stats *RetryStats) {
			stats.LastRetryTime = r.clock.Now()
			stats.TotalRetryDelay += wait
		})
		r.metrics.RecordWait(name, wait)
		r.logger.Debugf("retry %s: attempt %d failed (%v), waiting %v", name, attempt, err, wait)

		if wait > 0 {
			if err := delay.Sleep(ctx, wait, r.waitOptions()...); err != nil {
				return zero, err
			}
		}
	}
}

// waitOptions builds the options of the delay between attempts; the
// executor's clock and cancellability always win over caller options
func (r *RetryExecutor) waitOptions() []delay.Option {
	opts := make([]delay.Option, 0, len(r.delayOpts)+3)
	opts = append(opts, delay.WithLogger(r.logger))
	opts = append(opts, r.delayOpts...)
	return append(opts, delay.WithClock(r.clock), delay.WithCancellable(true))
}

// ExecuteAsync executes a function with retry asynchronously
func ExecuteAsync[T any](r *RetryExecutor, ctx context.Context, fn ExecuteFunc[T]) <-chan types.Result[T] {
	return ExecuteAsyncWithName(r, ctx, "default", fn)
}

// ExecuteAsyncWithName executes a function with retry asynchronously (with name)
func ExecuteAsyncWithName[T any](r *RetryExecutor, ctx context.Context, name string, fn ExecuteFunc[T]) <-chan types.Result[T] {
	resultChan := make(chan types.Result[T], 1)

	go func() {
		defer close(resultChan)

		start := r.clock.Now()
		value, err := ExecuteWithName(r, ctx, name, fn)
		duration := r.clock.Since(start)

		resultChan <- types.Result[T]{
			Value:    value,
			Error:    err,
			Duration: duration,
		}
	}()

	return resultChan
}

// GetStats gets retry statistics
func (r *RetryExecutor) GetStats() RetryStats {
	r.stats.mu.RLock()
	defer r.stats.mu.RUnlock()
	return RetryStats{
		TotalAttempts:   r.stats.TotalAttempts,
		TotalRetries:    r.stats.TotalRetries,
		TotalSuccesses:  r.stats.TotalSuccesses,
		TotalFailures:   r.stats.TotalFailures,
		AverageAttempts: r.stats.AverageAttempts,
		LastRetryTime:   r.stats.LastRetryTime,
		TotalRetryDelay: r.stats.TotalRetryDelay,
	}
}

// ResetStats resets statistics
func (r *RetryExecutor) ResetStats() {
	r.stats.mu.Lock()
	defer r.stats.mu.Unlock()

	r.stats.TotalAttempts = 0
	r.stats.TotalRetries = 0
	r.stats.TotalSuccesses = 0
	r.stats.TotalFailures = 0
	r.stats.AverageAttempts = 0
	r.stats.LastRetryTime = time.Time{}
	r.stats.TotalRetryDelay = 0
}

// finish records the outcome of one operation
func (r *RetryExecutor) finish(attempts int, success bool) {
	r.updateStats(func(stats *RetryStats) {
		if success {
			stats.TotalSuccesses++
		} else {
			stats.TotalFailures++
		}
		if attempts > 1 {
			stats.TotalRetries++
		}
		if ops := stats.TotalSuccesses + stats.TotalFailures; ops > 0 {
			stats.AverageAttempts = float64(stats.TotalAttempts) / float64(ops)
		}
	})
}

// updateStats updates statistics (thread-safe)
func (r *RetryExecutor) updateStats(fn func(*RetryStats)) {
	r.stats.mu.Lock()
	defer r.stats.mu.Unlock()
	fn(&r.stats)
}

// ExecutorOption is a configuration option for retry executor
type ExecutorOption func(*RetryExecutor)

// WithEventHandler sets the event handler
func WithEventHandler(handler EventHandler) ExecutorOption {
	return func(r *RetryExecutor) {
		r.eventHandler = handler
	}
}

// WithMetricsCollector sets the metrics collector
func WithMetricsCollector(collector MetricsCollector) ExecutorOption {
	return func(r *RetryExecutor) {
		if collector != nil {
			r.metrics = collector
		}
	}
}

// WithLogger sets the logger used for executor and delay debug output
func WithLogger(logger types.Logger) ExecutorOption {
	return func(r *RetryExecutor) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock sets the clock for time operations
func WithClock(clock quartz.Clock) ExecutorOption {
	return func(r *RetryExecutor) {
		r.clock = clock
	}
}

// WithDelayOptions adds options to every wait between attempts, e.g. a progress callback
func WithDelayOptions(opts ...delay.Option) ExecutorOption {
	return func(r *RetryExecutor) {
		r.delayOpts = append(r.delayOpts, opts...)
	}
}

// Logger is the logging interface used by DefaultEventHandler
type Logger = types.Logger

// DefaultEventHandler is the default event handler implementation
type DefaultEventHandler struct {
	logger Logger
}

// NewDefaultEventHandler creates a default event handler
func NewDefaultEventHandler(logger Logger) *DefaultEventHandler {
	return &DefaultEventHandler{logger: logger}
}

// OnRetryAttempt handles retry attempt events
func (h *DefaultEventHandler) OnRetryAttempt(ctx context.Context, attempt int, err error) {
	if h.logger != nil {
		h.logger.Debugf("Retry attempt %d starting", attempt)
	}
}

// OnRetrySuccess handles retry success events
func (h *DefaultEventHandler) OnRetrySuccess(ctx context.Context, attempt int, duration time.Duration) {
	if h.logger != nil {
		h.logger.Infof("Retry succeeded on attempt %d after %v", attempt, duration)
	}
}

// OnRetryFailure handles retry failure events
func (h *DefaultEventHandler) OnRetryFailure(ctx context.Context, attempt int, err error) {
	if h.logger != nil {
		h.logger.Warnf("Retry attempt %d failed: %v", attempt, err)
	}
}

// OnMaxAttemptsReached handles max attempts reached events
func (h *DefaultEventHandler) OnMaxAttemptsReached(ctx context.Context, attempt int, err error) {
	if h.logger != nil {
		h.logger.Errorf("Max retry attempts (%d) reached, final error: %v", attempt, err)
	}
}
