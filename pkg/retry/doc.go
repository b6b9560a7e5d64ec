// Package retry runs operations under a retry policy, waiting between attempts
// with cancellable delays from package delay.
//
// Key Features:
//
// 1. Retry policies:
//   - FixedDelayRetry: Fixed delay retry
//   - ExponentialBackoffRetry: Exponential backoff retry
//   - LinearBackoffRetry: Linear backoff retry
//   - CustomRetry: Custom retry policy
//
// 2. Backoff strategies:
//   - FixedBackoff, ExponentialBackoff, LinearBackoff
//   - FibonacciBackoff
//   - DecorrelatedJitterBackoff
//
// 3. Jitter: FullJitter, EqualJitter, ExponentialJitter
//
// 4. Retry executor:
//   - Synchronous and asynchronous execution
//   - Waits are controllable delays, cancelled when the context ends
//   - Server hints (RetryableError.RetryAfter) lengthen the wait
//   - Statistics, event notification and Prometheus metrics
//
// Basic usage example:
//
//	policy := retry.NewExponentialBackoffRetry(3, 100*time.Millisecond)
//	executor := retry.NewRetryExecutor(policy)
//
//	result, err := retry.Execute(executor, ctx, func(ctx context.Context) (string, error) {
//		return doSomething(ctx)
//	})
//
//	var retryErr *types.RetryError
//	if errors.As(err, &retryErr) {
//		log.Printf("gave up after %d attempts", retryErr.Attempts)
//	}
//
// Custom retry conditions:
//
//	policy := retry.NewFixedDelayRetry(3, 100*time.Millisecond,
//		retry.WithRetryCondition(isTemporaryError),
//		retry.WithJitter(true, 0.1)) // 10% jitter
//
// Metrics and progress:
//
//	collector, err := retry.NewPrometheusCollector(prometheus.DefaultRegisterer, "myapp")
//	executor := retry.NewRetryExecutor(policy,
//		retry.WithMetricsCollector(collector),
//		retry.WithDelayOptions(delay.WithProgress(report)))
package retry
