// Package delay provides a controllable delay primitive and utilities built on it.
//
// A delay is started with Start and returns two values: the suspended
// Operation, which completes exactly once, and a Controller, which queries
// and cancels the delay. The call never blocks.
//
//	op, ctrl := delay.Start(5*time.Second,
//		delay.WithCancellable(true),
//		delay.WithProgress(func(elapsed, remaining time.Duration, percent float64) {
//			fmt.Printf("%.0f%%\n", percent)
//		}),
//		delay.WithProgressInterval(100*time.Millisecond))
//
//	// later, from any goroutine
//	_ = ctrl.Cancel("user cancelled")
//
//	if err := op.Wait(ctx); errors.Is(err, types.ErrCancelled) {
//		// cancelled
//	}
//
// Lifecycle:
//
// Every delay moves from Pending to exactly one of Resolved or Cancelled.
// The timer, the progress ticker and the driver goroutine are released at
// that transition. Ticks and timer fires that arrive afterwards are dropped,
// and further Cancel calls are no-ops.
//
// Cancellation is cooperative: Cancel returns types.ErrNotCancellable unless
// the delay was started with WithCancellable(true).
//
// Derived utilities:
//   - Retry: exponential backoff keyed by an attempt index, for retry loops
//   - Sequence: several delays strictly one after another, fail-fast
//   - Random: a duration sampled uniformly from a range
//   - Sleep: blocking form honoring a context
//
// Backoff computes durations and is exported for callers that only need the number.
//
// Timers come from a quartz.Clock so tests can drive time with quartz.NewMock.
package delay
