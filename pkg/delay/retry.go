package delay

import (
	"time"
)

// Retry starts a delay for attempt (0-indexed) of a retry loop. Exponential
// backoff is always on: the actual duration is base * multiplier^attempt,
// capped by WithMaxDelay. The multiplier defaults to 2 and the cap to none.
//
//	for attempt := 0; ; attempt++ {
//		if err := call(); err == nil {
//			break
//		}
//		op, _ := delay.Retry(time.Second, attempt, delay.WithMaxDelay(10*time.Second))
//		<-op.Done()
//	}
func Retry(base time.Duration, attempt int, opts ...Option) (*Operation, *Controller) {
	cfg := newConfig(opts)
	cfg.ExponentialBackoff = true
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = DefaultMultiplier
	}
	return start(base, attempt, cfg)
}
