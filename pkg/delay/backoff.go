package delay

import (
	"math"
	"time"
)

// DefaultMultiplier is the backoff multiplier used when none is configured
const DefaultMultiplier = 2.0

// Unlimited is the largest representable delay, used when no cap is set
const Unlimited = time.Duration(math.MaxInt64)

// Backoff computes the actual duration of a delay.
//
// When enabled is false base is returned unchanged. Otherwise the result is
// min(base * multiplier^attempt, maxDelay). A maxDelay <= 0 means no cap. Growth that
// leaves the int64 range saturates to the cap instead of overflowing.
// Non-positive multipliers fall back to DefaultMultiplier.
func Backoff(base time.Duration, attempt int, enabled bool, multiplier float64, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if !enabled {
		return base
	}

	limit := maxDelay
	if limit <= 0 {
		limit = Unlimited
	}
	if attempt < 0 {
		attempt = 0
	}
	if multiplier <= 0 || math.IsNaN(multiplier) {
		multiplier = DefaultMultiplier
	}

	scaled := float64(base) * math.Pow(multiplier, float64(attempt))
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) || scaled >= float64(limit) {
		return limit
	}

	d := time.Duration(scaled)
	if d > limit {
		d = limit
	}
	return d
}
