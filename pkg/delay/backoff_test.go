package delay

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_Disabled(t *testing.T) {
	tests := []struct {
		base       time.Duration
		attempt    int
		multiplier float64
		max        time.Duration
	}{
		{100 * time.Millisecond, 0, 2, 0},
		{100 * time.Millisecond, 5, 2, 50 * time.Millisecond},
		{time.Second, 100, 10, time.Millisecond},
		{0, 3, 2, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/%d", tt.base, tt.attempt), func(t *testing.T) {
			got := Backoff(tt.base, tt.attempt, false, tt.multiplier, tt.max)
			assert.Equal(t, tt.base, got)
		})
	}
}

func TestBackoff_Exponential(t *testing.T) {
	base := 100 * time.Millisecond

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, 1000 * time.Millisecond}, // Limited by max delay
		{10, 1000 * time.Millisecond},
	}

	for _, tt := range tests {
		got := Backoff(base, tt.attempt, true, 2, time.Second)
		if got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestBackoff_AttemptZeroIsCappedBase(t *testing.T) {
	assert.Equal(t, 100*time.Millisecond, Backoff(100*time.Millisecond, 0, true, 3, 0))
	assert.Equal(t, 50*time.Millisecond, Backoff(100*time.Millisecond, 0, true, 3, 50*time.Millisecond))
}

func TestBackoff_NonDecreasingAndCapped(t *testing.T) {
	bases := []time.Duration{time.Nanosecond, time.Millisecond, 250 * time.Millisecond, time.Hour}
	multipliers := []float64{1, 1.5, 2, 10}
	caps := []time.Duration{0, time.Second, time.Minute}

	for _, base := range bases {
		for _, m := range multipliers {
			for _, limit := range caps {
				prev := time.Duration(0)
				for attempt := 0; attempt < 80; attempt++ {
					got := Backoff(base, attempt, true, m, limit)
					if got < prev {
						t.Fatalf("Backoff(%v, %d, %v, %v) = %v decreased from %v", base, attempt, m, limit, got, prev)
					}
					if limit > 0 && got > limit {
						t.Fatalf("Backoff(%v, %d, %v, %v) = %v exceeds cap", base, attempt, m, limit, got)
					}
					prev = got
				}
			}
		}
	}
}

func TestBackoff_Saturates(t *testing.T) {
	t.Run("Uncapped", func(t *testing.T) {
		got := Backoff(time.Hour, 1000, true, 2, 0)
		assert.Equal(t, Unlimited, got)
		assert.Equal(t, time.Duration(math.MaxInt64), got)
	})

	t.Run("Capped", func(t *testing.T) {
		got := Backoff(time.Hour, 1000, true, 2, 10*time.Second)
		assert.Equal(t, 10*time.Second, got)
	})

	t.Run("Huge Multiplier", func(t *testing.T) {
		got := Backoff(time.Second, 3, true, math.MaxFloat64, time.Minute)
		assert.Equal(t, time.Minute, got)
	})
}

func TestBackoff_EdgeInputs(t *testing.T) {
	// non-positive multipliers fall back to the default
	assert.Equal(t, 400*time.Millisecond, Backoff(100*time.Millisecond, 2, true, 0, 0))
	assert.Equal(t, 400*time.Millisecond, Backoff(100*time.Millisecond, 2, true, -1, 0))

	// negative attempts behave as attempt 0
	assert.Equal(t, 100*time.Millisecond, Backoff(100*time.Millisecond, -5, true, 2, 0))

	// zero and negative bases never grow
	assert.Equal(t, time.Duration(0), Backoff(0, 10, true, 2, 0))
	assert.Equal(t, time.Duration(0), Backoff(-time.Second, 10, true, 2, 0))
}
