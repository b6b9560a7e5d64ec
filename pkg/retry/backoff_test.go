package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/delaykit/pkg/delay"
	"github.com/jzx17/delaykit/pkg/types"
)

func checkDelays(t *testing.T, strategy BackoffStrategy, want map[int]time.Duration) {
	t.Helper()
	for attempt := 1; attempt <= len(want)+10; attempt++ {
		expected, ok := want[attempt]
		if !ok {
			continue
		}
		if got := strategy.NextDelay(attempt); got != expected {
			t.Errorf("NextDelay(%d) = %v, want %v", attempt, got, expected)
		}
	}
}

func TestFixedBackoff(t *testing.T) {
	d := 100 * time.Millisecond
	checkDelays(t, NewFixedBackoff(d), map[int]time.Duration{1: d, 2: d, 3: d, 10: d})
}

func TestExponentialBackoff(t *testing.T) {
	backoff := NewExponentialBackoff(100*time.Millisecond,
		WithBackoffMultiplier(2.0),
		WithBackoffMaxDelay(1*time.Second))

	checkDelays(t, backoff, map[int]time.Duration{
		1:  100 * time.Millisecond,
		2:  200 * time.Millisecond,
		3:  400 * time.Millisecond,
		4:  800 * time.Millisecond,
		5:  1000 * time.Millisecond, // Limited by max delay
		10: 1000 * time.Millisecond,
	})
}

func TestExponentialBackoff_MatchesDelayBackoff(t *testing.T) {
	backoff := NewExponentialBackoff(50*time.Millisecond, WithBackoffMultiplier(3), WithBackoffMaxDelay(0))

	for attempt := 1; attempt <= 40; attempt++ {
		want := delay.Backoff(50*time.Millisecond, attempt-1, true, 3, 0)
		if got := backoff.NextDelay(attempt); got != want {
			t.Fatalf("NextDelay(%d) = %v, want %v", attempt, got, want)
		}
	}

	// saturates rather than wrapping around
	if got := backoff.NextDelay(1000); got != delay.Unlimited {
		t.Errorf("expected saturation, got %v", got)
	}
}

func TestLinearBackoff(t *testing.T) {
	backoff := NewLinearBackoff(100*time.Millisecond, 50*time.Millisecond,
		WithBackoffMaxDelay(500*time.Millisecond))

	checkDelays(t, backoff, map[int]time.Duration{
		1:  100 * time.Millisecond,
		2:  150 * time.Millisecond,
		3:  200 * time.Millisecond,
		4:  250 * time.Millisecond,
		5:  300 * time.Millisecond,
		10: 500 * time.Millisecond, // Limited by max delay
	})
}

func TestLinearBackoff_Saturates(t *testing.T) {
	backoff := NewLinearBackoff(time.Hour, time.Hour, WithBackoffMaxDelay(0))
	if got := backoff.NextDelay(1 << 40); got != delay.Unlimited {
		t.Errorf("expected saturation, got %v", got)
	}
}

func TestFibonacciBackoff(t *testing.T) {
	backoff := NewFibonacciBackoff(100*time.Millisecond,
		WithBackoffMaxDelay(2*time.Second))

	checkDelays(t, backoff, map[int]time.Duration{
		1: 100 * time.Millisecond,  // fib(0) = 1
		2: 100 * time.Millisecond,  // fib(1) = 1
		3: 200 * time.Millisecond,  // fib(2) = 2
		4: 300 * time.Millisecond,  // fib(3) = 3
		5: 500 * time.Millisecond,  // fib(4) = 5
		6: 800 * time.Millisecond,  // fib(5) = 8
		7: 1300 * time.Millisecond, // fib(6) = 13
		8: 2000 * time.Millisecond, // fib(7) = 21, but limited by maxDelay
	})
}

func TestFibonacciBackoff_Saturates(t *testing.T) {
	backoff := NewFibonacciBackoff(time.Second, WithBackoffMaxDelay(0))
	if got := backoff.NextDelay(200); got != delay.Unlimited {
		t.Errorf("expected saturation, got %v", got)
	}

	backoff.Reset()
	if got := backoff.NextDelay(3); got != 2*time.Second {
		t.Errorf("after reset NextDelay(3) = %v, want 2s", got)
	}
}

func TestDecorrelatedJitterBackoff(t *testing.T) {
	baseDelay := 100 * time.Millisecond
	capDelay := 1 * time.Second
	backoff := NewDecorrelatedJitterBackoff(baseDelay, capDelay)

	seen := make(map[time.Duration]bool)
	for i := 1; i <= 10; i++ {
		d := backoff.NextDelay(i)
		if d < baseDelay || d > capDelay {
			t.Errorf("delay %d (%v) outside [%v, %v]", i, d, baseDelay, capDelay)
		}
		seen[d] = true
	}

	if len(seen) < 2 {
		t.Error("All delays are the same, jitter is not working")
	}
}

func TestJitterFunctions(t *testing.T) {
	d := 1000 * time.Millisecond
	half := d / 2
	expJitter := ExponentialJitter(0.1)

	for i := 0; i < 100; i++ {
		if j := FullJitter(d); j < 0 || j > d {
			t.Errorf("FullJitter result %v out of range [0, %v]", j, d)
		}
		if j := EqualJitter(d); j < half || j > d {
			t.Errorf("EqualJitter result %v out of range [%v, %v]", j, half, d)
		}
		if j := expJitter(d); j < d {
			t.Errorf("ExponentialJitter result %v should not shrink the delay", j)
		}
	}
}

func TestJitterWithTinyDelays(t *testing.T) {
	for _, d := range []time.Duration{0, 1, -time.Second} {
		if FullJitter(d) > max(d, 0) {
			t.Errorf("FullJitter(%v) out of range", d)
		}
		if got := EqualJitter(d); got != max(d, 0) {
			t.Errorf("EqualJitter(%v) = %v", d, got)
		}
		if ExponentialJitter(0.1)(d) < 0 {
			t.Errorf("ExponentialJitter(%v) negative", d)
		}
	}
}

func TestBackoffStrategyOptions(t *testing.T) {
	t.Run("FixedBackoff with jitter", func(t *testing.T) {
		d := 100 * time.Millisecond
		backoff := NewFixedBackoff(d, WithBackoffJitter(EqualJitter))

		results := make(map[time.Duration]bool)
		for i := 0; i < 50; i++ {
			result := backoff.NextDelay(1)
			results[result] = true
			if result < d/2 || result > d {
				t.Errorf("Jittered delay %v out of expected range [%v, %v]", result, d/2, d)
			}
		}

		if len(results) < 2 {
			t.Error("Jitter should produce varying results")
		}
	})

	t.Run("ExponentialBackoff with custom multiplier", func(t *testing.T) {
		backoff := NewExponentialBackoff(100*time.Millisecond, WithBackoffMultiplier(1.5))
		if got := backoff.NextDelay(2); got != 150*time.Millisecond {
			t.Errorf("Custom multiplier: expected 150ms, got %v", got)
		}
	})
}

func TestBackoffEdgeCases(t *testing.T) {
	backoff := NewExponentialBackoff(100 * time.Millisecond)

	// Zero and negative attempts should be handled as first attempt
	delay0, delay1, delayNeg := backoff.NextDelay(0), backoff.NextDelay(1), backoff.NextDelay(-1)
	if delay0 != delay1 || delay1 != delayNeg {
		t.Errorf("Zero/negative attempts handling: %v, %v, %v", delay0, delay1, delayNeg)
	}

	if got := backoff.NextDelay(100); got != DefaultMaxDelay {
		t.Errorf("expected default cap %v, got %v", DefaultMaxDelay, got)
	}
}

func TestBackoffReset(t *testing.T) {
	strategies := []BackoffStrategy{
		NewFixedBackoff(100 * time.Millisecond),
		NewExponentialBackoff(100 * time.Millisecond),
		NewLinearBackoff(100*time.Millisecond, 50*time.Millisecond),
		NewFibonacciBackoff(100 * time.Millisecond),
		NewDecorrelatedJitterBackoff(100*time.Millisecond, 1*time.Second),
		DelayFunc(func(int) time.Duration { return time.Millisecond }),
	}

	for i, strategy := range strategies {
		t.Run(fmt.Sprintf("strategy_%d", i), func(t *testing.T) {
			for j := 1; j <= 5; j++ {
				strategy.NextDelay(j)
			}

			strategy.Reset()

			if d := strategy.NextDelay(1); d <= 0 {
				t.Errorf("After reset, NextDelay should return positive duration, got %v", d)
			}
		})
	}
}

func TestWait(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mock := quartz.NewMock(t)

	strategy := NewExponentialBackoff(10 * time.Millisecond)
	op, ctrl := Wait(strategy, 3, delay.WithClock(mock), delay.WithCancellable(true))

	if ctrl.Duration() != 40*time.Millisecond {
		t.Fatalf("expected 40ms, got %v", ctrl.Duration())
	}

	mock.Advance(40 * time.Millisecond).MustWait(ctx)
	if err := op.Wait(ctx); err != nil {
		t.Fatalf("expected resolution, got %v", err)
	}

	op, ctrl = Wait(strategy, 1, delay.WithClock(mock), delay.WithCancellable(true))
	if err := ctrl.Cancel("shutdown"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := op.Wait(ctx); !types.IsCancelled(err) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

// Benchmark tests
func BenchmarkExponentialBackoff(b *testing.B) {
	backoff := NewExponentialBackoff(100 * time.Millisecond)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backoff.NextDelay(i % 10)
	}
}

func BenchmarkFibonacciBackoff(b *testing.B) {
	backoff := NewFibonacciBackoff(100 * time.Millisecond)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		backoff.NextDelay(i % 10)
	}
}
