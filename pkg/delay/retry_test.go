package delay

import (
	"testing"
	"time"

	"github.com/jzx17/delaykit/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_Duration(t *testing.T) {
	mock := testutils.NewMockClock(t)

	tests := []struct {
		name    string
		attempt int
		opts    []Option
		want    time.Duration
	}{
		{"attempt 0", 0, nil, 100 * time.Millisecond},
		{"attempt 3 default multiplier", 3, nil, 800 * time.Millisecond},
		{"attempt 3 explicit multiplier", 3, []Option{WithBackoffMultiplier(2)}, 800 * time.Millisecond},
		{"attempt 2 multiplier 3", 2, []Option{WithBackoffMultiplier(3)}, 900 * time.Millisecond},
		{"capped", 5, []Option{WithMaxDelay(time.Second)}, time.Second},
		{"backoff cannot be disabled", 3, []Option{WithExponentialBackoff(false)}, 800 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithClock(mock), WithCancellable(true)}, tt.opts...)
			op, ctrl := Retry(100*time.Millisecond, tt.attempt, opts...)
			assert.Equal(t, tt.want, ctrl.Duration())

			require.NoError(t, ctrl.Cancel(""))
			assert.Error(t, op.Err())
		})
	}
}

func TestRetry_Resolves(t *testing.T) {
	ctx := testutils.Context(t)
	mock := testutils.NewMockClock(t)

	op, ctrl := Retry(10*time.Millisecond, 2, WithClock(mock))
	require.Equal(t, 40*time.Millisecond, ctrl.Duration())

	mock.Advance(39 * time.Millisecond).MustWait(ctx)
	select {
	case <-op.Done():
		t.Fatal("resolved early")
	default:
	}

	mock.Advance(time.Millisecond).MustWait(ctx)
	require.NoError(t, op.Wait(ctx))
}

func TestRetry_Loop(t *testing.T) {
	ctx := testutils.Context(t)
	mock := testutils.NewMockClock(t)

	var durations []time.Duration
	for attempt := 0; attempt < 4; attempt++ {
		op, ctrl := Retry(10*time.Millisecond, attempt, WithClock(mock), WithMaxDelay(50*time.Millisecond))
		durations = append(durations, ctrl.Duration())
		mock.Advance(ctrl.Duration()).MustWait(ctx)
		require.NoError(t, op.Wait(ctx))
	}

	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		50 * time.Millisecond,
	}, durations)
}
