package testutils

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
)

// NewMockClock creates a mock clock for testing
func NewMockClock(t testing.TB) *quartz.Mock {
	return quartz.NewMock(t)
}

// Advance moves the mock clock forward by d in n equal steps, waiting for
// every timer and ticker due in each step to fire. Steps must not skip over
// an event, so d should be a multiple of the shortest interval in play.
func Advance(ctx context.Context, t testing.TB, mock *quartz.Mock, d time.Duration, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		mock.Advance(d).MustWait(ctx)
	}
}
