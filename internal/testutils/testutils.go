// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// DefaultTimeout bounds every test context
const DefaultTimeout = 5 * time.Second

// Context returns a context with timeout cancelled at test cleanup
func Context(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	t.Cleanup(cancel)
	return ctx
}

// NewObservedLogger returns a sugared zap logger recording every entry at debug level and above
func NewObservedLogger() (*zap.SugaredLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core).Sugar(), logs
}

// ProgressRecorder collects progress callbacks concurrently
type ProgressRecorder struct {
	mu      sync.Mutex
	samples []ProgressSample
}

// ProgressSample is one recorded progress callback
type ProgressSample struct {
	Elapsed   time.Duration
	Remaining time.Duration
	Percent   float64
}

// Record is a progress callback
func (r *ProgressRecorder) Record(elapsed, remaining time.Duration, percent float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, ProgressSample{Elapsed: elapsed, Remaining: remaining, Percent: percent})
}

// Samples returns a copy of the recorded samples
func (r *ProgressRecorder) Samples() []ProgressSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ProgressSample(nil), r.samples...)
}

// Len returns the number of recorded samples
func (r *ProgressRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.samples)
}

// AssertMonotonic asserts elapsed and percent never decrease and remaining never increases
func (r *ProgressRecorder) AssertMonotonic(t testing.TB) bool {
	t.Helper()
	samples := r.Samples()
	ok := true
	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		ok = assert.GreaterOrEqual(t, cur.Elapsed, prev.Elapsed, "elapsed decreased at sample %d", i) && ok
		ok = assert.GreaterOrEqual(t, cur.Percent, prev.Percent, "percent decreased at sample %d", i) && ok
		ok = assert.LessOrEqual(t, cur.Remaining, prev.Remaining, "remaining increased at sample %d", i) && ok
	}
	return ok
}
