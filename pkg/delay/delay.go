package delay

import (
	"context"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/delaykit/pkg/types"
)

// Operation is the suspended side of a delay. It completes exactly once,
// with a nil error when the delay elapsed or a *types.CancelledError when it
// was cancelled.
type Operation struct {
	done chan struct{}
	err  error
	once sync.Once
}

func newOperation() *Operation {
	return &Operation{done: make(chan struct{})}
}

func (o *Operation) complete(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
	})
}

// Done returns a channel that is closed when the operation completes
func (o *Operation) Done() <-chan struct{} {
	return o.done
}

// Err returns the completion error, nil while pending or after a normal resolution
func (o *Operation) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// Wait blocks until the operation completes or ctx is done.
// Giving up on ctx does not affect the delay itself.
func (o *Operation) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	default:
	}

	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Controller is a handle over a running delay. It owns no resources; every
// copy of the pointer observes and mutates the same delay.
type Controller struct {
	s *state
}

// Cancel cancels the delay with an optional reason (empty for none).
// It returns types.ErrNotCancellable if the delay was not created cancellable,
// and is a no-op once the delay has resolved or been cancelled. If a progress
// callback is running, the operation completes after it returns.
func (c *Controller) Cancel(reason string) error {
	return c.s.cancel(reason, nil)
}

// CancelCause cancels the delay carrying cause as the underlying error
func (c *Controller) CancelCause(cause error) error {
	return c.s.cancel("", cause)
}

// IsCancelled reports whether the delay ended through cancellation
func (c *Controller) IsCancelled() bool {
	return c.Status() == types.StatusCancelled
}

// Status returns the current lifecycle state
func (c *Controller) Status() types.DelayStatus {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return c.s.status
}

// Elapsed returns the wall-clock time since the delay started.
// It keeps advancing after the delay ends.
func (c *Controller) Elapsed() time.Duration {
	return c.s.cfg.Clock.Since(c.s.start)
}

// Remaining returns the time left until resolution, zero once the delay has ended
func (c *Controller) Remaining() time.Duration {
	if c.Status().IsTerminal() {
		return 0
	}
	return remaining(c.s.actual, c.Elapsed())
}

// Duration returns the actual duration after backoff was applied
func (c *Controller) Duration() time.Duration {
	return c.s.actual
}

// state is owned by exactly one delay; the timer, ticker and stop channel are
// released in release, which runs once after the single terminal transition.
type state struct {
	mu       sync.Mutex
	status   types.DelayStatus
	cfg      Config
	start    time.Time
	actual   time.Duration
	timer    *quartz.Timer
	ticker   *quartz.Ticker
	stop     chan struct{}
	op       *Operation
	result   error
	inTick   bool // driver is inside OnProgress
	deferred bool // transition decided during a tick, the driver releases
}

// Start begins a delay of d and returns immediately with the suspended
// operation and its controller.
func Start(d time.Duration, opts ...Option) (*Operation, *Controller) {
	return start(d, 0, newConfig(opts))
}

// Sleep blocks until a delay of d elapses or ctx is done. When ctx ends first
// and the delay is cancellable, the delay is cancelled with ctx's error.
func Sleep(ctx context.Context, d time.Duration, opts ...Option) error {
	op, ctrl := Start(d, opts...)
	return wait(ctx, op, ctrl)
}

func wait(ctx context.Context, op *Operation, ctrl *Controller) error {
	err := op.Wait(ctx)
	if err != nil && ctx.Err() != nil && op.Err() == nil {
		// best effort, non-cancellable delays run out on their own
		_ = ctrl.CancelCause(ctx.Err())
	}
	return err
}

func start(requested time.Duration, attempt int, cfg Config) (*Operation, *Controller) {
	s := &state{
		status: types.StatusPending,
		cfg:    cfg,
		stop:   make(chan struct{}),
		op:     newOperation(),
	}
	s.actual = Backoff(requested, attempt, cfg.ExponentialBackoff, cfg.BackoffMultiplier, cfg.MaxDelay)
	s.start = cfg.Clock.Now()
	ctrl := &Controller{s: s}

	if s.actual <= 0 {
		s.finish(types.StatusResolved, nil)
		return s.op, ctrl
	}

	var tickC <-chan time.Time
	if cfg.OnProgress != nil && cfg.ProgressInterval > 0 {
		s.ticker = cfg.Clock.NewTicker(cfg.ProgressInterval, "delay", "progress")
		tickC = s.ticker.C
	}
	s.timer = cfg.Clock.NewTimer(s.actual, "delay", "timer")
	timerC := s.timer.C

	cfg.Logger.Debugf("delay: started, requested %v, actual %v", requested, s.actual)

	go s.run(timerC, tickC)
	return s.op, ctrl
}

func (s *state) run(timerC, tickC <-chan time.Time) {
	for {
		select {
		case <-s.stop:
			return
		case <-timerC:
			if s.finish(types.StatusResolved, nil) {
				s.cfg.Logger.Debugf("delay: resolved after %v", s.actual)
			}
			return
		case <-tickC:
			s.tick()
		}
	}
}

func (s *state) tick() {
	s.mu.Lock()
	if s.status != types.StatusPending {
		s.mu.Unlock()
		return
	}
	elapsed := s.cfg.Clock.Since(s.start)
	s.inTick = true
	s.mu.Unlock()

	s.cfg.OnProgress(elapsed, remaining(s.actual, elapsed), percent(s.actual, elapsed))

	s.mu.Lock()
	s.inTick = false
	deferred := s.deferred
	s.mu.Unlock()

	if deferred {
		s.release()
	}
}

func (s *state) cancel(reason string, cause error) error {
	if !s.cfg.Cancellable {
		s.cfg.Logger.Warnf("delay: cancel refused, %v", types.ErrNotCancellable)
		return types.ErrNotCancellable
	}

	if reason == "" && cause == nil {
		reason, cause = s.cfg.CancelReason, s.cfg.CancelError
	}
	err := types.NewCancelledError(reason, cause)
	if s.finish(types.StatusCancelled, err) {
		s.cfg.Logger.Debugf("delay: %v", err)
	}
	return nil
}

// finish performs the terminal transition. Only the first caller observing
// StatusPending wins; everyone else gets false. While a progress callback is
// running, including one that called Cancel itself, the outcome is fixed here
// but the operation completes only once the callback has returned.
func (s *state) finish(to types.DelayStatus, err error) bool {
	s.mu.Lock()
	if s.status != types.StatusPending {
		s.mu.Unlock()
		return false
	}
	s.status = to
	s.result = err
	if s.inTick {
		s.deferred = true
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	s.release()
	return true
}

// release stops the timer and ticker, ends the driver and completes the operation
func (s *state) release() {
	s.mu.Lock()
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	close(s.stop)
	s.mu.Unlock()

	s.op.complete(s.result)
}

func remaining(actual, elapsed time.Duration) time.Duration {
	if r := actual - elapsed; r > 0 {
		return r
	}
	return 0
}

func percent(actual, elapsed time.Duration) float64 {
	if actual <= 0 {
		return 100
	}
	p := 100 * float64(elapsed) / float64(actual)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
