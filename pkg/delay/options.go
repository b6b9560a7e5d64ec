package delay

import (
	"time"

	"github.com/coder/quartz"
	"github.com/jzx17/delaykit/pkg/types"
)

// DefaultProgressInterval is the progress reporting interval used when none is configured
const DefaultProgressInterval = 100 * time.Millisecond

// Config is the per-call configuration of a delay. It is fixed once the delay starts.
type Config struct {
	// Cancellable gates whether Cancel requests succeed
	Cancellable bool

	// OnProgress is invoked on every progress tick while the delay is pending
	OnProgress types.ProgressFunc

	// ProgressInterval is the tick interval; values <= 0 disable progress reporting
	ProgressInterval time.Duration

	// CancelReason is used when Cancel is called without a reason
	CancelReason string

	// CancelError is used when Cancel is called without a reason; it takes precedence over CancelReason
	CancelError error

	// ExponentialBackoff enables backoff growth of the requested duration
	ExponentialBackoff bool

	// BackoffMultiplier is the growth factor per attempt
	BackoffMultiplier float64

	// MaxDelay caps the computed duration; values <= 0 mean no cap
	MaxDelay time.Duration

	// Clock provides timers, replaced by a mock in tests
	Clock quartz.Clock

	// Logger receives lifecycle debug messages
	Logger types.Logger
}

// DefaultConfig returns the configuration applied before any option
func DefaultConfig() Config {
	return Config{
		ProgressInterval:  DefaultProgressInterval,
		BackoffMultiplier: DefaultMultiplier,
		Clock:             quartz.NewReal(),
		Logger:            types.NopLogger(),
	}
}

// Option configures a delay
type Option func(*Config)

func newConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger()
	}
	return cfg
}

// WithCancellable enables or disables cancellation through the controller
func WithCancellable(enabled bool) Option {
	return func(c *Config) {
		c.Cancellable = enabled
	}
}

// WithProgress sets the progress callback
func WithProgress(fn types.ProgressFunc) Option {
	return func(c *Config) {
		c.OnProgress = fn
	}
}

// WithProgressInterval sets the progress tick interval
func WithProgressInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.ProgressInterval = interval
	}
}

// WithCancelReason sets the reason reported when Cancel is called without one
func WithCancelReason(reason string) Option {
	return func(c *Config) {
		c.CancelReason = reason
	}
}

// WithCancelError sets the cause reported when Cancel is called without a reason
func WithCancelError(err error) Option {
	return func(c *Config) {
		c.CancelError = err
	}
}

// WithExponentialBackoff enables exponential growth of the requested duration
func WithExponentialBackoff(enabled bool) Option {
	return func(c *Config) {
		c.ExponentialBackoff = enabled
	}
}

// WithBackoffMultiplier sets the backoff multiplier; non-positive values are ignored
func WithBackoffMultiplier(multiplier float64) Option {
	return func(c *Config) {
		if multiplier > 0 {
			c.BackoffMultiplier = multiplier
		}
	}
}

// WithMaxDelay caps the computed duration
func WithMaxDelay(maxDelay time.Duration) Option {
	return func(c *Config) {
		c.MaxDelay = maxDelay
	}
}

// WithClock sets the clock used for timers
func WithClock(clock quartz.Clock) Option {
	return func(c *Config) {
		c.Clock = clock
	}
}

// WithLogger sets the logger
func WithLogger(logger types.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithConfig replaces the whole configuration, useful when options come from a
// file. Zero multiplier, clock and logger fall back to their defaults.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
		if c.BackoffMultiplier <= 0 {
			c.BackoffMultiplier = DefaultMultiplier
		}
		if c.Clock == nil {
			c.Clock = quartz.NewReal()
		}
		if c.Logger == nil {
			c.Logger = types.NopLogger()
		}
	}
}
