package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jzx17/delaykit/internal/config"
	"github.com/jzx17/delaykit/pkg/delay"
	"github.com/jzx17/delaykit/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Runner carries what every command needs: the resolved profile, the logger and the output
type Runner struct {
	Config      *config.Config
	Logger      *zap.SugaredLogger
	Printer     *Printer
	CancelAfter time.Duration
}

// RunnerFactory builds a Runner from the command's flags
type RunnerFactory func(cmd *cobra.Command) (*Runner, error)

// NewRunner loads the profile named by --config and applies flag overrides on top of it
func NewRunner(cmd *cobra.Command) (*Runner, error) {
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("progress-interval") {
		cfg.Delay.ProgressInterval, _ = flags.GetDuration("progress-interval")
	}
	if flags.Changed("multiplier") {
		m, _ := flags.GetFloat64("multiplier")
		if m <= 0 {
			return nil, fmt.Errorf("--multiplier must be positive, got %v: %w", m, types.ErrInvalidInput)
		}
		cfg.Delay.Multiplier = m
	}
	if flags.Changed("max-delay") {
		cfg.Delay.MaxDelay, _ = flags.GetDuration("max-delay")
	}

	verbose, _ := flags.GetBool("verbose")
	logger, err := cfg.Logging.NewLogger(verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	cancelAfter, _ := flags.GetDuration("cancel-after")

	return &Runner{
		Config:      cfg,
		Logger:      logger.Sugar(),
		Printer:     NewPrinter(cmd.OutOrStdout()),
		CancelAfter: cancelAfter,
	}, nil
}

// DelayOptions returns the options for every delay the CLI starts.
// Delays are always cancellable so Ctrl-C and --cancel-after can stop them.
func (r *Runner) DelayOptions() []delay.Option {
	opts := r.Config.Delay.Options()
	opts = append(opts,
		delay.WithCancellable(true),
		delay.WithLogger(r.Logger))
	if r.Config.Delay.ProgressInterval > 0 {
		opts = append(opts, delay.WithProgress(r.Printer.Progress))
	}
	return opts
}

// Await blocks until op completes. An interrupt on ctx or the --cancel-after
// deadline cancels the delay through ctrl.
func (r *Runner) Await(ctx context.Context, op *delay.Operation, ctrl *delay.Controller) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		var deadline <-chan struct{}
		if r.CancelAfter > 0 {
			timeout, timeoutCtrl := delay.Start(r.CancelAfter, delay.WithCancellable(true))
			defer func() { _ = timeoutCtrl.Cancel("") }()
			deadline = timeout.Done()
		}

		select {
		case <-ctx.Done():
			_ = ctrl.Cancel("interrupted")
		case <-deadline:
			_ = ctrl.Cancel(fmt.Sprintf("no result within %s", FormatDuration(r.CancelAfter)))
		case <-stop:
		}
	}()

	<-op.Done()
	err := op.Err()
	r.report(err, ctrl.Elapsed())
	return err
}

// SequenceContext derives the context that bounds a whole sequence
func (r *Runner) SequenceContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.CancelAfter > 0 {
		return context.WithTimeout(ctx, r.CancelAfter)
	}
	return context.WithCancel(ctx)
}

func (r *Runner) report(err error, took time.Duration) {
	switch {
	case err == nil:
		r.Printer.Resolved(took)
	case errors.Is(err, types.ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		r.Printer.Cancelled(err)
	default:
		r.Printer.Failed(err)
	}
}

// Sync flushes the logger; stderr sync errors are expected on terminals
func (r *Runner) Sync() {
	_ = r.Logger.Sync()
}
