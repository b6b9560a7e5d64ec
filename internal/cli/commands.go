package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jzx17/delaykit/pkg/delay"
	"github.com/jzx17/delaykit/pkg/types"
	"github.com/spf13/cobra"
)

// NewRootCmd builds delayctl with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "delayctl",
		Short:         "delayctl - run controllable delays from the shell",
		Long:          "Start, observe and cancel delays. Ctrl+C cancels the running delay.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "YAML profile (default: $DELAYCTL_CONFIG)")
	pf.BoolP("verbose", "v", false, "Debug logging to stderr")
	pf.Duration("progress-interval", 0, "Progress report interval, 0 disables (default from profile: 500ms)")
	pf.Duration("cancel-after", 0, "Cancel the delay if it has not resolved after this long")
	pf.Float64("multiplier", delay.DefaultMultiplier, "Backoff multiplier")
	pf.Duration("max-delay", 0, "Backoff cap, 0 means uncapped")

	rf := RunnerFactory(NewRunner)
	rootCmd.AddCommand(WaitCmd(rf))
	rootCmd.AddCommand(RetryCmd(rf))
	rootCmd.AddCommand(SequenceCmd(rf))
	rootCmd.AddCommand(RandomCmd(rf))
	rootCmd.AddCommand(BackoffCmd(rf))

	return rootCmd
}

// WaitCmd waits a fixed duration, printing progress until it resolves or is cancelled
func WaitCmd(rf RunnerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "wait [duration]",
		Short: "Wait for a fixed duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDuration(args[0])
			if err != nil {
				return err
			}

			r, err := rf(cmd)
			if err != nil {
				return err
			}
			defer r.Sync()

			r.Printer.Printf("Waiting %s (Ctrl+C to cancel)...\n", bold(FormatDuration(d)))
			op, ctrl := delay.Start(d, r.DelayOptions()...)
			return r.Await(cmd.Context(), op, ctrl)
		},
	}
}

// RetryCmd waits the backoff delay of one retry attempt, base * multiplier^attempt
func RetryCmd(rf RunnerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [base] [attempt]",
		Short: "Wait the exponential backoff delay of a retry attempt",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := parseDuration(args[0])
			if err != nil {
				return err
			}
			attempt, err := parseAttempt(args[1])
			if err != nil {
				return err
			}

			r, err := rf(cmd)
			if err != nil {
				return err
			}
			defer r.Sync()

			op, ctrl := delay.Retry(base, attempt, r.DelayOptions()...)
			r.Printer.Printf("Attempt %d: waiting %s (base %s, x%g)...\n",
				attempt, bold(FormatDuration(ctrl.Duration())), FormatDuration(base), r.Config.Delay.Multiplier)
			return r.Await(cmd.Context(), op, ctrl)
		},
	}
}

// SequenceCmd waits several durations back to back, stopping at the first failure
func SequenceCmd(rf RunnerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "sequence [duration...]",
		Short: "Wait several durations one after another",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			durations := make([]time.Duration, 0, len(args))
			var total time.Duration
			for _, arg := range args {
				d, err := parseDuration(arg)
				if err != nil {
					return err
				}
				durations = append(durations, d)
				total += d
			}

			r, err := rf(cmd)
			if err != nil {
				return err
			}
			defer r.Sync()

			ctx, cancel := r.SequenceContext(cmd.Context())
			defer cancel()

			r.Printer.Printf("Running %d stages, %s in total...\n", len(durations), bold(FormatDuration(total)))
			start := time.Now()
			err = delay.Sequence(ctx, durations, r.DelayOptions()...).Wait(context.Background())
			r.report(err, time.Since(start))
			return err
		},
	}
}

// RandomCmd waits a duration drawn uniformly from an inclusive range
func RandomCmd(rf RunnerFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "random [min] [max]",
		Short: "Wait a duration sampled uniformly from [min, max]",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			minDelay, err := parseDuration(args[0])
			if err != nil {
				return err
			}
			maxDelay, err := parseDuration(args[1])
			if err != nil {
				return err
			}

			r, err := rf(cmd)
			if err != nil {
				return err
			}
			defer r.Sync()

			op, ctrl, err := delay.Random(minDelay, maxDelay, r.DelayOptions()...)
			if err != nil {
				r.Printer.Failed(err)
				return err
			}

			r.Printer.Printf("Sampled %s from [%s, %s]...\n",
				bold(FormatDuration(ctrl.Duration())), FormatDuration(minDelay), FormatDuration(maxDelay))
			return r.Await(cmd.Context(), op, ctrl)
		},
	}
}

// BackoffCmd prints the backoff schedule and its running total without waiting
func BackoffCmd(rf RunnerFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backoff [base]",
		Short: "Print the backoff schedule without waiting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := parseDuration(args[0])
			if err != nil {
				return err
			}
			attempts, _ := cmd.Flags().GetInt("attempts")
			if attempts <= 0 {
				return fmt.Errorf("--attempts must be positive, got %d: %w", attempts, types.ErrInvalidInput)
			}

			r, err := rf(cmd)
			if err != nil {
				return err
			}
			defer r.Sync()

			var total time.Duration
			for attempt := 0; attempt < attempts; attempt++ {
				d := delay.Backoff(base, attempt, true, r.Config.Delay.Multiplier, r.Config.Delay.MaxDelay)
				total = saturatingAdd(total, d)
				r.Printer.Printf("%-8d %12s %14s\n", attempt, FormatDuration(d), cyan(FormatDuration(total)))
			}
			return nil
		},
	}

	cmd.Flags().IntP("attempts", "n", 5, "Number of attempts to list")
	return cmd
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, types.ErrInvalidInput)
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q: %w", s, types.ErrInvalidInput)
	}
	return d, nil
}

func parseAttempt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid attempt %q: %w", s, types.ErrInvalidInput)
	}
	return n, nil
}

func saturatingAdd(a, b time.Duration) time.Duration {
	if a > delay.Unlimited-b {
		return delay.Unlimited
	}
	return a + b
}
