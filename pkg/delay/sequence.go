package delay

import (
	"context"
	"time"
)

// Sequence runs one delay per duration, strictly in order, each with the same
// options. The returned operation completes after the last stage resolves, or
// with the first stage failure, in which case later stages never start.
// If ctx ends first the operation fails with ctx's error and the running
// stage is cancelled when it is cancellable.
func Sequence(ctx context.Context, durations []time.Duration, opts ...Option) *Operation {
	op := newOperation()
	stages := append([]time.Duration(nil), durations...)
	cfg := newConfig(opts)

	if len(stages) == 0 {
		op.complete(nil)
		return op
	}

	go func() {
		for i, d := range stages {
			if err := ctx.Err(); err != nil {
				op.complete(err)
				return
			}

			stage, ctrl := start(d, 0, cfg)
			if err := wait(ctx, stage, ctrl); err != nil {
				cfg.Logger.Debugf("delay: sequence stopped at stage %d/%d: %v", i+1, len(stages), err)
				op.complete(err)
				return
			}
		}
		op.complete(nil)
	}()

	return op
}
