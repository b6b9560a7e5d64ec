package delay

import (
	"math/rand/v2"
	"time"

	"github.com/jzx17/delaykit/pkg/types"
)

// randUint64N is replaced in tests
var randUint64N = rand.Uint64N

// Random starts a delay whose duration is sampled once, uniformly from
// [minDelay, maxDelay] inclusive. A negative minDelay or minDelay > maxDelay
// is rejected before any timer starts.
func Random(minDelay, maxDelay time.Duration, opts ...Option) (*Operation, *Controller, error) {
	d, err := sample(minDelay, maxDelay)
	if err != nil {
		return nil, nil, err
	}
	op, ctrl := Start(d, opts...)
	return op, ctrl, nil
}

func sample(minDelay, maxDelay time.Duration) (time.Duration, error) {
	if minDelay < 0 || minDelay > maxDelay {
		return 0, &types.InvalidRangeError{Min: minDelay, Max: maxDelay}
	}

	// span+1 fits in a uint64 even for [0, Unlimited], so both bounds can be drawn
	span := uint64(maxDelay - minDelay)
	return minDelay + time.Duration(randUint64N(span+1)), nil
}
