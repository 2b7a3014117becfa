package zmachine

import (
	"math/rand"
	"time"
)

// random is the story's generator. Small seeds select a predictable
// sequence 1, 2, ..., seed, 1, 2, ... for testing stories.
type random struct {
	rng      *rand.Rand
	interval int
	counter  int
}

// seed 0 seeds from the clock.
func (r *random) seed(value int) {
	switch {
	case value == 0:
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
		r.interval = 0
	case value < 1000:
		r.counter = 0
		r.interval = value
	default:
		r.rng = rand.New(rand.NewSource(int64(value)))
		r.interval = 0
	}
}

// next returns a number between 1 and n.
func (r *random) next(n int) int {
	if r.interval != 0 {
		result := r.counter
		r.counter = (r.counter + 1) % r.interval
		return result%n + 1
	}
	if r.rng == nil {
		r.seed(0)
	}
	return r.rng.Intn(n) + 1
}

// random range -> (result)
// If range is positive, returns a uniformly random number between 1 and range.
// If range is negative, the random number generator is seeded to that value and the return value is 0.
// Most interpreters consider giving 0 as range illegal (because they attempt a division with remainder by the range),
// but correct behaviour is to reseed the generator in as random a way as the interpreter can (e.g. by using the time
// in milliseconds).
func ZRandom(zm *ZMachine, args []uint16, numArgs uint16) {
	randRange := int16(args[0])

	if randRange > 0 {
		zm.StoreResult(uint16(zm.rng.next(int(randRange))))
	} else {
		zm.rng.seed(-int(randRange))
		zm.StoreResult(0)
	}
}
