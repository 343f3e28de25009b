package stats

import (
	"math/rand/v2"
	"slices"
	"time"
)

// DefaultBootstrapRounds is the number of resampling rounds used when the
// caller does not choose one.
const DefaultBootstrapRounds = 200

// Bootstrap estimates a 95% percentile interval for pooled positional
// accuracy. Each of rounds rounds draws len(c) pairs uniformly with
// replacement and records matches/compared over the draw (0 when nothing
// was compared). The interval is taken at indices ⌊0.025·R⌋ and ⌊0.975·R⌋
// of the sorted round accuracies.
//
// rounds <= 0 selects DefaultBootstrapRounds. A nil rng uses a time-seeded
// source; pass a seeded one for reproducible results. An empty corpus
// yields [0,0].
func Bootstrap(c Corpus, rounds int, rng *rand.Rand) Interval {
	if len(c) == 0 {
		return Interval{}
	}
	if rounds <= 0 {
		rounds = DefaultBootstrapRounds
	}
	if rng == nil {
		rng = NewRand(0)
	}

	matches := make([]int, len(c))
	compared := make([]int, len(c))
	for i, p := range c {
		matches[i], compared[i] = p.matchCounts()
	}

	accuracies := make([]float64, rounds)
	for r := range accuracies {
		var m, n int
		for range len(c) {
			j := rng.IntN(len(c))
			m += matches[j]
			n += compared[j]
		}
		if n > 0 {
			accuracies[r] = float64(m) / float64(n)
		}
	}
	slices.Sort(accuracies)

	lo := int(0.025 * float64(rounds))
	hi := min(int(0.975*float64(rounds)), rounds-1)

	return Interval{accuracies[lo], accuracies[hi]}
}

// NewRand returns a PCG-backed generator. A zero seed draws one from the
// wall clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
