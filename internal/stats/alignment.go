package stats

import "math"

// ConfidenceZ is the two-sided 95% normal quantile used for Wald intervals.
const ConfidenceZ = 1.96

// Interval is a closed [lower, upper] range. It encodes to JSON as a
// two-element array.
type Interval [2]float64

// Lower returns the lower bound.
func (iv Interval) Lower() float64 { return iv[0] }

// Upper returns the upper bound.
func (iv Interval) Upper() float64 { return iv[1] }

// Contains reports whether x lies within the interval, bounds included.
func (iv Interval) Contains(x float64) bool { return x >= iv[0] && x <= iv[1] }

// Alignment is the positional agreement between two token sequences.
type Alignment struct {
	Matches  int      `json:"matches"`
	Compared int      `json:"compared"`
	Accuracy float64  `json:"accuracy"`
	CI       Interval `json:"ci"`
}

// Align compares ref and subj position by position up to the shorter
// length. Trailing tokens of the longer sequence are ignored.
func Align(ref, subj []string) Alignment {
	n := min(len(ref), len(subj))
	matches := 0
	for i := range n {
		if ref[i] == subj[i] {
			matches++
		}
	}

	return AccuracyStats(matches, n)
}

// AccuracyStats turns a match count into an accuracy with a Wald interval
// clipped to [0,1]. Nothing compared yields accuracy 0 and [0,0].
func AccuracyStats(matches, compared int) Alignment {
	if compared <= 0 {
		return Alignment{}
	}

	acc := float64(matches) / float64(compared)
	margin := ConfidenceZ * math.Sqrt(acc*(1-acc)/float64(compared))

	return Alignment{
		Matches:  matches,
		Compared: compared,
		Accuracy: acc,
		CI:       Interval{math.Max(0, acc-margin), math.Min(1, acc+margin)},
	}
}
