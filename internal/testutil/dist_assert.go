package testutil

import (
	"math"
	"testing"
)

// AssertDistribution checks that probs is a proper probability
// distribution: every value strictly positive and finite, and the total
// within tol of one.
func AssertDistribution(tb testing.TB, probs []float64, tol float64) {
	tb.Helper()

	if len(probs) == 0 {
		tb.Fatalf("distribution is empty")
	}

	var sum float64
	for i, p := range probs {
		if !(p > 0) || math.IsInf(p, 0) {
			tb.Fatalf("p[%d] = %v; want strictly positive and finite", i, p)
		}
		sum += p
	}

	if math.Abs(sum-1) > tol {
		tb.Fatalf("probabilities sum to %.15f; want 1 ± %g", sum, tol)
	}
}
