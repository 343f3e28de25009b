package stats

import (
	"fmt"
	"math"
)

// Entropy returns H(P) = −Σ p·log2 p in bits. Zero-probability terms are
// skipped.
func Entropy(p Distribution) float64 {
	var h float64
	for _, pw := range p.probs {
		if pw > 0 {
			h -= pw * math.Log2(pw)
		}
	}

	return h
}

// CrossEntropy returns H(P,Q) = −Σ p(w)·log2 q(w) in bits. P and Q must be
// defined over the same token set. A token with p(w) > 0 and q(w) = 0 makes
// the result +Inf.
func CrossEntropy(p, q Distribution) (float64, error) {
	if !p.vocab.SameSet(q.vocab) {
		return 0, fmt.Errorf("cross-entropy: vocabularies differ (%d vs %d tokens): %w",
			p.vocab.Len(), q.vocab.Len(), ErrInvalidInput)
	}

	var ce float64
	for i, pw := range p.probs {
		if pw <= 0 {
			continue
		}
		qw := q.Prob(p.vocab.Token(i))
		if qw <= 0 {
			return math.Inf(1), nil
		}
		ce -= pw * math.Log2(qw)
	}

	return ce, nil
}

// KLDivergence returns D_KL(P‖Q) = H(P,Q) − H(P) in bits. It is not
// symmetric and is non-negative up to floating-point error.
func KLDivergence(p, q Distribution) (float64, error) {
	ce, err := CrossEntropy(p, q)
	if err != nil {
		return 0, fmt.Errorf("kl divergence: %w", err)
	}

	return ce - Entropy(p), nil
}
