// Package stats implements the divergence statistics used to compare two
// translators: smoothed unigram distributions, entropy, cross-entropy and
// KL divergence in bits, positional accuracy with a Wald interval, corpus
// bootstrap intervals, and confusion-pair ranking.
//
// Every function is pure. Degenerate inputs (empty sequences, nothing to
// compare) produce neutral zero results; only malformed inputs return
// ErrInvalidInput.
package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/example/go-transdiv/internal/text"
)

// ErrInvalidInput marks a computation whose preconditions do not hold, such
// as an empty vocabulary or distributions over different vocabularies.
var ErrInvalidInput = errors.New("invalid input")

// DefaultLambda is the Laplace smoothing constant.
const DefaultLambda = 1.0

// MinLambda is the smallest accepted smoothing constant. Smaller values
// let λ/(n+λ·|V|) underflow to zero for realistic token counts.
const MinLambda = 1e-9

// Distribution assigns a probability to every token of a fixed vocabulary.
type Distribution struct {
	vocab text.Vocabulary
	probs []float64
}

// Estimate computes the Laplace-smoothed unigram distribution of seq over
// vocab:
//
//	p(w) = (count(w) + λ) / (n + λ·|V|)
//
// Tokens of seq missing from vocab are not counted, and n counts only the
// tokens that were, so the result always sums to one. When every token of
// seq belongs to vocab (the union-vocabulary case) n is simply len(seq).
// An empty seq yields the uniform distribution. λ must be finite and at
// least MinLambda, and every resulting probability must be strictly
// positive; otherwise the result is ErrInvalidInput.
func Estimate(seq []string, vocab text.Vocabulary, lambda float64) (Distribution, error) {
	if vocab.Len() == 0 {
		return Distribution{}, fmt.Errorf("estimate distribution: empty vocabulary: %w", ErrInvalidInput)
	}
	if !(lambda >= MinLambda) || math.IsInf(lambda, 1) {
		return Distribution{}, fmt.Errorf("estimate distribution: smoothing constant %v must be finite and at least %g: %w",
			lambda, MinLambda, ErrInvalidInput)
	}

	probs := make([]float64, vocab.Len())
	for _, tok := range seq {
		if i, ok := vocab.Index(tok); ok {
			probs[i]++
		}
	}

	var total float64
	for i := range probs {
		probs[i] += lambda
		total += probs[i]
	}
	for i := range probs {
		probs[i] /= total
		if !(probs[i] > 0) || math.IsInf(probs[i], 0) {
			return Distribution{}, fmt.Errorf("estimate distribution: p(%q) = %v is not strictly positive: %w",
				vocab.Token(i), probs[i], ErrInvalidInput)
		}
	}

	return Distribution{vocab: vocab, probs: probs}, nil
}

// NewDistribution wraps explicit probabilities, one per vocabulary token in
// iteration order. Values must be finite and non-negative; they are not
// renormalized.
func NewDistribution(vocab text.Vocabulary, probs []float64) (Distribution, error) {
	if len(probs) != vocab.Len() {
		return Distribution{}, fmt.Errorf("new distribution: %d probabilities for %d tokens: %w",
			len(probs), vocab.Len(), ErrInvalidInput)
	}
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return Distribution{}, fmt.Errorf("new distribution: p(%q) = %v: %w", vocab.Token(i), p, ErrInvalidInput)
		}
	}

	return Distribution{vocab: vocab, probs: append([]float64(nil), probs...)}, nil
}

// Vocabulary returns the vocabulary the distribution is defined over.
func (d Distribution) Vocabulary() text.Vocabulary { return d.vocab }

// Len returns the vocabulary size.
func (d Distribution) Len() int { return len(d.probs) }

// Prob returns p(tok), or 0 when tok is outside the vocabulary.
func (d Distribution) Prob(tok string) float64 {
	i, ok := d.vocab.Index(tok)
	if !ok {
		return 0
	}

	return d.probs[i]
}

// Probabilities returns a copy of the probabilities in vocabulary order.
func (d Distribution) Probabilities() []float64 { return append([]float64(nil), d.probs...) }

// Sum returns the total probability mass.
func (d Distribution) Sum() float64 {
	var s float64
	for _, p := range d.probs {
		s += p
	}

	return s
}
