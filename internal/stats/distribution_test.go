package stats

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/go-transdiv/internal/testutil"
	"github.com/example/go-transdiv/internal/text"
)

func TestEstimate_WorkedExample(t *testing.T) {
	ref := text.Tokenize("the cat sat")
	subj := text.Tokenize("the dog sat")
	vocab := text.BuildVocabulary(ref, subj)
	require.Equal(t, []string{"the", "cat", "sat", "dog"}, vocab.Tokens())

	p, err := Estimate(ref, vocab, DefaultLambda)
	require.NoError(t, err)

	assert.InDelta(t, 2.0/7, p.Prob("the"), 1e-12)
	assert.InDelta(t, 2.0/7, p.Prob("cat"), 1e-12)
	assert.InDelta(t, 2.0/7, p.Prob("sat"), 1e-12)
	assert.InDelta(t, 1.0/7, p.Prob("dog"), 1e-12)
	assert.InDelta(t, 1.0, p.Sum(), 1e-12)
}

func TestEstimate_EmptySequenceIsUniform(t *testing.T) {
	vocab := text.BuildVocabulary([]string{"a", "b", "c", "d", "e"})

	for _, lambda := range []float64{0.5, 1, 3} {
		p, err := Estimate(nil, vocab, lambda)
		require.NoError(t, err)
		for _, tok := range vocab.Tokens() {
			assert.InDelta(t, 0.2, p.Prob(tok), 1e-12, "lambda=%v token=%q", lambda, tok)
		}
	}
}

func TestEstimate_EmptyVocabularyIsInvalid(t *testing.T) {
	_, err := Estimate([]string{"a"}, text.BuildVocabulary(), DefaultLambda)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestEstimate_NonPositiveLambdaIsInvalid(t *testing.T) {
	vocab := text.BuildVocabulary([]string{"a"})
	for _, lambda := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := Estimate([]string{"a"}, vocab, lambda)
		assert.ErrorIs(t, err, ErrInvalidInput, "lambda=%v", lambda)
	}
}

func TestEstimate_TinyLambdaWouldUnderflowIsInvalid(t *testing.T) {
	seq := text.Tokenize("a a a a a a a a b")
	vocab := text.BuildVocabulary([]string{"a", "b", "c"})

	for _, lambda := range []float64{5e-324, math.SmallestNonzeroFloat64 * 1e10, MinLambda / 2} {
		_, err := Estimate(seq, vocab, lambda)
		assert.ErrorIs(t, err, ErrInvalidInput, "lambda=%v", lambda)
	}

	p, err := Estimate(seq, vocab, MinLambda)
	require.NoError(t, err)
	testutil.AssertDistribution(t, p.Probabilities(), 1e-9)
	assert.Greater(t, p.Prob("c"), 0.0)
}

func TestEstimate_IgnoresOutOfVocabularyTokens(t *testing.T) {
	vocab := text.BuildVocabulary([]string{"a", "b"})

	p, err := Estimate([]string{"a", "zzz", "zzz", "a"}, vocab, DefaultLambda)
	require.NoError(t, err)

	assert.Equal(t, 0.0, p.Prob("zzz"))
	assert.InDelta(t, 3.0/4, p.Prob("a"), 1e-12)
	assert.InDelta(t, 1.0/4, p.Prob("b"), 1e-12)
	assert.InDelta(t, 1.0, p.Sum(), 1e-12)
}

func TestEstimate_SumsToOneAndStrictlyPositive(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	words := []string{"llama", "qa", "kuna", "mana", "inti", "mayu", "urqu", "wasi"}

	for trial := range 200 {
		vocabSize := 1 + rng.IntN(len(words))
		vocab := text.BuildVocabulary(words[:vocabSize])

		seq := make([]string, rng.IntN(30))
		for i := range seq {
			seq[i] = words[rng.IntN(len(words))]
		}
		lambda := 0.01 + 2*rng.Float64()

		p, err := Estimate(seq, vocab, lambda)
		require.NoError(t, err, "trial %d", trial)
		testutil.AssertDistribution(t, p.Probabilities(), 1e-9)
	}
}

func TestNewDistribution_Validates(t *testing.T) {
	vocab := text.BuildVocabulary([]string{"a", "b"})

	_, err := NewDistribution(vocab, []float64{1})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewDistribution(vocab, []float64{1.5, -0.5})
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewDistribution(vocab, []float64{math.NaN(), 1})
	require.ErrorIs(t, err, ErrInvalidInput)

	d, err := NewDistribution(vocab, []float64{1, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, 1.0, d.Prob("a"))
}

func ExampleEstimate() {
	vocab := text.BuildVocabulary([]string{"the", "cat", "sat", "dog"})
	p, _ := Estimate([]string{"the", "cat", "sat"}, vocab, DefaultLambda)
	for _, tok := range vocab.Tokens() {
		fmt.Printf("%s %.4f\n", tok, p.Prob(tok))
	}
	// Output:
	// the 0.2857
	// cat 0.2857
	// sat 0.2857
	// dog 0.1429
}
