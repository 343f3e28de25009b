package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/go-transdiv/internal/analysis"
	"github.com/example/go-transdiv/internal/stats"
)

func TestRenderPair(t *testing.T) {
	res, err := analysis.AnalyzeSinglePair("the cat sat", "the dog sat")
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, RenderPair(&b, "The cat sat.", res))
	out := b.String()

	for _, want := range []string{
		"The cat sat.", "the cat sat", "the dog sat",
		"0.1429 bits", // KL = 1/7
		"2/3 = 66.7%",
		"p(reference)", "dog", "0.2857",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderPair_TruncatesWordTable(t *testing.T) {
	words := make([]string, MaxWordRows+5)
	for i := range words {
		words[i] = fmt.Sprintf("w%02d", i)
	}
	res, err := analysis.AnalyzeSinglePair(strings.Join(words, " "), "w00")
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, RenderPair(&b, "", res))
	out := b.String()

	assert.Contains(t, out, "5 more words")
	assert.Contains(t, out, fmt.Sprintf("w%02d", MaxWordRows-1))
}

func TestRenderCorpus(t *testing.T) {
	res := analysis.CorpusResult{
		Information:           analysis.Information{Entropy: 3.5, SubjectEntropy: 3.6, CrossEntropy: 3.75, KLDivergenceBits: 0.25},
		Sentences:             40,
		VocabularySize:        120,
		AccuracyPointEstimate: 0.8,
		WaldCI:                stats.Interval{0.75, 0.85},
		BootstrapCI:           stats.Interval{0.7, 0.9},
		BootstrapRounds:       200,
		PerSentenceKL:         []float64{0.1, 0.3, 0.2},
		TopConfusions: []stats.Confusion{
			{Reference: "wasiqa", Subject: "wasikuna", Count: 6},
			{Reference: "allinqa", Subject: "mana", Count: 2},
		},
	}

	var b strings.Builder
	require.NoError(t, RenderCorpus(&b, res, false))
	out := b.String()

	for _, want := range []string{
		"40", "120", "0.2500 bits", "80.0%",
		"[75.0%, 85.0%]", "[70.0%, 90.0%] (200 rounds)",
		"min 0.1000  mean 0.2000  max 0.3000",
		"wasikuna", "mana",
		"mock translators",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderCorpus_RealProvidersHideNotice(t *testing.T) {
	var b strings.Builder
	require.NoError(t, RenderCorpus(&b, analysis.CorpusResult{Sentences: 1}, true))
	assert.NotContains(t, b.String(), "mock translators")
}

func TestSummarize(t *testing.T) {
	lo, hi, mean := summarize([]float64{2, -1, 5})
	assert.InDelta(t, -1, lo, 1e-12)
	assert.InDelta(t, 5, hi, 1e-12)
	assert.InDelta(t, 2, mean, 1e-12)
}
