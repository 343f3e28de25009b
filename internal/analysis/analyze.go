// Package analysis combines the statistics engine into the two reports the
// service exposes, one for a single sentence pair and one for a corpus, and
// wires translators and sentence sources into them.
package analysis

import (
	"fmt"
	"math/rand/v2"

	"github.com/example/go-transdiv/internal/stats"
	"github.com/example/go-transdiv/internal/text"
)

// Information holds the information-theoretic comparison of a reference
// distribution P with a subject distribution Q, all in bits.
type Information struct {
	Entropy          float64 `json:"entropyReference"`
	SubjectEntropy   float64 `json:"entropySubject"`
	CrossEntropy     float64 `json:"crossEntropy"`
	KLDivergenceBits float64 `json:"klDivergenceBits"`
}

func compareDistributions(p, q stats.Distribution) (Information, error) {
	ce, err := stats.CrossEntropy(p, q)
	if err != nil {
		return Information{}, err
	}
	h := stats.Entropy(p)

	return Information{
		Entropy:          h,
		SubjectEntropy:   stats.Entropy(q),
		CrossEntropy:     ce,
		KLDivergenceBits: ce - h,
	}, nil
}

// WordProb is one row of the per-word probability table.
type WordProb struct {
	Word       string  `json:"word"`
	PReference float64 `json:"pReference"`
	PSubject   float64 `json:"pSubject"`
}

// PairResult reports how far the subject translation's word distribution
// diverges from the reference's for one sentence.
type PairResult struct {
	Information

	Reference       string          `json:"reference"`
	Subject         string          `json:"subject"`
	ReferenceTokens []string        `json:"referenceTokens"`
	SubjectTokens   []string        `json:"subjectTokens"`
	TokenMatch      stats.Alignment `json:"tokenMatch"`
	PerWord         []WordProb      `json:"perWordStats"`

	ReferenceDist stats.Distribution `json:"-"`
	SubjectDist   stats.Distribution `json:"-"`
}

// AnalyzeSinglePair tokenizes both texts and compares them with the default
// smoothing constant.
func AnalyzeSinglePair(referenceText, subjectText string) (PairResult, error) {
	return AnalyzePair(stats.NewSentencePair("", referenceText, subjectText), stats.DefaultLambda)
}

// AnalyzePair compares an already tokenized pair. The vocabulary is the
// union of both sequences; both empty is ErrInvalidInput.
func AnalyzePair(pair stats.SentencePair, lambda float64) (PairResult, error) {
	vocab := text.BuildVocabulary(pair.Reference, pair.Subject)
	p, q, err := estimatePair(pair.Reference, pair.Subject, vocab, lambda)
	if err != nil {
		return PairResult{}, err
	}

	info, err := compareDistributions(p, q)
	if err != nil {
		return PairResult{}, err
	}

	res := PairResult{
		Information:     info,
		Reference:       pair.ReferenceText,
		Subject:         pair.SubjectText,
		ReferenceTokens: pair.Reference,
		SubjectTokens:   pair.Subject,
		TokenMatch:      pair.Align(),
		ReferenceDist:   p,
		SubjectDist:     q,
		PerWord:         make([]WordProb, 0, vocab.Len()),
	}
	for _, w := range vocab.Tokens() {
		res.PerWord = append(res.PerWord, WordProb{Word: w, PReference: p.Prob(w), PSubject: q.Prob(w)})
	}

	return res, nil
}

// CorpusOptions tunes AnalyzeCorpus. Zero values select the package
// defaults; a nil Rand uses a time-seeded generator.
type CorpusOptions struct {
	Rounds int
	TopK   int
	Lambda float64
	Rand   *rand.Rand
}

// CorpusResult aggregates divergence and agreement over a corpus.
type CorpusResult struct {
	Information

	Sentences             int               `json:"sentences"`
	VocabularySize        int               `json:"vocabularySize"`
	AccuracyPointEstimate float64           `json:"tokenMatchAccuracy"`
	WaldCI                stats.Interval    `json:"tokenMatchWaldCI"`
	BootstrapCI           stats.Interval    `json:"tokenMatchCI"`
	BootstrapRounds       int               `json:"bootstrapRounds"`
	PerSentenceKL         []float64         `json:"perSentenceKL"`
	TopConfusions         []stats.Confusion `json:"topConfusions"`
}

// AnalyzeCorpus pools every reference and subject token into one
// distribution each, then adds pooled accuracy with Wald and bootstrap
// intervals, per-sentence KL divergence, and the top confusions.
//
// An empty corpus, or one with no tokens at all, is ErrInvalidInput. A
// sentence whose own vocabulary is empty contributes a KL of 0.
func AnalyzeCorpus(c stats.Corpus, opts CorpusOptions) (CorpusResult, error) {
	if len(c) == 0 {
		return CorpusResult{}, fmt.Errorf("analyze corpus: no sentence pairs: %w", stats.ErrInvalidInput)
	}
	if opts.Lambda == 0 {
		opts.Lambda = stats.DefaultLambda
	}
	if opts.Rounds <= 0 {
		opts.Rounds = stats.DefaultBootstrapRounds
	}

	ref, subj := c.ReferenceTokens(), c.SubjectTokens()
	vocab := text.BuildVocabulary(ref, subj)
	p, q, err := estimatePair(ref, subj, vocab, opts.Lambda)
	if err != nil {
		return CorpusResult{}, fmt.Errorf("analyze corpus: %w", err)
	}

	info, err := compareDistributions(p, q)
	if err != nil {
		return CorpusResult{}, fmt.Errorf("analyze corpus: %w", err)
	}

	pooled := stats.PooledAccuracy(c)
	res := CorpusResult{
		Information:           info,
		Sentences:             len(c),
		VocabularySize:        vocab.Len(),
		AccuracyPointEstimate: pooled.Accuracy,
		WaldCI:                pooled.CI,
		BootstrapCI:           stats.Bootstrap(c, opts.Rounds, opts.Rand),
		BootstrapRounds:       opts.Rounds,
		PerSentenceKL:         make([]float64, len(c)),
		TopConfusions:         stats.NewConfusionTable(c).Top(opts.TopK),
	}
	for i, pair := range c {
		sv := text.BuildVocabulary(pair.Reference, pair.Subject)
		if sv.Len() == 0 {
			continue
		}
		sp, sq, err := estimatePair(pair.Reference, pair.Subject, sv, opts.Lambda)
		if err != nil {
			return CorpusResult{}, fmt.Errorf("analyze corpus: sentence %d: %w", i, err)
		}
		kl, err := stats.KLDivergence(sp, sq)
		if err != nil {
			return CorpusResult{}, fmt.Errorf("analyze corpus: sentence %d: %w", i, err)
		}
		res.PerSentenceKL[i] = kl
	}

	return res, nil
}

func estimatePair(ref, subj []string, vocab text.Vocabulary, lambda float64) (stats.Distribution, stats.Distribution, error) {
	p, err := stats.Estimate(ref, vocab, lambda)
	if err != nil {
		return stats.Distribution{}, stats.Distribution{}, fmt.Errorf("reference distribution: %w", err)
	}
	q, err := stats.Estimate(subj, vocab, lambda)
	if err != nil {
		return stats.Distribution{}, stats.Distribution{}, fmt.Errorf("subject distribution: %w", err)
	}

	return p, q, nil
}
