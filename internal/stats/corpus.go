package stats

import "github.com/example/go-transdiv/internal/text"

// SentencePair holds one source sentence with its reference and subject
// translations, raw and tokenized. Pairs are built once by NewSentencePair
// and treated as read-only afterwards.
type SentencePair struct {
	Source        string   `json:"source"`
	ReferenceText string   `json:"referenceText"`
	SubjectText   string   `json:"subjectText"`
	Reference     []string `json:"referenceTokens"`
	Subject       []string `json:"subjectTokens"`
}

// NewSentencePair tokenizes both translations of source.
func NewSentencePair(source, referenceText, subjectText string) SentencePair {
	return SentencePair{
		Source:        source,
		ReferenceText: referenceText,
		SubjectText:   subjectText,
		Reference:     text.Tokenize(referenceText),
		Subject:       text.Tokenize(subjectText),
	}
}

// Align scores the pair's positional agreement.
func (p SentencePair) Align() Alignment { return Align(p.Reference, p.Subject) }

// matchCounts returns the matching and compared position counts.
func (p SentencePair) matchCounts() (matches, compared int) {
	a := p.Align()
	return a.Matches, a.Compared
}

// Corpus is an ordered collection of sentence pairs.
type Corpus []SentencePair

// ReferenceTokens concatenates every reference sequence in corpus order.
func (c Corpus) ReferenceTokens() []string {
	var out []string
	for _, p := range c {
		out = append(out, p.Reference...)
	}

	return out
}

// SubjectTokens concatenates every subject sequence in corpus order.
func (c Corpus) SubjectTokens() []string {
	var out []string
	for _, p := range c {
		out = append(out, p.Subject...)
	}

	return out
}

// PooledAccuracy aggregates matches and compared positions over the whole
// corpus before dividing, so long sentences weigh more than short ones.
func PooledAccuracy(c Corpus) Alignment {
	var matches, compared int
	for _, p := range c {
		m, n := p.matchCounts()
		matches += m
		compared += n
	}

	return AccuracyStats(matches, compared)
}
