package text

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SplitSentences splits running text into sentences for use as a corpus.
// A sentence ends at a run of '.', '!' or '?' that is followed by
// whitespace or the end of the text, so "3.14" and "U.S.A" stay intact.
// Each sentence is whitespace-normalized as NormalizeSentence does, and
// empty sentences are dropped.
func SplitSentences(s string) []string {
	var out []string
	start := 0

	emit := func(end int) {
		if sentence, err := NormalizeSentence(s[start:end]); err == nil {
			out = append(out, sentence)
		}
		start = end
	}

	for i, r := range s {
		if !isTerminator(r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		if end < len(s) {
			next, _ := utf8.DecodeRuneInString(s[end:])
			if isTerminator(next) || !unicode.IsSpace(next) {
				continue
			}
		}
		emit(end)
	}
	if start < len(s) {
		emit(len(s))
	}

	return out
}

func isTerminator(r rune) bool {
	return strings.ContainsRune(".!?", r)
}
