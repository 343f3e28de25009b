// Package translate provides the translator and sentence-source
// collaborators that feed the statistics engine: Google Cloud Translation,
// OpenAI chat models, deterministic and noisy mocks, and the wrappers that
// add fallback and rate limiting.
package translate

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyTranslation is returned when a provider answers with no text.
var ErrEmptyTranslation = errors.New("empty translation")

// Translator turns source text into target-language text.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text string) (string, error)
}

// SentenceSource produces a batch of source sentences for corpus analysis.
type SentenceSource interface {
	Sentences(ctx context.Context, n int) ([]string, error)
}

// TrimQuotes removes one pair of matching single or double quotes that a
// chat model sometimes wraps its answer in.
func TrimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return s[1 : len(s)-1]
	}

	return s
}
