package text

import (
	"errors"
	"strings"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// NormalizeSentence prepares a raw source sentence for translation.
// Line breaks and whitespace runs collapse to a single space, surrounding
// whitespace is trimmed, and empty or whitespace-only input is rejected.
func NormalizeSentence(s string) (string, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}
