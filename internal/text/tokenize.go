// Package text turns raw translations into comparable token sequences and
// builds the vocabularies that probability estimates are defined over.
package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenize normalizes s into a sequence of word tokens:
//  1. NFC-compose so accented letters stay single runes.
//  2. Lower-case with the language-neutral mapping, so "Straße" keeps its
//     ß and a word-final capital sigma becomes ς.
//  3. Drop every rune that is not a letter, digit, underscore or whitespace.
//  4. Split on whitespace runs, discarding empty tokens.
//
// Empty input yields a nil sequence.
func Tokenize(s string) []string {
	if s == "" {
		return nil
	}

	// cases.Caser keeps state between calls, so each call gets its own.
	lowered := cases.Lower(language.Und).String(norm.NFC.String(s))

	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		switch {
		case isWordRune(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	tokens := strings.Fields(b.String())
	if len(tokens) == 0 {
		return nil
	}

	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
