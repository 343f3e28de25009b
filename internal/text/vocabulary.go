package text

// Vocabulary is the set of distinct tokens a distribution is defined over.
// Iteration order is first-seen order across the sequences it was built
// from, which keeps every derived table reproducible.
type Vocabulary struct {
	tokens []string
	index  map[string]int
}

// BuildVocabulary returns the union of the tokens in seqs.
func BuildVocabulary(seqs ...[]string) Vocabulary {
	v := Vocabulary{index: make(map[string]int)}
	for _, seq := range seqs {
		for _, tok := range seq {
			if _, ok := v.index[tok]; ok {
				continue
			}
			v.index[tok] = len(v.tokens)
			v.tokens = append(v.tokens, tok)
		}
	}

	return v
}

// Len returns the number of distinct tokens.
func (v Vocabulary) Len() int { return len(v.tokens) }

// Tokens returns a copy of the tokens in iteration order.
func (v Vocabulary) Tokens() []string { return append([]string(nil), v.tokens...) }

// Token returns the token at position i.
func (v Vocabulary) Token(i int) string { return v.tokens[i] }

// Index returns the position of tok, if present.
func (v Vocabulary) Index(tok string) (int, bool) {
	i, ok := v.index[tok]
	return i, ok
}

// Contains reports whether tok is in the vocabulary.
func (v Vocabulary) Contains(tok string) bool {
	_, ok := v.index[tok]
	return ok
}

// SameSet reports whether v and o hold exactly the same tokens, ignoring order.
func (v Vocabulary) SameSet(o Vocabulary) bool {
	if len(v.tokens) != len(o.tokens) {
		return false
	}
	for _, tok := range v.tokens {
		if !o.Contains(tok) {
			return false
		}
	}

	return true
}
