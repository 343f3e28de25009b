package text

import (
	"slices"
	"testing"
)

func TestBuildVocabulary_FirstSeenOrder(t *testing.T) {
	v := BuildVocabulary(
		[]string{"the", "cat", "sat"},
		[]string{"the", "dog", "sat"},
	)

	want := []string{"the", "cat", "sat", "dog"}
	if got := v.Tokens(); !slices.Equal(got, want) {
		t.Fatalf("Tokens() = %q; want %q", got, want)
	}

	if v.Len() != 4 {
		t.Errorf("Len() = %d; want 4", v.Len())
	}

	for i, tok := range want {
		idx, ok := v.Index(tok)
		if !ok || idx != i {
			t.Errorf("Index(%q) = %d,%v; want %d,true", tok, idx, ok, i)
		}
		if v.Token(i) != tok {
			t.Errorf("Token(%d) = %q; want %q", i, v.Token(i), tok)
		}
	}
}

func TestBuildVocabulary_Empty(t *testing.T) {
	for _, v := range []Vocabulary{BuildVocabulary(), BuildVocabulary(nil, []string{})} {
		if v.Len() != 0 {
			t.Errorf("Len() = %d; want 0", v.Len())
		}
		if v.Contains("x") {
			t.Error("empty vocabulary should not contain anything")
		}
	}
}

func TestVocabulary_TokensReturnsCopy(t *testing.T) {
	v := BuildVocabulary([]string{"a", "b"})
	toks := v.Tokens()
	toks[0] = "mutated"

	if v.Token(0) != "a" {
		t.Errorf("vocabulary mutated through Tokens(): %q", v.Token(0))
	}
}

func TestVocabulary_SameSet(t *testing.T) {
	a := BuildVocabulary([]string{"x", "y", "z"})
	b := BuildVocabulary([]string{"z", "x", "y", "x"})
	c := BuildVocabulary([]string{"x", "y"})
	d := BuildVocabulary([]string{"x", "y", "w"})

	if !a.SameSet(b) {
		t.Error("a and b hold the same tokens in a different order")
	}
	if a.SameSet(c) {
		t.Error("a and c differ in size")
	}
	if a.SameSet(d) {
		t.Error("a and d differ in membership")
	}
}
