package translate

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
)

// SuffixTranslator is an offline stand-in that appends a fixed suffix to
// every whitespace-separated word. With the default "qa" suffix it plays the
// reference provider in demo mode.
type SuffixTranslator struct {
	name   string
	suffix string
}

// NewSuffixTranslator returns a SuffixTranslator. An empty suffix selects "qa".
func NewSuffixTranslator(name, suffix string) *SuffixTranslator {
	if suffix == "" {
		suffix = "qa"
	}

	return &SuffixTranslator{name: name, suffix: suffix}
}

func (s *SuffixTranslator) Name() string { return s.name }

func (s *SuffixTranslator) Translate(_ context.Context, text string) (string, error) {
	words := strings.Fields(text)
	for i, w := range words {
		words[i] = w + s.suffix
	}

	return strings.Join(words, " "), nil
}

// NoisyTranslator is an offline stand-in for the subject provider. Each word
// becomes w+"kuna" with probability 0.2, otherwise "mana" with probability
// 0.1, otherwise w+"qa", so it diverges from SuffixTranslator at a known
// rate.
type NoisyTranslator struct {
	name string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewNoisyTranslator returns a NoisyTranslator drawing from rng. Calls are
// serialized on rng, so a seeded rng gives reproducible output for a fixed
// call order.
func NewNoisyTranslator(name string, rng *rand.Rand) *NoisyTranslator {
	return &NoisyTranslator{name: name, rng: rng}
}

func (n *NoisyTranslator) Name() string { return n.name }

func (n *NoisyTranslator) Translate(_ context.Context, text string) (string, error) {
	words := strings.Fields(text)

	n.mu.Lock()
	defer n.mu.Unlock()
	for i, w := range words {
		switch {
		case n.rng.Float64() > 0.8:
			words[i] = w + "kuna"
		case n.rng.Float64() > 0.9:
			words[i] = "mana"
		default:
			words[i] = w + "qa"
		}
	}

	return strings.Join(words, " "), nil
}
