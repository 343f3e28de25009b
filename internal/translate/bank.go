package translate

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed sentences.yaml
var builtinBank []byte

// SentenceBank is a topic-grouped list of source sentences.
type SentenceBank struct {
	Topics []BankTopic `yaml:"topics"`
}

// BankTopic is one group of sentences.
type BankTopic struct {
	Name      string   `yaml:"name"`
	Sentences []string `yaml:"sentences"`
}

// ParseSentenceBank decodes a YAML sentence bank.
func ParseSentenceBank(data []byte) (SentenceBank, error) {
	var bank SentenceBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return SentenceBank{}, fmt.Errorf("parse sentence bank: %w", err)
	}
	if len(bank.All()) == 0 {
		return SentenceBank{}, errors.New("parse sentence bank: no sentences")
	}

	return bank, nil
}

// LoadSentenceBank reads a YAML sentence bank from path, or returns the
// built-in bank when path is empty.
func LoadSentenceBank(path string) (SentenceBank, error) {
	if path == "" {
		return ParseSentenceBank(builtinBank)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return SentenceBank{}, fmt.Errorf("read sentence bank: %w", err)
	}

	return ParseSentenceBank(data)
}

// All returns every non-blank sentence, topic by topic.
func (b SentenceBank) All() []string {
	var out []string
	for _, topic := range b.Topics {
		for _, s := range topic.Sentences {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}

	return out
}

// BankSentenceSource serves shuffled sentences from a SentenceBank.
type BankSentenceSource struct {
	sentences []string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBankSentenceSource returns a source over bank shuffled with rng.
func NewBankSentenceSource(bank SentenceBank, rng *rand.Rand) *BankSentenceSource {
	return &BankSentenceSource{sentences: bank.All(), rng: rng}
}

// Sentences returns min(n, bank size) distinct sentences in random order.
func (b *BankSentenceSource) Sentences(_ context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	shuffled := append([]string(nil), b.sentences...)
	b.mu.Lock()
	b.rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	b.mu.Unlock()

	return shuffled[:min(n, len(shuffled))], nil
}
