package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultLanguage    = "Quechua"
)

// OpenAIConfig configures the chat-completion client shared by
// OpenAITranslator and OpenAISentenceSource.
type OpenAIConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string // human-readable target language name used in prompts
}

// NewOpenAIClient builds a go-openai client, honouring a custom base URL.
func NewOpenAIClient(cfg OpenAIConfig) (*openai.Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai: api key is required")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return openai.NewClientWithConfig(clientCfg), nil
}

// OpenAITranslator translates with a chat model acting as a professional
// translator.
type OpenAITranslator struct {
	client   *openai.Client
	model    string
	language string
	log      *slog.Logger
}

// NewOpenAITranslator returns a translator using client.
func NewOpenAITranslator(client *openai.Client, cfg OpenAIConfig, logger *slog.Logger) *OpenAITranslator {
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAITranslator{
		client:   client,
		model:    orDefault(cfg.Model, DefaultOpenAIModel),
		language: orDefault(cfg.Language, DefaultLanguage),
		log:      logger,
	}
}

func (o *OpenAITranslator) Name() string { return "openai:" + o.model }

func (o *OpenAITranslator) Translate(ctx context.Context, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a professional translator specializing in the %s language. "+
					"Translate the given English text to %s. Only provide the translation, no explanations.",
					o.language, o.language),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Translate this English text to %s: %q", o.language, text),
			},
		},
		Temperature:         0.3,
		MaxCompletionTokens: 500,
	}

	o.log.DebugContext(ctx, "requesting translation", slog.String("model", o.model), slog.Int("text_len", len(text)))
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: %w", ErrEmptyTranslation)
	}

	out := TrimQuotes(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("openai: %w", ErrEmptyTranslation)
	}

	return out, nil
}

// listNumbering matches "1. ", "2) ", "3- " or "4: " prefixes.
var listNumbering = regexp.MustCompile(`^\d+[.)\-:]\s*`)

// OpenAISentenceSource asks a chat model for varied English test sentences.
type OpenAISentenceSource struct {
	client   *openai.Client
	model    string
	language string
	log      *slog.Logger
}

// NewOpenAISentenceSource returns a sentence source using client.
func NewOpenAISentenceSource(client *openai.Client, cfg OpenAIConfig, logger *slog.Logger) *OpenAISentenceSource {
	if logger == nil {
		logger = slog.Default()
	}

	return &OpenAISentenceSource{
		client:   client,
		model:    orDefault(cfg.Model, DefaultOpenAIModel),
		language: orDefault(cfg.Language, DefaultLanguage),
		log:      logger,
	}
}

func (o *OpenAISentenceSource) Sentences(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf("You are a linguistic expert creating diverse test sentences for %s translation "+
					"evaluation. Generate simple to moderately complex English sentences about daily life, nature, "+
					"weather, agriculture, food, culture and places relevant to %s-speaking regions.",
					o.language, o.language),
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf("Generate exactly %d diverse English sentences for translation testing. "+
					"Vary the grammatical structure (statements, questions, commands, negations) and keep each "+
					"between 4 and 12 words.\n\nFormat: return ONLY the sentences, one per line, numbered.", n),
			},
		},
		Temperature:         0.8,
		MaxCompletionTokens: 2000,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai: generate sentences: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: generate sentences: no choices returned")
	}

	sentences := ParseNumberedLines(resp.Choices[0].Message.Content, n)
	o.log.InfoContext(ctx, "generated test sentences", slog.Int("requested", n), slog.Int("generated", len(sentences)))

	return sentences, nil
}

// ParseNumberedLines splits a numbered list into its items, dropping blank
// lines and list numbering, and keeps at most limit items (limit <= 0 keeps
// all).
func ParseNumberedLines(s string, limit int) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(listNumbering.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		out = append(out, line)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}

	return v
}
