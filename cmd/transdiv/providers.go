package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/example/go-transdiv/internal/analysis"
	"github.com/example/go-transdiv/internal/config"
	"github.com/example/go-transdiv/internal/stats"
	"github.com/example/go-transdiv/internal/translate"
)

// Independent PCG streams for the offline collaborators, so a fixed seed
// gives the mock subject and the sentence bank unrelated sequences.
const (
	noisyStream = 0x6d6f636b
	bankStream  = 0x62616e6b
)

// providerSet is what buildService resolved from the configuration.
type providerSet struct {
	reference translate.Translator
	subject   translate.Translator
	sentences translate.SentenceSource
	real      bool
}

// buildService constructs the analysis service for cfg.
//
// In mock mode both translators are offline stand-ins. In real mode missing
// credentials are an error and provider failures surface to the caller. In
// auto mode each provider is used when its credentials are configured, and
// falls back to its offline stand-in on failure.
func buildService(ctx context.Context, cfg config.Config, logger *slog.Logger) (*analysis.Service, error) {
	ps, err := resolveProviders(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	svc := analysis.NewService(ps.reference, ps.subject, ps.sentences,
		analysis.WithLambda(cfg.Stats.Lambda),
		analysis.WithBootstrapRounds(cfg.Stats.BootstrapRounds),
		analysis.WithTopConfusions(cfg.Stats.TopConfusions),
		analysis.WithSeed(cfg.Stats.Seed),
		analysis.WithConcurrency(cfg.Translate.Concurrency),
		analysis.WithTranslateTimeout(time.Duration(cfg.Translate.TimeoutSeconds)*time.Second),
		analysis.WithRealProviders(ps.real),
		analysis.WithLogger(logger),
	)

	if ps.real {
		logger.InfoContext(ctx, "using real translation providers",
			slog.String("mode", cfg.Translate.Mode),
			slog.String("reference", ps.reference.Name()),
			slog.String("subject", ps.subject.Name()),
		)
	} else {
		logger.InfoContext(ctx, "using mock translation for demonstration",
			slog.String("mode", cfg.Translate.Mode),
			slog.String("reference", ps.reference.Name()),
			slog.String("subject", ps.subject.Name()),
		)
	}

	return svc, nil
}

func resolveProviders(ctx context.Context, cfg config.Config, logger *slog.Logger) (providerSet, error) {
	tc := cfg.Translate

	bank, err := translate.LoadSentenceBank(tc.SentenceBank)
	if err != nil {
		return providerSet{}, err
	}

	mockRef := translate.NewSuffixTranslator("mock-reference", "qa")
	mockSubj := translate.NewNoisyTranslator("mock-subject", seededRand(cfg.Stats.Seed, noisyStream))
	bankSource := translate.NewBankSentenceSource(bank, seededRand(cfg.Stats.Seed, bankStream))

	hasGoogle := strings.TrimSpace(tc.GoogleCredentialsFile) != ""
	hasOpenAI := strings.TrimSpace(tc.OpenAIAPIKey) != ""

	switch tc.Mode {
	case config.ModeMock:
		return providerSet{reference: mockRef, subject: mockSubj, sentences: bankSource}, nil
	case config.ModeReal:
		var missing []string
		if !hasGoogle {
			missing = append(missing, "translate.google_credentials_file")
		}
		if !hasOpenAI {
			missing = append(missing, "translate.openai_api_key")
		}
		if len(missing) > 0 {
			return providerSet{}, fmt.Errorf("translate mode real requires %s", strings.Join(missing, " and "))
		}
	}

	limiter := translate.NewLimiter(tc.RateLimit, tc.RateBurst)
	ps := providerSet{reference: mockRef, subject: mockSubj, sentences: bankSource}
	fallbacks := tc.Mode == config.ModeAuto

	if hasGoogle {
		g, err := translate.NewGoogleTranslator(ctx, translate.GoogleConfig{
			CredentialsFile: tc.GoogleCredentialsFile,
			Pivot:           tc.PivotLanguage,
			Target:          tc.TargetLanguage,
		})
		if err != nil {
			return providerSet{}, err
		}
		ps.reference = withFallback(translate.RateLimited(g, limiter), mockRef, fallbacks, logger)
	}

	if hasOpenAI {
		oc := translate.OpenAIConfig{
			APIKey:   tc.OpenAIAPIKey,
			BaseURL:  tc.OpenAIBaseURL,
			Model:    tc.OpenAIModel,
			Language: languageName(tc.TargetLanguage),
		}
		client, err := translate.NewOpenAIClient(oc)
		if err != nil {
			return providerSet{}, err
		}
		o := translate.NewOpenAITranslator(client, oc, logger)
		ps.subject = withFallback(translate.RateLimited(o, limiter), mockSubj, fallbacks, logger)
		ps.sentences = translate.FallbackSource(translate.NewOpenAISentenceSource(client, oc, logger), bankSource, logger)
	}

	ps.real = hasGoogle && hasOpenAI

	return ps, nil
}

func withFallback(primary, fallback translate.Translator, enabled bool, logger *slog.Logger) translate.Translator {
	if !enabled {
		return primary
	}

	return translate.Fallback(primary, fallback, logger)
}

func seededRand(seed, stream uint64) *rand.Rand {
	if seed == 0 {
		return stats.NewRand(0)
	}

	return rand.New(rand.NewPCG(seed, stream))
}

// languageName returns the English name of a BCP 47 code, e.g. "Quechua"
// for "qu", or the code itself when it does not parse.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}

	return code
}

// closeService releases provider resources, logging rather than failing.
func closeService(svc *analysis.Service) {
	if err := svc.Close(); err != nil {
		slog.Default().Warn("close providers", slog.String("error", err.Error()))
	}
}
