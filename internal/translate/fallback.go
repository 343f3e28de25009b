package translate

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// FallbackTranslator answers from primary and, when primary fails, logs the
// failure and answers from fallback instead.
type FallbackTranslator struct {
	primary  Translator
	fallback Translator
	log      *slog.Logger
}

// Fallback wraps primary with fallback.
func Fallback(primary, fallback Translator, logger *slog.Logger) *FallbackTranslator {
	if logger == nil {
		logger = slog.Default()
	}

	return &FallbackTranslator{primary: primary, fallback: fallback, log: logger}
}

func (f *FallbackTranslator) Name() string { return f.primary.Name() }

func (f *FallbackTranslator) Translate(ctx context.Context, text string) (string, error) {
	out, err := f.primary.Translate(ctx, text)
	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	f.log.WarnContext(ctx, "translator failed, using fallback",
		slog.String("translator", f.primary.Name()),
		slog.String("fallback", f.fallback.Name()),
		slog.String("error", err.Error()),
	)

	return f.fallback.Translate(ctx, text)
}

// Close closes the wrapped translators that hold resources.
func (f *FallbackTranslator) Close() error {
	return errors.Join(closeIfCloser(f.primary), closeIfCloser(f.fallback))
}

// FallbackSentenceSource is the SentenceSource counterpart of
// FallbackTranslator. An empty primary batch also triggers the fallback.
type FallbackSentenceSource struct {
	primary  SentenceSource
	fallback SentenceSource
	log      *slog.Logger
}

// FallbackSource wraps primary with fallback.
func FallbackSource(primary, fallback SentenceSource, logger *slog.Logger) *FallbackSentenceSource {
	if logger == nil {
		logger = slog.Default()
	}

	return &FallbackSentenceSource{primary: primary, fallback: fallback, log: logger}
}

func (f *FallbackSentenceSource) Sentences(ctx context.Context, n int) ([]string, error) {
	out, err := f.primary.Sentences(ctx, n)
	if err == nil && (len(out) > 0 || n <= 0) {
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	attrs := []any{slog.Int("requested", n)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	f.log.WarnContext(ctx, "sentence source failed, using fallback", attrs...)

	return f.fallback.Sentences(ctx, n)
}

func closeIfCloser(v any) error {
	if c, ok := v.(io.Closer); ok {
		return c.Close()
	}

	return nil
}
