package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/example/go-transdiv/internal/stats"
	"github.com/example/go-transdiv/internal/text"
	"github.com/example/go-transdiv/internal/translate"
)

// ErrTranslation marks a failure inside a translator or sentence source, as
// opposed to a statistics precondition.
var ErrTranslation = errors.New("translation failed")

type options struct {
	lambda      float64
	rounds      int
	topK        int
	seed        uint64
	concurrency int
	timeout     time.Duration
	realAPIs    bool
	logger      *slog.Logger
}

func defaultOptions() options {
	return options{
		lambda:      stats.DefaultLambda,
		rounds:      stats.DefaultBootstrapRounds,
		topK:        stats.DefaultTopConfusions,
		concurrency: 8,
		logger:      slog.Default(),
	}
}

// Option configures a Service.
type Option func(*options)

// WithLambda sets the Laplace smoothing constant.
func WithLambda(l float64) Option { return func(o *options) { o.lambda = l } }

// WithBootstrapRounds sets the number of bootstrap resampling rounds.
func WithBootstrapRounds(n int) Option { return func(o *options) { o.rounds = n } }

// WithTopConfusions sets the length of the ranked confusion list.
func WithTopConfusions(k int) Option { return func(o *options) { o.topK = k } }

// WithSeed fixes the bootstrap seed; 0 seeds from the clock on every run.
func WithSeed(seed uint64) Option { return func(o *options) { o.seed = seed } }

// WithConcurrency bounds the sentences translated at once by BuildCorpus.
func WithConcurrency(n int) Option { return func(o *options) { o.concurrency = n } }

// WithTranslateTimeout bounds each translator call; 0 leaves calls bounded
// only by the caller's context.
func WithTranslateTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithRealProviders records whether the translators call real APIs, which
// is reported back to clients.
func WithRealProviders(real bool) Option { return func(o *options) { o.realAPIs = real } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// Service runs analyses against injected collaborators: the reference
// translator, the subject translator, and the sentence source for
// experiments. It holds no mutable state, so one Service serves concurrent
// requests.
type Service struct {
	reference translate.Translator
	subject   translate.Translator
	sentences translate.SentenceSource
	opts      options
	log       *slog.Logger
}

// NewService wires the collaborators together.
func NewService(reference, subject translate.Translator, sentences translate.SentenceSource, optFns ...Option) *Service {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.logger == nil {
		opts.logger = slog.Default()
	}

	return &Service{
		reference: reference,
		subject:   subject,
		sentences: sentences,
		opts:      opts,
		log:       opts.logger,
	}
}

// UsingRealProviders reports whether the translators call real APIs.
func (s *Service) UsingRealProviders() bool { return s.opts.realAPIs }

// Close releases collaborators that hold resources.
func (s *Service) Close() error {
	var errs []error
	for _, c := range []any{s.reference, s.subject, s.sentences} {
		if closer, ok := c.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}

	return errors.Join(errs...)
}

// AnalyzeTexts compares two given translations without calling any
// translator.
func (s *Service) AnalyzeTexts(referenceText, subjectText string) (PairResult, error) {
	res, err := AnalyzePair(stats.NewSentencePair("", referenceText, subjectText), s.opts.lambda)
	if err != nil {
		return PairResult{}, err
	}
	klDivergenceBits.WithLabelValues("pair").Observe(res.KLDivergenceBits)

	return res, nil
}

// TranslatePair translates sentence with both translators.
func (s *Service) TranslatePair(ctx context.Context, sentence string) (stats.SentencePair, error) {
	sentence, err := text.NormalizeSentence(sentence)
	if err != nil {
		return stats.SentencePair{}, fmt.Errorf("translate pair: %w: %w", stats.ErrInvalidInput, err)
	}

	ref, err := s.translate(ctx, "reference", s.reference, sentence)
	if err != nil {
		return stats.SentencePair{}, err
	}
	subj, err := s.translate(ctx, "subject", s.subject, sentence)
	if err != nil {
		return stats.SentencePair{}, err
	}

	return stats.NewSentencePair(sentence, ref, subj), nil
}

func (s *Service) translate(ctx context.Context, role string, t translate.Translator, sentence string) (string, error) {
	if s.opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := t.Translate(ctx, sentence)
	translationDuration.WithLabelValues(role).Observe(time.Since(start).Seconds())
	if err != nil {
		translationsTotal.WithLabelValues(role, "error").Inc()
		return "", fmt.Errorf("%s translator %s: %w: %w", role, t.Name(), ErrTranslation, err)
	}
	translationsTotal.WithLabelValues(role, "ok").Inc()

	return out, nil
}

// AnalyzeSentence translates sentence with both translators and compares
// the results.
func (s *Service) AnalyzeSentence(ctx context.Context, sentence string) (PairResult, error) {
	pair, err := s.TranslatePair(ctx, sentence)
	if err != nil {
		return PairResult{}, err
	}
	res, err := AnalyzePair(pair, s.opts.lambda)
	if err != nil {
		return PairResult{}, err
	}
	klDivergenceBits.WithLabelValues("pair").Observe(res.KLDivergenceBits)

	s.log.DebugContext(ctx, "sentence analyzed",
		slog.Int("reference_tokens", len(pair.Reference)),
		slog.Int("subject_tokens", len(pair.Subject)),
		slog.Float64("kl_bits", res.KLDivergenceBits),
	)

	return res, nil
}

// BuildCorpus translates every sentence, up to the configured concurrency
// at a time. Pairs keep the order of sentences. The first failure cancels
// the remaining translations.
func (s *Service) BuildCorpus(ctx context.Context, sentences []string) (stats.Corpus, error) {
	corpus := make(stats.Corpus, len(sentences))

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.concurrency > 0 {
		g.SetLimit(s.opts.concurrency)
	}
	for i, sentence := range sentences {
		g.Go(func() error {
			pair, err := s.TranslatePair(gctx, sentence)
			if err != nil {
				return fmt.Errorf("sentence %d: %w", i, err)
			}
			corpus[i] = pair
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build corpus: %w", err)
	}

	return corpus, nil
}

// AnalyzeCorpus runs the corpus statistics with the service's settings.
func (s *Service) AnalyzeCorpus(c stats.Corpus) (CorpusResult, error) {
	res, err := AnalyzeCorpus(c, CorpusOptions{
		Rounds: s.opts.rounds,
		TopK:   s.opts.topK,
		Lambda: s.opts.lambda,
		Rand:   stats.NewRand(s.opts.seed),
	})
	if err != nil {
		return CorpusResult{}, err
	}
	klDivergenceBits.WithLabelValues("corpus").Observe(res.KLDivergenceBits)
	corpusSentences.Observe(float64(res.Sentences))

	return res, nil
}

// RunExperiment draws n sentences from the sentence source, translates them
// and analyzes the resulting corpus.
func (s *Service) RunExperiment(ctx context.Context, n int) (CorpusResult, error) {
	if n <= 0 {
		return CorpusResult{}, fmt.Errorf("run experiment: sentence count %d: %w", n, stats.ErrInvalidInput)
	}

	start := time.Now()
	sentences, err := s.sentences.Sentences(ctx, n)
	if err != nil {
		return CorpusResult{}, fmt.Errorf("run experiment: %w: %w", ErrTranslation, err)
	}
	s.log.InfoContext(ctx, "translating sentences", slog.Int("requested", n), slog.Int("sentences", len(sentences)))

	corpus, err := s.BuildCorpus(ctx, sentences)
	if err != nil {
		return CorpusResult{}, fmt.Errorf("run experiment: %w", err)
	}

	res, err := s.AnalyzeCorpus(corpus)
	if err != nil {
		return CorpusResult{}, fmt.Errorf("run experiment: %w", err)
	}

	s.log.InfoContext(ctx, "experiment complete",
		slog.Int("sentences", res.Sentences),
		slog.Float64("kl_bits", res.KLDivergenceBits),
		slog.Float64("accuracy", res.AccuracyPointEstimate),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return res, nil
}
