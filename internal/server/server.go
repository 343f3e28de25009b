package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/go-transdiv/internal/analysis"
	"github.com/example/go-transdiv/internal/config"
	"github.com/example/go-transdiv/internal/stats"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// Analyzer runs the divergence analyses behind the API.
type Analyzer interface {
	AnalyzeSentence(ctx context.Context, sentence string) (analysis.PairResult, error)
	AnalyzeTexts(referenceText, subjectText string) (analysis.PairResult, error)
	RunExperiment(ctx context.Context, n int) (analysis.CorpusResult, error)
	UsingRealProviders() bool
}

// DefaultExperimentSentences is used when a request omits numSentences.
const DefaultExperimentSentences = 100

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	maxSentences   int
	workers        int
	requestTimeout time.Duration
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   4096,
		maxSentences:   500,
		workers:        4,
		requestTimeout: 120 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed length in bytes of each text
// field.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithMaxSentences sets the largest accepted numSentences for experiments.
func WithMaxSentences(n int) Option {
	return func(o *options) { o.maxSentences = n }
}

// WithWorkers sets the maximum number of concurrent translating requests.
// Zero disables throttling.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request analysis deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

// handler holds the dependencies needed to serve HTTP requests.
type handler struct {
	analyzer Analyzer
	opts     options
	sem      chan struct{} // semaphore for worker pool
	validate *validator.Validate
	log      *slog.Logger
}

// NewHandler returns an http.Handler that serves /health, /metrics,
// GET /api/translate, POST /api/experiment and POST /api/analyze.
func NewHandler(analyzer Analyzer, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		analyzer: analyzer,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/api/translate", instrument("/api/translate", http.HandlerFunc(h.handleTranslate)))
	mux.Handle("/api/experiment", instrument("/api/experiment", http.HandlerFunc(h.handleExperiment)))
	mux.Handle("/api/analyze", instrument("/api/analyze", http.HandlerFunc(h.handleAnalyze)))

	return withRequestID(mux)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type translateResponse struct {
	Source string `json:"source"`
	analysis.PairResult
	TokenMatchAccuracy float64        `json:"tokenMatchAccuracy"`
	TokenMatchCI       stats.Interval `json:"tokenMatchCI"`
	UsingRealAPIs      bool           `json:"usingRealAPIs"`
	RequestID          string         `json:"requestId"`
}

func (h *handler) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sentence := strings.TrimSpace(r.URL.Query().Get("sentence"))
	if sentence == "" {
		writeError(w, http.StatusBadRequest, "sentence query parameter is required")
		return
	}
	if len(sentence) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("sentence exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	res, err := h.analyzer.AnalyzeSentence(ctx, sentence)
	durationMS := time.Since(start).Milliseconds()
	if err != nil {
		h.writeAnalysisError(w, r, "translation analysis", err,
			slog.Int("text_len", len(sentence)),
			slog.Int64("duration_ms", durationMS),
		)
		return
	}

	h.log.InfoContext(r.Context(), "translation analysis complete",
		slog.String("request_id", requestIDFrom(r.Context())),
		slog.Int("text_len", len(sentence)),
		slog.Int64("duration_ms", durationMS),
		slog.Float64("kl_bits", res.KLDivergenceBits),
	)

	writeJSON(w, http.StatusOK, translateResponse{
		Source:             sentence,
		PairResult:         res,
		TokenMatchAccuracy: res.TokenMatch.Accuracy,
		TokenMatchCI:       res.TokenMatch.CI,
		UsingRealAPIs:      h.analyzer.UsingRealProviders(),
		RequestID:          requestIDFrom(r.Context()),
	})
}

type experimentRequest struct {
	NumSentences *int `json:"numSentences"`
}

type experimentResponse struct {
	analysis.CorpusResult
	UsingRealAPIs bool   `json:"usingRealAPIs"`
	RequestID     string `json:"requestId"`
}

func (h *handler) handleExperiment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req experimentRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	n := DefaultExperimentSentences
	if req.NumSentences != nil {
		n = *req.NumSentences
	} else if n > h.opts.maxSentences {
		n = h.opts.maxSentences
	}
	if err := h.validate.Var(n, fmt.Sprintf("min=1,max=%d", h.opts.maxSentences)); err != nil {
		writeErrorDetails(w, http.StatusBadRequest,
			fmt.Sprintf("numSentences must be between 1 and %d", h.opts.maxSentences), err.Error())
		return
	}

	release, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer release()

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	res, err := h.analyzer.RunExperiment(ctx, n)
	durationMS := time.Since(start).Milliseconds()
	if err != nil {
		h.writeAnalysisError(w, r, "experiment", err,
			slog.Int("num_sentences", n),
			slog.Int64("duration_ms", durationMS),
		)
		return
	}

	h.log.InfoContext(r.Context(), "experiment complete",
		slog.String("request_id", requestIDFrom(r.Context())),
		slog.Int("num_sentences", n),
		slog.Int("sentences", res.Sentences),
		slog.Int64("duration_ms", durationMS),
		slog.Float64("kl_bits", res.KLDivergenceBits),
	)

	writeJSON(w, http.StatusOK, experimentResponse{
		CorpusResult:  res,
		UsingRealAPIs: h.analyzer.UsingRealProviders(),
		RequestID:     requestIDFrom(r.Context()),
	})
}

type analyzeRequest struct {
	Reference string `json:"reference" validate:"required_without=Subject"`
	Subject   string `json:"subject" validate:"required_without=Reference"`
}

type analyzeResponse struct {
	analysis.PairResult
	RequestID string `json:"requestId"`
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req analyzeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "reference or subject is required", err.Error())
		return
	}
	if len(req.Reference) > h.opts.maxTextBytes || len(req.Subject) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	res, err := h.analyzer.AnalyzeTexts(req.Reference, req.Subject)
	if err != nil {
		h.writeAnalysisError(w, r, "pair analysis", err,
			slog.Int("reference_len", len(req.Reference)),
			slog.Int("subject_len", len(req.Subject)),
		)
		return
	}

	writeJSON(w, http.StatusOK, analyzeResponse{PairResult: res, RequestID: requestIDFrom(r.Context())})
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst
// at its zero value.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(2*h.opts.maxTextBytes+1024))
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		case errors.Is(err, io.EOF):
			return true
		default:
			writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		}
		return false
	}

	return true
}

// acquire takes a worker slot, honouring context cancellation while
// waiting. The returned release must be called when ok.
func (h *handler) acquire(w http.ResponseWriter, r *http.Request) (release func(), ok bool) {
	if h.sem == nil {
		return func() {}, true
	}
	select {
	case h.sem <- struct{}{}:
		return func() { <-h.sem }, true
	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
		return nil, false
	}
}

func (h *handler) writeAnalysisError(w http.ResponseWriter, r *http.Request, what string, err error, attrs ...any) {
	attrs = append(attrs,
		slog.String("request_id", requestIDFrom(r.Context())),
		slog.String("error", err.Error()),
	)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		h.log.WarnContext(r.Context(), what+" timed out", attrs...)
		writeErrorDetails(w, http.StatusGatewayTimeout, what+" timed out", err.Error())
	case errors.Is(err, stats.ErrInvalidInput):
		h.log.InfoContext(r.Context(), what+" rejected", attrs...)
		writeErrorDetails(w, http.StatusUnprocessableEntity, "invalid input", err.Error())
	case errors.Is(err, analysis.ErrTranslation):
		h.log.ErrorContext(r.Context(), what+" failed", attrs...)
		writeErrorDetails(w, http.StatusBadGateway, "translation provider failed", err.Error())
	default:
		h.log.ErrorContext(r.Context(), what+" failed", attrs...)
		writeErrorDetails(w, http.StatusInternalServerError, what+" failed", err.Error())
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// writeJSON encodes v before committing status, so a value that cannot be
// encoded (such as a non-finite float) becomes a 500 instead of a truncated
// success response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		slog.Default().Error("encode response", slog.String("error", err.Error()))
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{
			Error:     "failed to encode response",
			RequestID: w.Header().Get(RequestIDHeader),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorDetails(w, status, msg, "")
}

func writeErrorDetails(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Details:   details,
		RequestID: w.Header().Get(RequestIDHeader),
	})
}

// ---------------------------------------------------------------------------
// Server
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	analyzer        Analyzer
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

func New(cfg config.Config, analyzer Analyzer) *Server {
	timeout := 30 * time.Second
	if cfg.Server.ShutdownTimeout > 0 {
		timeout = time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	}

	return &Server{
		cfg:             cfg,
		analyzer:        analyzer,
		shutdownTimeout: timeout,
		logger:          slog.Default(),
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

func (s *Server) Start(ctx context.Context) error {
	if s.analyzer == nil {
		return errors.New("server: analyzer is required")
	}

	h := NewHandler(s.analyzer,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithMaxSentences(s.cfg.Server.MaxSentences),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithLogger(s.logger),
	)

	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	s.logger.InfoContext(ctx, "server listening",
		slog.String("addr", s.cfg.Server.ListenAddr),
		slog.Bool("real_providers", s.analyzer.UsingRealProviders()),
	)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

func ProbeHTTP(addr string) error {
	resp, err := http.Get("http://" + addr + "/health") //nolint:noctx
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status: %s", resp.Status)
	}
	return nil
}
