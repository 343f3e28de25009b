package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	translationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transdiv_translations_total",
		Help: "Translator calls by provider role and result",
	}, []string{"role", "result"})

	translationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transdiv_translation_duration_seconds",
		Help:    "Translator call latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	}, []string{"role"})

	klDivergenceBits = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transdiv_kl_divergence_bits",
		Help:    "KL divergence of subject from reference, per analysis",
		Buckets: []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
	}, []string{"scope"})

	corpusSentences = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "transdiv_corpus_sentences",
		Help:    "Sentence pairs per corpus analysis",
		Buckets: []float64{1, 10, 25, 50, 100, 250, 500},
	})
)
