// Package doctor provides environment preflight checks for transdiv.
package doctor

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/example/go-transdiv/internal/stats"
	"github.com/example/go-transdiv/internal/text"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// Mode is the normalized translate mode (auto, real or mock).
	Mode string
	// GoogleCredentialsFile is the service account JSON for Google Translate.
	GoogleCredentialsFile string
	// OpenAIAPIKey authenticates the OpenAI translator and sentence source.
	OpenAIAPIKey string
	// LoadSentenceBank loads the configured sentence bank and returns its
	// size. Nil skips the check.
	LoadSentenceBank func() (int, error)
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
//
// Missing credentials fail only in real mode; in auto mode they mean the
// mock translators will be used.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	fmt.Fprintf(w, "%s translate mode: %s\n", PassMark, cfg.Mode)

	// ---- provider credentials --------------------------------------------
	if cfg.Mode == "mock" {
		fmt.Fprintf(w, "%s google credentials: skipped (mock mode)\n", PassMark)
		fmt.Fprintf(w, "%s openai api key: skipped (mock mode)\n", PassMark)
	} else {
		checkCredentialsFile(&res, w, cfg.Mode, cfg.GoogleCredentialsFile)
		checkAPIKey(&res, w, cfg.Mode, cfg.OpenAIAPIKey)
	}

	// ---- sentence bank ----------------------------------------------------
	if cfg.LoadSentenceBank != nil {
		n, err := cfg.LoadSentenceBank()
		switch {
		case err != nil:
			res.fail(fmt.Sprintf("sentence bank: %v", err))
			fmt.Fprintf(w, "%s sentence bank: %v\n", FailMark, err)
		case n == 0:
			res.fail("sentence bank: no sentences")
			fmt.Fprintf(w, "%s sentence bank: empty\n", FailMark)
		default:
			fmt.Fprintf(w, "%s sentence bank: %d sentences\n", PassMark, n)
		}
	}

	// ---- statistics self-check -------------------------------------------
	if err := SelfCheck(); err != nil {
		res.fail(fmt.Sprintf("statistics self-check: %v", err))
		fmt.Fprintf(w, "%s statistics self-check: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s statistics self-check: ok\n", PassMark)
	}

	return res
}

func checkCredentialsFile(res *Result, w io.Writer, mode, path string) {
	if strings.TrimSpace(path) == "" {
		if mode == "real" {
			res.fail("google credentials: not configured")
			fmt.Fprintf(w, "%s google credentials: not configured\n", FailMark)
			return
		}
		fmt.Fprintf(w, "%s google credentials: not configured (mock reference translator)\n", PassMark)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		res.fail(fmt.Sprintf("google credentials %q: %v", path, err))
		fmt.Fprintf(w, "%s google credentials %s: not readable\n", FailMark, path)
		return
	}
	_ = f.Close()
	fmt.Fprintf(w, "%s google credentials: %s\n", PassMark, path)
}

func checkAPIKey(res *Result, w io.Writer, mode, key string) {
	if strings.TrimSpace(key) == "" {
		if mode == "real" {
			res.fail("openai api key: not configured")
			fmt.Fprintf(w, "%s openai api key: not configured\n", FailMark)
			return
		}
		fmt.Fprintf(w, "%s openai api key: not configured (mock subject translator)\n", PassMark)
		return
	}
	fmt.Fprintf(w, "%s openai api key: set (%s)\n", PassMark, maskKey(key))
}

// maskKey keeps the first four characters of key.
func maskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}

// SelfCheck runs the estimator on a known pair and verifies that
// D(P‖P) = 0 and D(P‖Q) matches its closed form of 1/7 bit.
func SelfCheck() error {
	ref, subj := text.Tokenize("the cat sat"), text.Tokenize("the dog sat")
	vocab := text.BuildVocabulary(ref, subj)

	p, err := stats.Estimate(ref, vocab, stats.DefaultLambda)
	if err != nil {
		return err
	}
	q, err := stats.Estimate(subj, vocab, stats.DefaultLambda)
	if err != nil {
		return err
	}

	self, err := stats.KLDivergence(p, p)
	if err != nil {
		return err
	}
	if math.Abs(self) > 1e-12 {
		return fmt.Errorf("D(P||P) = %g, want 0", self)
	}

	kl, err := stats.KLDivergence(p, q)
	if err != nil {
		return err
	}
	if math.Abs(kl-1.0/7) > 1e-9 {
		return fmt.Errorf("D(P||Q) = %g, want %g", kl, 1.0/7)
	}

	return nil
}
