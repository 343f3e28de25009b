// Package bench provides timing primitives for the transdiv bench command.
package bench

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and output size of a single analysis run.
type RunResult struct {
	Index            int
	Cold             bool // true for the first run (cold connections and caches)
	Duration         time.Duration
	Tokens           int
	KLDivergenceBits float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// An empty slice yields zero Stats.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		mn = min(mn, d)
		mx = max(mx, d)
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// Durations extracts the run durations in order.
func Durations(runs []RunResult) []time.Duration {
	out := make([]time.Duration, len(runs))
	for i, r := range runs {
		out[i] = r.Duration
	}
	return out
}

// TokensPerSecond returns tokens / dur, or 0 for a non-positive duration.
func TokensPerSecond(tokens int, dur time.Duration) float64 {
	if dur <= 0 {
		return 0
	}
	return float64(tokens) / dur.Seconds()
}

// ---------------------------------------------------------------------------
// Runner
// ---------------------------------------------------------------------------

// RunFunc performs one measured operation and reports how many tokens it
// produced and the divergence it measured.
type RunFunc func(ctx context.Context) (tokens int, klBits float64, err error)

// Run calls fn runs times in sequence and times each call. The first run is
// marked cold. It stops at the first error.
func Run(ctx context.Context, runs int, fn RunFunc) ([]RunResult, error) {
	if runs < 1 {
		return nil, errors.New("runs must be at least 1")
	}

	results := make([]RunResult, 0, runs)
	for i := range runs {
		start := time.Now()
		tokens, kl, err := fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}

		results = append(results, RunResult{
			Index:            i,
			Cold:             i == 0,
			Duration:         time.Since(start),
			Tokens:           tokens,
			KLDivergenceBits: kl,
		})
	}

	return results, nil
}

// ---------------------------------------------------------------------------
// Latency threshold gate
// ---------------------------------------------------------------------------

// CheckLatencyThreshold returns an error if mean exceeds thresholdMS
// milliseconds. A threshold of 0 disables the gate.
func CheckLatencyThreshold(mean time.Duration, thresholdMS float64) error {
	if thresholdMS <= 0 {
		return nil
	}
	if ms := float64(mean) / float64(time.Millisecond); ms > thresholdMS {
		return fmt.Errorf("mean latency %.1fms exceeds threshold %.1fms", ms, thresholdMS)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %8s  %10s  %10s\n", "Run", "Cold", "MS", "Tokens", "Tok/s", "KL(bits)")
	fmt.Fprintln(sb, strings.Repeat("-", 58))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %8d  %10.1f  %10.4f\n",
			r.Index+1,
			cold,
			float64(r.Duration.Milliseconds()),
			r.Tokens,
			TokensPerSecond(r.Tokens, r.Duration),
			r.KLDivergenceBits,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 58))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (min)\n", "", "", float64(stats.Min.Milliseconds()))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (mean)\n", "", "", float64(stats.Mean.Milliseconds()))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  (max)\n", "", "", float64(stats.Max.Milliseconds()))

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index            int     `json:"index"`
	Cold             bool    `json:"cold"`
	DurationMS       float64 `json:"duration_ms"`
	Tokens           int     `json:"tokens"`
	TokensPerSecond  float64 `json:"tokens_per_second"`
	KLDivergenceBits float64 `json:"kl_divergence_bits"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  float64(stats.Min.Milliseconds()),
			MeanMS: float64(stats.Mean.Milliseconds()),
			MaxMS:  float64(stats.Max.Milliseconds()),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:            r.Index,
			Cold:             r.Cold,
			DurationMS:       float64(r.Duration.Milliseconds()),
			Tokens:           r.Tokens,
			TokensPerSecond:  TokensPerSecond(r.Tokens, r.Duration),
			KLDivergenceBits: r.KLDivergenceBits,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
