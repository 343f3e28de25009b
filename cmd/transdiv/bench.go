package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/go-transdiv/internal/bench"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		sentence         string
		runs             int
		format           string
		latencyThreshold float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark translate-and-analyze latency for one sentence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if strings.TrimSpace(sentence) == "" {
				return fmt.Errorf("--sentence is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if format != "table" && format != "json" {
				return fmt.Errorf("--format must be 'table' or 'json'")
			}

			svc, err := buildService(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer closeService(svc)

			results, err := bench.Run(cmd.Context(), runs, func(ctx context.Context) (int, float64, error) {
				res, err := svc.AnalyzeSentence(ctx, sentence)
				if err != nil {
					return 0, 0, err
				}
				return len(res.ReferenceTokens) + len(res.SubjectTokens), res.KLDivergenceBits, nil
			})
			if err != nil {
				return err
			}

			stats := bench.ComputeStats(bench.Durations(results))

			switch format {
			case "json":
				bench.FormatJSON(results, stats, cmd.OutOrStdout())
			default:
				bench.FormatTable(results, stats, cmd.OutOrStdout())
			}

			return bench.CheckLatencyThreshold(stats.Mean, latencyThreshold)
		},
	}

	cmd.Flags().StringVar(&sentence, "sentence", "", "English sentence to translate for each run (required)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table|json")
	cmd.Flags().Float64Var(&latencyThreshold, "max-latency-ms", 0,
		"Exit non-zero if mean latency exceeds this many milliseconds (0 = disabled)")

	return cmd
}
