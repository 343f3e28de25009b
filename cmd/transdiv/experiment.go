package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/example/go-transdiv/internal/analysis"
	"github.com/example/go-transdiv/internal/report"
	"github.com/example/go-transdiv/internal/text"
	"github.com/spf13/cobra"
)

func newExperimentCmd() *cobra.Command {
	var numSentences int
	var input string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "experiment",
		Short: "Translate a batch of generated sentences and analyze the corpus",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if numSentences < 1 || numSentences > cfg.Server.MaxSentences {
				return fmt.Errorf("--sentences must be between 1 and %d", cfg.Server.MaxSentences)
			}

			var sentences []string
			if input != "" {
				sentences, err = readSentences(cmd.InOrStdin(), input, cfg.Server.MaxSentences)
				if err != nil {
					return err
				}
			}

			svc, err := buildService(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer closeService(svc)

			var res analysis.CorpusResult
			if sentences != nil {
				res, err = analyzeSentences(cmd.Context(), svc, sentences)
			} else {
				res, err = svc.RunExperiment(cmd.Context(), numSentences)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					analysis.CorpusResult
					UsingRealAPIs bool `json:"usingRealAPIs"`
				}{res, svc.UsingRealProviders()})
			}

			return report.RenderCorpus(cmd.OutOrStdout(), res, svc.UsingRealProviders())
		},
	}

	cmd.Flags().IntVar(&numSentences, "sentences", 20, "Number of sentences to generate and translate")
	cmd.Flags().StringVar(&input, "input", "", "Read source sentences from a text file ('-' for stdin) instead of generating them")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the result as JSON")

	return cmd
}

// readSentences splits the text at path, or stdin for "-", into at most
// limit sentences.
func readSentences(stdin io.Reader, path string, limit int) ([]string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	sentences := text.SplitSentences(string(data))
	if len(sentences) == 0 {
		return nil, fmt.Errorf("read input: %w", text.ErrEmptyText)
	}
	if len(sentences) > limit {
		return nil, fmt.Errorf("read input: %d sentences exceeds the limit of %d", len(sentences), limit)
	}

	return sentences, nil
}

func analyzeSentences(ctx context.Context, svc *analysis.Service, sentences []string) (analysis.CorpusResult, error) {
	corpus, err := svc.BuildCorpus(ctx, sentences)
	if err != nil {
		return analysis.CorpusResult{}, err
	}

	return svc.AnalyzeCorpus(corpus)
}
