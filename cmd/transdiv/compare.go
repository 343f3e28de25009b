package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/example/go-transdiv/internal/analysis"
	"github.com/example/go-transdiv/internal/report"
	"github.com/spf13/cobra"
)

func newCompareCmd() *cobra.Command {
	var referenceText string
	var subjectText string
	var sentence string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare two translations of one sentence",
		Long: "Compare a subject translation against a reference translation.\n" +
			"Pass --reference and --subject to analyze given texts, or --sentence\n" +
			"to translate an English sentence with both providers first.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			// An explicitly empty side is a valid, degenerate comparison.
			given := cmd.Flags().Changed("reference") || cmd.Flags().Changed("subject")
			switch {
			case given && sentence != "":
				return errors.New("use either --sentence or --reference/--subject, not both")
			case !given && strings.TrimSpace(sentence) == "":
				return errors.New("one of --sentence or --reference/--subject is required")
			}

			svc, err := buildService(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}
			defer closeService(svc)

			var res analysis.PairResult
			if given {
				res, err = svc.AnalyzeTexts(referenceText, subjectText)
			} else {
				res, err = svc.AnalyzeSentence(cmd.Context(), sentence)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					Source string `json:"source,omitempty"`
					analysis.PairResult
					UsingRealAPIs bool `json:"usingRealAPIs"`
				}{sentence, res, !given && svc.UsingRealProviders()})
			}

			return report.RenderPair(cmd.OutOrStdout(), sentence, res)
		},
	}

	cmd.Flags().StringVar(&referenceText, "reference", "", "Reference translation text")
	cmd.Flags().StringVar(&subjectText, "subject", "", "Subject translation text")
	cmd.Flags().StringVar(&sentence, "sentence", "", "English sentence to translate with both providers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the result as JSON")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
