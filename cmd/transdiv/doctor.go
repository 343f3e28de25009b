package main

import (
	"errors"
	"fmt"

	"github.com/example/go-transdiv/internal/doctor"
	"github.com/example/go-transdiv/internal/translate"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run provider, sentence bank and statistics checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			result := doctor.Run(doctor.Config{
				Mode:                  cfg.Translate.Mode,
				GoogleCredentialsFile: cfg.Translate.GoogleCredentialsFile,
				OpenAIAPIKey:          cfg.Translate.OpenAIAPIKey,
				LoadSentenceBank: func() (int, error) {
					bank, err := translate.LoadSentenceBank(cfg.Translate.SentenceBank)
					if err != nil {
						return 0, err
					}
					return len(bank.All()), nil
				},
			}, out)

			if result.Failed() {
				for _, f := range result.Failures() {
					// #nosec G705 -- Writes plain diagnostic text to stderr for CLI output, not HTML rendering.
					fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "doctor checks passed")

			return nil
		},
	}

	return cmd
}
