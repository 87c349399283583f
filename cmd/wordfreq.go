package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sitegrep/internal/wordfreq"
)

var (
	wordfreqMinFreq int
	wordfreqTop     int
	wordfreqOutput  string
)

var wordfreqCmd = &cobra.Command{
	Use:   "wordfreq",
	Short: "Report the most frequent terms across the documents",
	Long: `Extracts the visible text of every document, segments it into terms and
prints the most frequent ones. The full ranking is written as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireRoot(); err != nil {
			return err
		}
		logger := newLogger(cfg, os.Stderr)

		report, err := wordfreq.Analyze(context.Background(), wordfreq.Options{
			Root:        cfg.Root,
			Include:     cfg.Include,
			Exclude:     cfg.Exclude,
			MinFreq:     wordfreqMinFreq,
			TopN:        wordfreqTop,
			Concurrency: cfg.MaxConcurrency,
		}, logger)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Documents: %d  Distinct terms: %d\n\n", report.Files, report.DistinctTerms)
		report.WriteTable(out)

		if wordfreqOutput == "" || wordfreqOutput == "-" {
			if wordfreqOutput == "-" {
				return report.WriteJSON(out)
			}
			return nil
		}
		f, err := os.Create(wordfreqOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", wordfreqOutput, err)
		}
		if err := report.WriteJSON(f); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", wordfreqOutput, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nFull ranking written to %s\n", wordfreqOutput)
		return nil
	},
}

func init() {
	wordfreqCmd.Flags().IntVar(&wordfreqMinFreq, "min-freq", wordfreq.DefaultMinFreq, "drop terms seen fewer times than this")
	wordfreqCmd.Flags().IntVar(&wordfreqTop, "top", wordfreq.DefaultTopN, "number of terms to keep")
	wordfreqCmd.Flags().StringVarP(&wordfreqOutput, "output", "o", "word_frequency.json", "JSON output file (\"-\" for stdout, \"\" to skip)")
	rootCmd.AddCommand(wordfreqCmd)
}
