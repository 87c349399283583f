package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sitegrep/internal/search"
)

var (
	searchJSON  bool
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search the document root from the command line",
	Long: `Scans every document under the root for the keyword, case-insensitively,
and prints one line per match with its highlight link.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if searchLimit > 0 {
			cfg.Search.MaxResults = searchLimit
		}
		logger := newLogger(cfg, os.Stderr)
		keyword := strings.Join(args, " ")

		res, err := searcherFromConfig(cfg, logger).Search(context.Background(), keyword)
		var de *search.DegradedError
		if err != nil && !errors.As(err, &de) {
			return err
		}

		out := cmd.OutOrStdout()
		if searchJSON {
			enc := json.NewEncoder(out)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}

		if de != nil {
			fmt.Fprintf(os.Stderr, "Warning: search degraded: %v\n", de.Kind)
		}
		if res.Count() == 0 {
			fmt.Fprintf(out, "No documents contain %q.\n", keyword)
			return nil
		}
		for _, m := range res.Matches {
			fmt.Fprintf(out, "%s:%d: %s\n", m.FilePath, m.LineNumber, m.Content)
			fmt.Fprintf(out, "    %s\n", m.HighlightURL)
		}
		fmt.Fprintf(out, "\n%d matches in %d files scanned (%s)\n", res.Count(), res.FilesScanned, res.Elapsed.Round(1e6))
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print the result as JSON")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of matches (0 = config value)")
	rootCmd.AddCommand(searchCmd)
}
