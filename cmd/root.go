package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sitegrep/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sitegrep",
	Short: "Live keyword search and in-page highlighting for static HTML sites",
	Long: `sitegrep searches a directory of HTML documents for a keyword on every
request, without building an index, and links each match to a page that
highlights the keyword in place. It injects its highlight script into the
documents, serves search results over HTTP, and exposes the same search
to AI agents via MCP.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
