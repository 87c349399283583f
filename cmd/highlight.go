package cmd

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sitegrep/internal/highlight"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight",
	Short: "Manage the client-side highlight script",
}

var highlightExportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Write highlight.js into the document root",
	Args:  cobra.MaximumNArgs(1),
	Long: `Writes the embedded highlight script to the location script_url points at
inside the document root, so documents served by another web server can
load it. Pass a directory to write it somewhere else.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var dir string
		if len(args) == 1 {
			dir = args[0]
		} else {
			if !strings.HasPrefix(cfg.ScriptURL, "/") {
				return fmt.Errorf("script_url %q is not a root-relative path; pass a directory", cfg.ScriptURL)
			}
			if base := path.Base(cfg.ScriptURL); base != highlight.FileName {
				fmt.Fprintf(os.Stderr, "Warning: script_url names %s, the exported file is %s\n", base, highlight.FileName)
			}
			dir = filepath.Join(cfg.Root, filepath.FromSlash(path.Dir(cfg.ScriptURL)))
		}

		written, size, err := highlight.Export(dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%.2f KB)\n", written, float64(size)/1024)
		return nil
	},
}

func init() {
	highlightCmd.AddCommand(highlightExportCmd)
	rootCmd.AddCommand(highlightCmd)
}
