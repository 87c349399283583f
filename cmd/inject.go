package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sitegrep/internal/injector"
	"github.com/ziadkadry99/sitegrep/internal/progress"
)

var (
	injectDryRun bool
	injectWatch  bool
	injectQuiet  bool
)

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Insert the highlight script into every HTML document",
	Long: `Walks the document root and inserts a <script> reference to the highlight
script before </body> (or </html>) of every document that lacks one. Each
modified document is backed up first. Documents that already reference the
script are left untouched, so running inject twice is safe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireRoot(); err != nil {
			return err
		}
		logger := newLogger(cfg, os.Stderr)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		inj := injector.New(injector.Options{
			Root:        cfg.Root,
			ScriptURL:   cfg.ScriptURL,
			Include:     cfg.Include,
			Exclude:     cfg.Exclude,
			Concurrency: cfg.MaxConcurrency,
			DryRun:      injectDryRun,
			Retention:   retentionFromConfig(cfg),
		}, logger)

		if !injectDryRun {
			journal, closeJournal, err := openJournal(cfg)
			if err != nil {
				logger.Warn().Err(err).Msg("journal unavailable, continuing without it")
			} else {
				defer closeJournal()
				inj.WithRecorder(journal)
			}
		}
		if !injectQuiet {
			inj.WithReporter(progress.NewReporter(os.Stderr, "Injecting"))
		}

		summary, err := inj.Run(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range summary.Files {
			printFileResult(cmd, r)
		}
		verb := "Injected"
		if summary.DryRun {
			verb = "Would inject"
		}
		fmt.Fprintf(out, "\n%s: %d  Already present: %d  Failed: %d  Total: %d\n",
			verb, summary.Injected, summary.AlreadyPresent, summary.Failed, summary.Total())

		if !injector.AssetOnDisk(cfg.Root, cfg.ScriptURL) {
			fmt.Fprintf(os.Stderr, "Warning: %s does not exist under %s.\n", cfg.ScriptURL, cfg.Root)
			fmt.Fprintf(os.Stderr, "`sitegrep serve` provides it; other web servers need `sitegrep highlight export`.\n")
		}

		if !injectWatch {
			return nil
		}
		fmt.Fprintf(os.Stderr, "Watching %s for changes (Ctrl+C to stop)...\n", cfg.Root)
		return inj.Watch(ctx, func(r injector.FileResult) {
			printFileResult(cmd, r)
		})
	},
}

func printFileResult(cmd *cobra.Command, r injector.FileResult) {
	out := cmd.OutOrStdout()
	switch r.Status {
	case injector.StatusFailed:
		fmt.Fprintf(out, "%-16s %s: %v\n", r.Status, r.RelPath, r.Err)
	case injector.StatusInjected:
		if r.BackupPath != "" {
			fmt.Fprintf(out, "%-16s %s (backup %s)\n", r.Status, r.RelPath, r.BackupPath)
		} else {
			fmt.Fprintf(out, "%-16s %s\n", r.Status, r.RelPath)
		}
		for _, b := range r.Pruned {
			fmt.Fprintf(out, "%-16s %s\n", "pruned", b.Path)
		}
	default:
		fmt.Fprintf(out, "%-16s %s\n", r.Status, r.RelPath)
	}
}

func init() {
	injectCmd.Flags().BoolVar(&injectDryRun, "dry-run", false, "report what would change without writing")
	injectCmd.Flags().BoolVar(&injectWatch, "watch", false, "keep running and inject new or modified documents")
	injectCmd.Flags().BoolVarP(&injectQuiet, "quiet", "q", false, "disable the progress bar")
	rootCmd.AddCommand(injectCmd)
}
