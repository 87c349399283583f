package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sitegrep/internal/audit"
	"github.com/ziadkadry99/sitegrep/internal/config"
	"github.com/ziadkadry99/sitegrep/internal/injector"
)

var (
	pruneKeep   int
	pruneMaxAge time.Duration
)

var backupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Inspect, prune and restore injection backups",
}

var backupsListCmd = &cobra.Command{
	Use:   "list [document]...",
	Short: "List backups under the document root, or of the given documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireRoot(); err != nil {
			return err
		}

		var backups []injector.Backup
		if len(args) == 0 {
			backups, err = injector.List(context.Background(), cfg.Root)
			if err != nil {
				return err
			}
		}
		for _, arg := range args {
			found, err := injector.ListFor(documentPath(cfg.Root, arg))
			if err != nil {
				return fmt.Errorf("%s: %w", arg, err)
			}
			backups = append(backups, found...)
		}
		out := cmd.OutOrStdout()
		if len(backups) == 0 {
			fmt.Fprintln(out, "No backups found.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DOCUMENT\tTAKEN\tSIZE\tBACKUP")
		for _, b := range backups {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
				relTo(cfg.Root, b.Original), b.Taken.Format(time.DateTime), b.Size, filepath.Base(b.Path))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%d backups\n", len(backups))
		return nil
	},
}

var backupsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete backups outside the retention policy",
	Long: `Deletes backups that exceed the retention policy: more than --keep per
document (newest kept), or older than --max-age. Flags override the
backup section of the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireRoot(); err != nil {
			return err
		}
		logger := newLogger(cfg, os.Stderr)

		retention := retentionFromConfig(cfg)
		if cmd.Flags().Changed("keep") {
			retention.Keep = pruneKeep
		}
		if cmd.Flags().Changed("max-age") {
			retention.MaxAge = pruneMaxAge
		}
		if !retention.Enabled() {
			return errors.New("no retention policy: set backup.keep or backup.max_age, or pass --keep / --max-age")
		}

		removed, err := injector.PruneAll(context.Background(), cfg.Root, retention, time.Now())
		out := cmd.OutOrStdout()
		for _, b := range removed {
			fmt.Fprintf(out, "pruned  %s\n", relTo(cfg.Root, b.Path))
		}
		fmt.Fprintf(out, "\n%d backups removed\n", len(removed))

		if len(removed) > 0 {
			journalEntry(cfg, logger, audit.Entry{
				ActorType: audit.ActorUser,
				ActorID:   "backups prune",
				Action:    audit.ActionBackupPruned,
				Target:    cfg.Root,
				Summary:   fmt.Sprintf("keep=%d max_age=%s", retention.Keep, retention.MaxAge),
				Count:     len(removed),
			})
		}
		return err
	},
}

var backupsRestoreCmd = &cobra.Command{
	Use:   "restore <document>...",
	Short: "Restore documents from their newest backup",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg, os.Stderr)
		out := cmd.OutOrStdout()

		var errs []error
		for _, arg := range args {
			path := documentPath(cfg.Root, arg)
			b, err := injector.Restore(path)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", arg, err))
				continue
			}
			fmt.Fprintf(out, "restored  %s from %s\n", arg, filepath.Base(b.Path))
			journalEntry(cfg, logger, audit.Entry{
				ActorType: audit.ActorUser,
				ActorID:   "backups restore",
				Action:    audit.ActionBackupRestored,
				Target:    path,
				Detail:    b.Path,
				Count:     1,
			})
		}
		return errors.Join(errs...)
	},
}

// journalEntry records e, logging rather than failing when the journal is
// unavailable.
func journalEntry(cfg *config.Config, logger zerolog.Logger, e audit.Entry) {
	journal, closeJournal, err := openJournal(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("journal unavailable")
		return
	}
	defer closeJournal()
	if err := journal.Log(context.Background(), e); err != nil {
		logger.Warn().Err(err).Msg("journal write failed")
	}
}

// documentPath resolves a command-line document argument: an existing path
// as given, otherwise relative to the root.
func documentPath(root, arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	return filepath.Join(root, arg)
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

func init() {
	backupsPruneCmd.Flags().IntVar(&pruneKeep, "keep", 0, "backups to keep per document (0 = no count limit)")
	backupsPruneCmd.Flags().DurationVar(&pruneMaxAge, "max-age", 0, "delete backups older than this (e.g. 720h)")

	backupsCmd.AddCommand(backupsListCmd)
	backupsCmd.AddCommand(backupsPruneCmd)
	backupsCmd.AddCommand(backupsRestoreCmd)
	rootCmd.AddCommand(backupsCmd)
}
