package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sitegrep/internal/audit"
)

var (
	historyAction string
	historyRun    string
	historyTarget string
	historySince  time.Duration
	historyLimit  int
	historyJSON   bool
	historyPrune  time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the operations journal",
	Long:  `Lists recorded injection runs, per-file injections, backup operations and served searches, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		journal, closeJournal, err := openJournal(cfg)
		if err != nil {
			return err
		}
		defer closeJournal()

		out := cmd.OutOrStdout()
		if historyPrune > 0 {
			n, err := journal.DeleteBefore(context.Background(), time.Now().Add(-historyPrune))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d journal entries older than %s\n", n, historyPrune)
			return nil
		}
		if historyRun != "" && !historyJSON {
			report, err := journal.Run(context.Background(), historyRun)
			if err != nil {
				return fmt.Errorf("run %s: %w", historyRun, err)
			}
			for action, n := range report.Counts {
				fmt.Fprintf(out, "%-16s %d\n", action, n)
			}
			fmt.Fprintln(out)
		}

		filter := audit.QueryFilter{
			Action: audit.Action(historyAction),
			RunID:  historyRun,
			Target: historyTarget,
			Limit:  historyLimit,
		}
		if historySince > 0 {
			since := time.Now().Add(-historySince)
			filter.Since = &since
		}

		entries, err := journal.Query(context.Background(), filter)
		if err != nil {
			return err
		}

		if historyJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No journal entries.")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tACTION\tACTOR\tTARGET\tCOUNT\tSUMMARY")
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
				e.Timestamp.Local().Format(time.DateTime), e.Action, e.ActorID, e.Target, e.Count, e.Summary)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyAction, "action", "", "filter by action (inject_run, file_injected, inject_failed, backup_pruned, backup_restored, search)")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "filter by injection run id")
	historyCmd.Flags().StringVar(&historyTarget, "target", "", "filter by document path or keyword")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only entries newer than this (e.g. 24h)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 50, "maximum entries to show")
	historyCmd.Flags().DurationVar(&historyPrune, "prune-older-than", 0, "delete entries older than this instead of listing")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print entries as JSON")
	rootCmd.AddCommand(historyCmd)
}
