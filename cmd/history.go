// =============================================================================
// Timesheet & Invoice Merger - History Command
// =============================================================================
//
// The 'history' command lists recent runs from the run journal, or the
// per-client results of one run with --run.
//
// COMMAND USAGE:
//   tsmerge history [--limit 10]
//   tsmerge history --run <run id>
//
// =============================================================================

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/journal"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

var historyLimit int
var historyRunID string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the run journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := mainConfig.Journal()
		if path == "" {
			return fmt.Errorf("the run journal is disabled (journal_file is empty)")
		}
		store, err := journal.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()

		if historyRunID != "" {
			clients, err := store.Clients(cmd.Context(), historyRunID)
			if err != nil {
				return err
			}
			if len(clients) == 0 {
				return fmt.Errorf("no client results recorded for run %s", historyRunID)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderClients(clients))
			return nil
		}

		runs, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderRuns(runs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")
	historyCmd.Flags().StringVar(&historyRunID, "run", "", "Show the per-client results of one run")
}

func renderRuns(runs []journal.Run) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("RUN", "WEEK", "STARTED", "MERGED", "WARN", "ERR", "OUTCOME")
	for _, r := range runs {
		outcome := string(r.Outcome)
		if r.DryRun {
			outcome += " (dry run)"
		}
		t.Row(r.RunID, r.Week, r.StartTime.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d/%d", r.Merged, r.Processed),
			strconv.Itoa(r.Warnings), strconv.Itoa(r.Errors), outcome)
	}
	return t.String()
}

func renderClients(clients []types.ClientOutcome) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CLIENT", "STATE", "OUTPUT", "PAGES", "ROW", "NOTE")
	for _, c := range clients {
		row := "-"
		if c.LedgerRow > 0 {
			row = strconv.Itoa(c.LedgerRow)
		}
		note := c.Message
		if len(c.FailedFiles) > 0 {
			note = strings.TrimSpace(note + " failed: " + strings.Join(c.FailedFiles, ", "))
		}
		t.Row(c.Client, string(c.State), c.OutputPath, strconv.Itoa(c.Pages), row, note)
	}
	return t.String()
}
