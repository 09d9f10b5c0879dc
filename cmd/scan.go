// =============================================================================
// Timesheet & Invoice Merger - Scan Command
// =============================================================================
//
// The 'scan' command reports which week folders exist for the selected clients
// and how many recognized documents each holds. It reads directory listings
// only: nothing is converted, moved, or written.
//
// COMMAND USAGE:
//   tsmerge scan --all --week 08-03
//
// =============================================================================

package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/batch"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/events"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

var scanSelection selectionFlags

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Show which week folders exist for the selected clients",
	RunE: func(cmd *cobra.Command, args []string) error {
		week, err := scanSelection.weekSelector()
		if err != nil {
			return err
		}
		clients, err := scanSelection.clientRecords(mainConfig)
		if err != nil {
			return err
		}

		orch := batch.New(batch.Options{Config: mainConfig, Sink: events.Discard})
		report := orch.Scan(cmd.Context(), clients, week)
		fmt.Fprintln(cmd.OutOrStdout(), renderScan(report))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanSelection.register(scanCmd)
}

// renderScan formats a scan report as a table followed by totals.
func renderScan(report types.ScanReport) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CLIENT", "WEEK "+report.Week, "FILES")

	for _, e := range report.Entries {
		if e.Found() {
			t.Row(e.Client, "found", strconv.Itoa(len(e.Files)))
		} else {
			t.Row(e.Client, e.Reason, "-")
		}
	}

	missing := len(report.Missing())
	return fmt.Sprintf("%s\n%d client(s), %d file(s), %d missing folder(s)",
		t.String(), len(report.Entries), report.TotalFiles, missing)
}
