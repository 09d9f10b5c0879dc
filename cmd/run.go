// =============================================================================
// Timesheet & Invoice Merger - Run Command
// =============================================================================
//
// This file defines the 'run' command, the main command of the tool. It
// drives one batch for a single week across the selected clients.
//
// COMMAND USAGE:
//   tsmerge run --clients Acme,Globex --week 08-03 [flags]
//
// FLAGS:
//   --clients          : Client IDs to process (or --all for the configured list)
//   --week             : Week label MM-DD (or --month and --day)
//   --dry-run          : Convert into scratch space only; write no PDF, save no ledger
//   --confirm-missing  : Ask before continuing when some week folders are missing
//   --tui              : Show the interactive dashboard instead of plain lines
//   --no-bell          : Do not ring the terminal bell on warnings or errors
//
// PROCESSING PIPELINE (per client, strictly sequential):
//   1. Resolve {root}/{client}/{month}/Week MM-DD
//   2. Classify the folder (invoice candidate, supporting documents)
//   3. Normalize every document to portrait PDF in the run's scratch directory
//   4. Merge, invoice first, into the week folder
//   5. Stage the ledger update
// After the last client the ledger is saved once and the run is journaled.
//
// =============================================================================

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/batch"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/console"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/events"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/journal"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var runSelection selectionFlags

// dryRun converts without writing outputs or saving the ledger.
var dryRun bool

// confirmMissing prompts before continuing past missing week folders.
var confirmMissing bool

// useTUI selects the interactive dashboard.
var useTUI bool

// noBell silences the completion bell.
var noBell bool

// errRunHadErrors makes the process exit non-zero after a run with errors.
var errRunHadErrors = errors.New("run completed with errors")

// =============================================================================
// RUN COMMAND DEFINITION
// =============================================================================

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Merge one week's invoice and timesheets per client",
	Long: `The run command processes the selected clients one at a time. For each client
it locates the week folder, converts the invoice and every supporting document
to portrait PDF, merges them (invoice first) into the week folder, and records
the output path in the billing ledger.

A missing folder, a document that cannot be converted, or a client with no
ledger row is reported and the run moves on. Only a ledger that cannot be
opened stops the run before any client is processed.

Output name:
  {invoice name}_.pdf            when an invoice was merged
  {client}_Week_{MM-DD}.pdf      otherwise`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runSelection.register(runCmd)
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Convert only; write no output PDF and do not save the ledger")
	runCmd.Flags().BoolVar(&confirmMissing, "confirm-missing", false, "Ask before continuing when week folders are missing")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "Show the interactive progress dashboard")
	runCmd.Flags().BoolVar(&noBell, "no-bell", false, "Do not ring the terminal bell on warnings or errors")
}

// =============================================================================
// MAIN RUN FUNCTION
// =============================================================================

func runBatch(cmd *cobra.Command) error {
	week, err := runSelection.weekSelector()
	if err != nil {
		return err
	}
	clients, err := runSelection.clientRecords(mainConfig)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *journal.Store
	if path := mainConfig.Journal(); path != "" {
		store, err = journal.Open(path)
		if err != nil {
			slog.Warn("run journal unavailable; history will not be recorded", "path", path, "err", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	bus := events.NewBus(256)
	orch := batch.New(batch.Options{
		Config:  mainConfig,
		Sink:    bus,
		Journal: store,
		Logger:  slog.Default(),
		DryRun:  dryRun,
	})

	if confirmMissing {
		report := orch.Scan(ctx, clients, week)
		if missing := report.Missing(); len(missing) > 0 {
			ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("No %s folder for: %s. Continue anyway?", week.FolderName(), strings.Join(missing, ", ")))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Run cancelled.")
				return nil
			}
		}
	}

	type result struct {
		summary types.RunSummary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		defer bus.Close()
		sum, err := orch.Run(ctx, clients, week)
		done <- result{sum, err}
	}()

	if useTUI {
		title := fmt.Sprintf("Timesheet & Invoice Merger - %s", week.FolderName())
		if _, err := console.RunDashboard(title, bus.Events(), stop, !noBell); err != nil {
			slog.Warn("dashboard unavailable, falling back to plain output", "err", err)
			console.NewPlain(cmd.OutOrStdout(), !noBell).Drain(bus.Events())
		}
	} else {
		console.NewPlain(cmd.OutOrStdout(), !noBell).Drain(bus.Events())
	}

	res := <-done
	if res.summary.LogFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Log: %s\n", res.summary.LogFile)
	}
	switch {
	case res.err != nil:
		return res.err
	case res.summary.Outcome() == types.OutcomeErrors:
		return errRunHadErrors
	}
	return nil
}

// confirm asks a yes/no question; anything but y/yes is no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

