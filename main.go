// =============================================================================
// Timesheet & Invoice Merger - Main Entry Point
// =============================================================================
//
// USAGE:
//   tsmerge run        - Merge the week's documents for the selected clients
//   tsmerge scan       - Report which week folders exist and what they hold
//   tsmerge history    - List recent runs from the run journal
//   tsmerge version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Pipeline packages (resolver, classifier, normalize,
//                      merge, ledger, batch) and their supporting packages
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/cmd"
)

func main() {
	cmd.Execute()
}
