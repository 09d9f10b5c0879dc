// =============================================================================
// Timesheet & Invoice Merger - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - resolver / classifier (discovery)
//   - normalize / merge (document handling)
//   - ledger / batch / journal (recording and reporting)
//
// =============================================================================

package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// RUN INPUTS
// =============================================================================

// ClientRecord identifies one client account. The ID must match both a folder
// name under the root directory and a row key in the ledger.
type ClientRecord struct {
	ID string
}

// WeekSelector is the month/day fragment shared by every client in a run.
type WeekSelector struct {
	Month int
	Day   int
}

// NewWeekSelector validates a month (1-12) and day (1-31).
func NewWeekSelector(month, day int) (WeekSelector, error) {
	if month < 1 || month > 12 {
		return WeekSelector{}, fmt.Errorf("invalid month %d: must be 1-12", month)
	}
	if day < 1 || day > 31 {
		return WeekSelector{}, fmt.Errorf("invalid day %d: must be 1-31", day)
	}
	return WeekSelector{Month: month, Day: day}, nil
}

// ParseWeekSelector accepts "MM-DD", "M-D", or the folder form "Week MM-DD".
func ParseWeekSelector(s string) (WeekSelector, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "Week "))
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return WeekSelector{}, fmt.Errorf("invalid week %q: expected MM-DD", s)
	}
	month, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return WeekSelector{}, fmt.Errorf("invalid week %q: month is not numeric", s)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return WeekSelector{}, fmt.Errorf("invalid week %q: day is not numeric", s)
	}
	return NewWeekSelector(month, day)
}

// Label returns the fixed-width "MM-DD" form.
func (w WeekSelector) Label() string {
	return fmt.Sprintf("%02d-%02d", w.Month, w.Day)
}

// FolderName returns the week folder name, e.g. "Week 08-03".
func (w WeekSelector) FolderName() string {
	return "Week " + w.Label()
}

// =============================================================================
// WORK ITEMS
// =============================================================================

// Kind is the detected document kind of a discovered file.
type Kind string

const (
	KindInvoice     Kind = "invoice"
	KindPDF         Kind = "pdf"
	KindImage       Kind = "image"
	KindWord        Kind = "word-document"
	KindUnsupported Kind = "unsupported"
)

// ItemStatus is the normalization status of a WorkItem.
type ItemStatus string

const (
	StatusPending ItemStatus = "pending"
	StatusReady   ItemStatus = "ready"
	StatusFailed  ItemStatus = "failed"
)

// WorkItem is one discovered file inside a week folder.
type WorkItem struct {
	// Path is the operator's original file. It is only ever read.
	Path string

	// Name is the base file name, used for ordering and output naming.
	Name string

	// Kind is the classified kind. For the invoice candidate this is
	// KindInvoice; Format then holds the underlying document format.
	Kind Kind

	// Format is the document format (pdf, image, word) regardless of role.
	Format Kind

	// Status transitions pending -> ready | failed exactly once.
	Status ItemStatus

	// Output is the normalized PDF, set when Status is ready.
	Output string

	// Err records why normalization failed.
	Err error
}

// IsInvoice reports whether the item is the invoice candidate.
func (w WorkItem) IsInvoice() bool { return w.Kind == KindInvoice }

// =============================================================================
// MERGE
// =============================================================================

// MergePlan is the ordered, ready-only list of normalized PDFs for one client.
// When HasInvoice is true, Entries[0] is the invoice.
type MergePlan struct {
	Entries     []WorkItem
	HasInvoice  bool
	InvoiceName string
}

// Len returns the number of entries in the plan.
func (p MergePlan) Len() int { return len(p.Entries) }

// Paths returns the normalized output paths in merge order.
func (p MergePlan) Paths() []string {
	paths := make([]string, 0, len(p.Entries))
	for _, e := range p.Entries {
		paths = append(paths, e.Output)
	}
	return paths
}

// MergeStatus is the client-scoped outcome of the merge step.
type MergeStatus string

const (
	MergeMerged  MergeStatus = "merged"
	MergeSkipped MergeStatus = "skipped"
	MergeFailed  MergeStatus = "failed"
)

// MergeResult is the outcome of assembling one client's output.
type MergeResult struct {
	// OutputPath is empty when nothing was merged.
	OutputPath string
	Status     MergeStatus
	Pages      int
}

// =============================================================================
// CLIENT OUTCOMES AND RUN SUMMARY
// =============================================================================

// ClientState is the terminal state reached by a client in a run.
type ClientState string

const (
	ClientNotFound ClientState = "not-found"
	ClientSkipped  ClientState = "skipped"
	ClientMerged   ClientState = "merged"
	ClientFailed   ClientState = "failed"
)

// ClientOutcome records what happened to one client.
type ClientOutcome struct {
	Client      string
	State       ClientState
	WeekPath    string
	OutputPath  string
	Pages       int
	LedgerRow   int
	Warnings    int
	Errors      int
	FailedFiles []string
	Message     string
}

// Outcome is the overall completion signal of a run.
type Outcome string

const (
	OutcomeClean    Outcome = "clean"
	OutcomeWarnings Outcome = "warnings"
	OutcomeErrors   Outcome = "errors"
)

// RunSummary aggregates one batch execution.
type RunSummary struct {
	RunID     string
	Week      string
	StartTime time.Time
	EndTime   time.Time
	DryRun    bool

	Processed int
	Merged    int
	Warnings  int
	Errors    int

	// Missing lists clients/weeks that could not be located,
	// e.g. "Acme (Week 08-03)".
	Missing []string

	Clients []ClientOutcome

	// LedgerSaveErr is set when the final ledger flush failed. Merged
	// PDFs on disk are not rolled back.
	LedgerSaveErr error

	LogFile string
}

// Outcome derives the completion signal from the counters.
func (s RunSummary) Outcome() Outcome {
	switch {
	case s.Errors > 0 || s.LedgerSaveErr != nil:
		return OutcomeErrors
	case s.Warnings > 0 || len(s.Missing) > 0:
		return OutcomeWarnings
	default:
		return OutcomeClean
	}
}

// =============================================================================
// PRE-SCAN
// =============================================================================

// ScanEntry is the pre-scan result for one client.
type ScanEntry struct {
	Client      string
	ClientFound bool
	WeekPath    string
	Files       []string
	Tasks       int

	// Reason explains a missing folder; empty when found.
	Reason string
}

// Found reports whether the week folder was located.
func (e ScanEntry) Found() bool { return e.WeekPath != "" }

// ScanReport is the pre-scan result for a set of clients.
type ScanReport struct {
	Week       string
	Entries    []ScanEntry
	TotalFiles int
	TotalTasks int
}

// Missing returns the clients whose week folder was not located.
func (r ScanReport) Missing() []string {
	var out []string
	for _, e := range r.Entries {
		if !e.Found() {
			out = append(out, e.Client)
		}
	}
	return out
}
