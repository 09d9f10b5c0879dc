package types

import "errors"

// =============================================================================
// ERROR TAXONOMY
// =============================================================================
// Callers classify with errors.Is. Only ErrLedgerOpen aborts a run; the rest
// are caught at file or client scope and turned into events.

var (
	// ErrNotFound covers a missing client root, week folder, or ledger row.
	ErrNotFound = errors.New("not found")

	// ErrConversion marks a per-file normalization failure.
	ErrConversion = errors.New("conversion failed")

	// ErrConverterTimeout marks an external converter that did not finish in time.
	ErrConverterTimeout = errors.New("converter timed out")

	// ErrUnsupported marks a file whose kind cannot be normalized.
	ErrUnsupported = errors.New("unsupported document kind")

	// ErrMerge marks a client whose output could not be assembled or written.
	ErrMerge = errors.New("merge failed")

	// ErrLedgerOpen is fatal to the batch.
	ErrLedgerOpen = errors.New("ledger open failed")

	// ErrLedgerSave is reported at the end of a run; merged PDFs stay on disk.
	ErrLedgerSave = errors.New("ledger save failed")
)
