// =============================================================================
// Timesheet & Invoice Merger - Ledger Updater
// =============================================================================
//
// This module records, per client, the path of the merged output in the shared
// billing workbook.
//
// WORKBOOK STRUCTURE (default layout, configurable via config.LedgerConfig):
//
//   |   | Column B (client) | ... | Column G (merged output)            |
//   |---|-------------------|-----|-------------------------------------|
//   | 4 | Acme              |     | /share/Acme/August/Week 08-03/...   |
//   | 5 | Globex            |     |                                     |
//
// SESSION SEMANTICS:
//   - The workbook is opened once per run.
//   - Stage records an update in memory only.
//   - Flush writes every staged update and saves the workbook exactly once.
//   - A client with no staged update keeps its current cell value.
//
// MATCHING:
//   - Trimmed exact match on the client column, first row wins.
//   - Optional case-insensitive fallback when no exact match exists.
//
// =============================================================================

package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/config"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// =============================================================================
// SESSION
// =============================================================================

// Session is an open ledger workbook with pending, unsaved updates.
type Session struct {
	path     string
	sheet    string
	layout   config.LedgerConfig
	pathCol  int
	fallback bool

	file *excelize.File

	// exact maps trimmed client names to their first row.
	exact map[string]int

	// folded maps lower-cased trimmed names to their first row.
	folded map[string]int

	// pending maps row numbers to output paths awaiting Flush.
	pending map[int]string
}

// Open loads the workbook at path and indexes the client column.
//
// PARAMETERS:
//   - path: The ledger workbook (.xlsx).
//   - layout: Sheet and column layout.
//
// RETURNS:
//   - An open Session. The caller must Close it.
//   - An error wrapping types.ErrLedgerOpen if the workbook or sheet cannot
//     be read.
func Open(path string, layout config.LedgerConfig) (*Session, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", types.ErrLedgerOpen, path, err)
	}

	s, err := newSession(f, path, layout)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func newSession(f *excelize.File, path string, layout config.LedgerConfig) (*Session, error) {
	sheet := layout.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: sheet %q not found in %s", types.ErrLedgerOpen, sheet, path)
	}

	nameCol, err := excelize.ColumnNameToNumber(layout.NameColumn)
	if err != nil {
		return nil, fmt.Errorf("%w: name column: %w", types.ErrLedgerOpen, err)
	}
	pathCol, err := excelize.ColumnNameToNumber(layout.PathColumn)
	if err != nil {
		return nil, fmt.Errorf("%w: path column: %w", types.ErrLedgerOpen, err)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %w", types.ErrLedgerOpen, sheet, err)
	}

	s := &Session{
		path:     path,
		sheet:    sheet,
		layout:   layout,
		pathCol:  pathCol,
		fallback: layout.FallbackEnabled(),
		file:     f,
		exact:    make(map[string]int),
		folded:   make(map[string]int),
		pending:  make(map[int]string),
	}

	start := layout.StartRow
	if start < 1 {
		start = 1
	}
	for i := start - 1; i < len(rows); i++ {
		row := rows[i]
		if nameCol > len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameCol-1])
		if name == "" {
			continue
		}
		rowNum := i + 1
		if _, seen := s.exact[name]; !seen {
			s.exact[name] = rowNum
		}
		key := strings.ToLower(name)
		if _, seen := s.folded[key]; !seen {
			s.folded[key] = rowNum
		}
	}

	return s, nil
}

// =============================================================================
// LOOKUP AND STAGING
// =============================================================================

// Row returns the 1-based row holding client, or false if there is none.
func (s *Session) Row(client string) (int, bool) {
	name := strings.TrimSpace(client)
	if row, ok := s.exact[name]; ok {
		return row, true
	}
	if s.fallback {
		if row, ok := s.folded[strings.ToLower(name)]; ok {
			return row, true
		}
	}
	return 0, false
}

// Stage records path as the output for client. Nothing is written until
// Flush. Staging the same client again replaces the earlier path.
//
// RETURNS:
//   - The target row and true, or 0 and false if the client has no row.
func (s *Session) Stage(client, path string) (int, bool) {
	row, ok := s.Row(client)
	if !ok {
		return 0, false
	}
	s.pending[row] = path
	return row, true
}

// Pending returns the number of staged updates.
func (s *Session) Pending() int {
	return len(s.pending)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// Flush writes every staged update and saves the workbook once. With nothing
// staged the workbook is not rewritten.
//
// RETURNS:
//   - An error wrapping types.ErrLedgerSave if any cell cannot be set or the
//     save fails (e.g. the workbook is locked by another program).
func (s *Session) Flush() error {
	if len(s.pending) == 0 {
		return nil
	}

	rows := make([]int, 0, len(s.pending))
	for row := range s.pending {
		rows = append(rows, row)
	}
	sort.Ints(rows)

	for _, row := range rows {
		cell, err := excelize.CoordinatesToCellName(s.pathCol, row)
		if err != nil {
			return fmt.Errorf("%w: %w", types.ErrLedgerSave, err)
		}
		if err := s.file.SetCellValue(s.sheet, cell, s.pending[row]); err != nil {
			return fmt.Errorf("%w: set %s: %w", types.ErrLedgerSave, cell, err)
		}
	}

	if err := s.file.Save(); err != nil {
		return fmt.Errorf("%w: %s: %w", types.ErrLedgerSave, s.path, err)
	}
	s.pending = make(map[int]string)
	return nil
}

// Close releases the workbook without saving.
func (s *Session) Close() error {
	return s.file.Close()
}
