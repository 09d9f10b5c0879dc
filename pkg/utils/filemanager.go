// =============================================================================
// Timesheet & Invoice Merger - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for a merge run, including:
//   - Run-scoped scratch directories
//   - Moving finished outputs into client week folders
//   - Run log naming and retention
//   - Summary log generation
//
// PLACEMENT STRATEGY:
//   - Every intermediate file lives in the run scratch directory
//   - A merged PDF is written to scratch first, then moved into the week folder
//   - A cross-device move falls back to copy, sync, and remove
//   - The scratch directory is removed when the run ends, success or not
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// =============================================================================
// RUN DIRECTORIES
// =============================================================================

// RunDir is the scratch directory owned by a single run.
type RunDir struct {
	// ID is the run identifier, also used in the directory name.
	ID string

	// Path is the absolute scratch directory.
	Path string
}

// NewRunDir creates "tsmerge-<uuid>" under base.
//
// PARAMETERS:
//   - base: The parent directory (usually the OS temp directory).
//
// RETURNS:
//   - The created RunDir.
//   - An error if the directory cannot be created.
func NewRunDir(base string) (*RunDir, error) {
	if base == "" {
		base = os.TempDir()
	}
	id := uuid.New().String()
	path := filepath.Join(base, "tsmerge-"+id)
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory %s: %w", path, err)
	}
	return &RunDir{ID: id, Path: path}, nil
}

// ClientDir creates and returns a per-client subdirectory.
func (r *RunDir) ClientDir(index int, client string) (string, error) {
	dir := filepath.Join(r.Path, fmt.Sprintf("%03d_%s", index, SafeName(client)))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return dir, nil
}

// Remove deletes the scratch directory and everything in it.
func (r *RunDir) Remove() error {
	return os.RemoveAll(r.Path)
}

// SafeName replaces path separators and other characters that are awkward in
// file names.
func SafeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, s)
}

// =============================================================================
// FILE PLACEMENT
// =============================================================================

// MoveFile moves src to dst, replacing dst if it exists.
//
// RETURNS:
//   - An error if neither rename nor copy-and-remove succeeds.
//
// NOTE: The source is removed only after the copy has been synced.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	// Rename fails across devices (scratch on tmpfs, output on a share).
	tmp := dst + ".partial"
	if err := copyFile(src, tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to copy %s: %w", filepath.Base(src), err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to place %s: %w", filepath.Base(dst), err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("failed to remove original file: %w", err)
	}
	return nil
}

// =============================================================================
// RUN LOG NAMING
// =============================================================================

// RunLogName returns "Log_Week_{MM-DD}_{YYYYMMDD_HHMMSS}.txt".
func RunLogName(weekLabel string, at time.Time) string {
	return fmt.Sprintf("Log_Week_%s_%s.txt", weekLabel, at.Format("20060102_150405"))
}

// =============================================================================
// SUMMARY LOG GENERATION
// =============================================================================

// WriteSummary writes a human-readable run summary to w.
func WriteSummary(w io.Writer, summary types.RunSummary) error {
	writer := bufio.NewWriter(w)

	duration := summary.EndTime.Sub(summary.StartTime).Round(time.Second)
	mode := "live"
	if summary.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(writer, "Timesheet & Invoice Merger - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Week:           %s\n"+
		"  Mode:           %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Statistics:\n"+
		"  Processed:      %d\n"+
		"  Merged:         %d\n"+
		"  Warnings:       %d\n"+
		"  Errors:         %d\n"+
		"  Outcome:        %s\n\n",
		summary.RunID,
		summary.Week,
		mode,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration,
		summary.Processed,
		summary.Merged,
		summary.Warnings,
		summary.Errors,
		summary.Outcome())

	if len(summary.Clients) > 0 {
		writer.WriteString("Clients:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, c := range summary.Clients {
			fmt.Fprintf(writer, "  %-24s %s\n", c.Client, c.State)
			if c.OutputPath != "" {
				fmt.Fprintf(writer, "    Output:     %s (%d pages)\n", c.OutputPath, c.Pages)
			}
			if c.LedgerRow > 0 {
				fmt.Fprintf(writer, "    Ledger row: %d\n", c.LedgerRow)
			}
			for _, f := range c.FailedFiles {
				fmt.Fprintf(writer, "    Failed:     %s\n", f)
			}
			if c.Message != "" {
				fmt.Fprintf(writer, "    Note:       %s\n", c.Message)
			}
		}
		writer.WriteString("\n")
	}

	if len(summary.Missing) > 0 {
		writer.WriteString("Missing:\n")
		for _, m := range summary.Missing {
			fmt.Fprintf(writer, "  - %s\n", m)
		}
		writer.WriteString("\n")
	}

	if summary.LedgerSaveErr != nil {
		fmt.Fprintf(writer, "Ledger save failed: %v\n\n", summary.LedgerSaveErr)
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")
	return writer.Flush()
}

// WriteSummaryLog appends the summary block to the run log file at path.
//
// RETURNS:
//   - An error if the file cannot be opened or written.
func WriteSummaryLog(path string, summary types.RunSummary) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString("\n"); err != nil {
		return err
	}
	return WriteSummary(file, summary)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	_, err = io.Copy(destFile, sourceFile)
	if err != nil {
		return err
	}

	return destFile.Sync()
}

// CleanOldLogs removes run logs older than maxAge from logDir.
//
// PARAMETERS:
//   - logDir: The directory holding run logs.
//   - maxAge: The maximum age of logs to keep. Zero or less keeps all.
//
// RETURNS:
//   - The number of files removed.
//   - An error if the directory cannot be read.
//
// NOTE: Only "Log_Week_*.txt" files are considered; the journal and any
// operator files in the directory are left alone.
func CleanOldLogs(logDir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-maxAge)

	matches, err := filepath.Glob(filepath.Join(logDir, "Log_Week_*.txt"))
	if err != nil {
		return 0, fmt.Errorf("failed to scan log directory: %w", err)
	}

	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return removed, fmt.Errorf("failed to clean logs: %w", err)
			}
			removed++
		}
	}
	return removed, nil
}
