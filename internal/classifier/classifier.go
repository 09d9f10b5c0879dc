// =============================================================================
// Timesheet & Invoice Merger - File Classifier
// =============================================================================
//
// Sorts the files of one week folder into the invoice candidate, the
// supporting documents, earlier outputs of this tool, and ignored files.
//
// =============================================================================

// Package classifier sorts the direct entries of a week folder into the
// invoice candidate and the convertible supporting documents.
package classifier

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// invoiceMarker is matched case-insensitively anywhere in the file name.
const invoiceMarker = "invoice"

var extensionKinds = map[string]types.Kind{
	".pdf":  types.KindPDF,
	".jpg":  types.KindImage,
	".jpeg": types.KindImage,
	".png":  types.KindImage,
	".docx": types.KindWord,
	".doc":  types.KindWord,
}

// Options carries the names this tool itself writes into week folders, so a
// rerun never feeds an earlier output back into the merge.
type Options struct {
	ClientID  string
	WeekLabel string
}

// Classification is the result of scanning one folder.
type Classification struct {
	// Invoice is the retained invoice candidate, or nil.
	Invoice *types.WorkItem

	// Items are the convertible documents in case-insensitive name order.
	Items []types.WorkItem

	// ExtraInvoices are further invoice candidates that were not retained.
	ExtraInvoices []string

	// PreviousOutputs are earlier merged files found in the folder.
	PreviousOutputs []string

	// Ignored are files without a recognized extension.
	Ignored []string
}

// Count returns the number of documents that will be normalized.
func (c Classification) Count() int {
	n := len(c.Items)
	if c.Invoice != nil {
		n++
	}
	return n
}

// KindOf maps a file name to its document format by extension.
func KindOf(name string) types.Kind {
	if k, ok := extensionKinds[strings.ToLower(filepath.Ext(name))]; ok {
		return k
	}
	return types.KindUnsupported
}

// IsInvoiceName reports whether name marks an invoice candidate.
func IsInvoiceName(name string) bool {
	return strings.Contains(strings.ToLower(name), invoiceMarker)
}

// List returns the recognized files in dir (non-recursive), sorted. Earlier
// outputs of this tool are left out, as Classify leaves them out.
func List(dir string, opts Options) ([]string, error) {
	names, err := sortedFiles(dir)
	if err != nil {
		return nil, err
	}
	stems := recognizedStems(names)
	var out []string
	for _, name := range names {
		if KindOf(name) != types.KindUnsupported && !isPreviousOutput(name, stems, opts) {
			out = append(out, filepath.Join(dir, name))
		}
	}
	return out, nil
}

// Classify scans dir. The first invoice candidate in case-insensitive name
// order is retained; later candidates are reported in ExtraInvoices.
func Classify(dir string, opts Options) (Classification, error) {
	var c Classification

	names, err := sortedFiles(dir)
	if err != nil {
		return c, err
	}

	stems := recognizedStems(names)

	for _, name := range names {
		kind := KindOf(name)
		if kind == types.KindUnsupported {
			c.Ignored = append(c.Ignored, name)
			continue
		}
		if isPreviousOutput(name, stems, opts) {
			c.PreviousOutputs = append(c.PreviousOutputs, name)
			continue
		}

		item := types.WorkItem{
			Path:   filepath.Join(dir, name),
			Name:   name,
			Kind:   kind,
			Format: kind,
			Status: types.StatusPending,
		}

		if IsInvoiceName(name) {
			if c.Invoice != nil {
				c.ExtraInvoices = append(c.ExtraInvoices, name)
				continue
			}
			item.Kind = types.KindInvoice
			c.Invoice = &item
			continue
		}
		c.Items = append(c.Items, item)
	}

	return c, nil
}

// OutputNameFor returns the file name a merged output gets for a client with
// no invoice.
func OutputNameFor(clientID, weekLabel string) string {
	return fmt.Sprintf("%s_Week_%s.pdf", clientID, weekLabel)
}

func isPreviousOutput(name string, stems map[string]bool, opts Options) bool {
	lower := strings.ToLower(name)
	if opts.ClientID != "" && opts.WeekLabel != "" &&
		lower == strings.ToLower(OutputNameFor(opts.ClientID, opts.WeekLabel)) {
		return true
	}
	if strings.ToLower(filepath.Ext(name)) != ".pdf" {
		return false
	}
	s := stem(name)
	if !strings.HasSuffix(s, "_") {
		return false
	}
	// Only an invoice gives its name to an output.
	base := strings.TrimSuffix(s, "_")
	return IsInvoiceName(base) && stems[strings.ToLower(base)]
}

// recognizedStems holds the lower-cased stems of every recognized file.
func recognizedStems(names []string) map[string]bool {
	stems := make(map[string]bool, len(names))
	for _, name := range names {
		if KindOf(name) != types.KindUnsupported {
			stems[strings.ToLower(stem(name))] = true
		}
	}
	return stems
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// sortedFiles lists regular files in dir, ordered case-insensitively with the
// exact name as tie-breaker.
func sortedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read folder %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !e.Type().IsRegular() {
			// Follow symlinks; skip anything that is not a regular file.
			info, err := os.Stat(filepath.Join(dir, e.Name()))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
		}
		names = append(names, e.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := strings.ToLower(names[i]), strings.ToLower(names[j])
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	return names, nil
}
