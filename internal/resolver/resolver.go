// =============================================================================
// Timesheet & Invoice Merger - Path Resolver
// =============================================================================
//
// Finds a client's week folder under {root}/{client}/{month}/Week MM-DD.
// Month folders are tried in ascending name order; the first hit wins.
//
// =============================================================================

// Package resolver locates a client's week folder under the
// {root}/{client}/{month}/Week MM-DD layout.
package resolver

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// Resolution is the outcome of a lookup. Absence is a normal outcome,
// never an error.
type Resolution struct {
	ClientRoot  string
	ClientFound bool
	WeekPath    string
	Found       bool
}

// Reason describes why a lookup came back empty.
func (r Resolution) Reason() string {
	switch {
	case r.Found:
		return ""
	case !r.ClientFound:
		return "client folder missing"
	default:
		return "week folder missing"
	}
}

// Resolve scans the month folders of client in ascending name order and
// returns the first one containing a "Week MM-DD" directory.
func Resolve(root, client string, week types.WeekSelector) Resolution {
	res := Resolution{ClientRoot: filepath.Join(root, client)}

	info, err := os.Stat(res.ClientRoot)
	if err != nil || !info.IsDir() {
		return res
	}
	res.ClientFound = true

	entries, err := os.ReadDir(res.ClientRoot)
	if err != nil {
		return res
	}
	months := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			months = append(months, e.Name())
		}
	}
	sort.Strings(months)

	target := week.FolderName()
	for _, month := range months {
		candidate := filepath.Join(res.ClientRoot, month, target)
		if fi, err := os.Stat(candidate); err == nil && fi.IsDir() {
			res.WeekPath = candidate
			res.Found = true
			return res
		}
	}
	return res
}
