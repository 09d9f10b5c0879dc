// =============================================================================
// Timesheet & Invoice Merger - Progress Tracking
// =============================================================================
//
// Percent complete and ETA over the task estimate from the pre-scan.
//
// =============================================================================

package batch

import (
	"time"
)

// Tasks per client in the progress estimate: classify, normalize, merge,
// and ledger for a located week folder; one lookup for a missing one.
const (
	TasksFound   = 4
	TasksMissing = 1
)

// Tracker turns completed task units into a percentage and an ETA.
type Tracker struct {
	total float64
	done  float64
	start time.Time
	now   func() time.Time
}

// NewTracker starts a tracker for total task units.
func NewTracker(total int, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{total: float64(total), start: now(), now: now}
}

// Advance records n more completed units (fractions allowed for sub-task
// progress) and returns the percentage, capped at 100, and the remaining-time
// estimate: average time per completed unit times the units left.
func (t *Tracker) Advance(n float64) (pct float64, eta time.Duration) {
	t.done += n
	if t.total <= 0 {
		return 100, 0
	}
	if t.done > t.total {
		t.done = t.total
	}
	pct = t.done / t.total * 100

	if t.done > 0 {
		perUnit := float64(t.now().Sub(t.start)) / t.done
		eta = time.Duration(perUnit * (t.total - t.done)).Round(time.Second)
	}
	return pct, eta
}
