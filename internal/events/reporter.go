// =============================================================================
// Timesheet & Invoice Merger - Event Reporter
// =============================================================================
//
// Formatting helpers that stamp and emit events.
//
// =============================================================================

package events

import (
	"fmt"
	"time"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// Reporter is the producer-side helper used by the orchestrator.
type Reporter struct {
	sink Sink
	now  func() time.Time
}

// NewReporter wraps sink. A nil sink discards everything.
func NewReporter(sink Sink) *Reporter {
	if sink == nil {
		sink = Discard
	}
	return &Reporter{sink: sink, now: time.Now}
}

func (r *Reporter) log(sev Severity, client, file, format string, args ...any) {
	r.sink.Emit(Event{
		Kind:     KindLog,
		Time:     r.now(),
		Severity: sev,
		Message:  fmt.Sprintf(format, args...),
		Client:   client,
		File:     file,
	})
}

func (r *Reporter) Info(client, file, format string, args ...any) {
	r.log(SevInfo, client, file, format, args...)
}

func (r *Reporter) OK(client, file, format string, args ...any) {
	r.log(SevOK, client, file, format, args...)
}

func (r *Reporter) Warn(client, file, format string, args ...any) {
	r.log(SevWarn, client, file, format, args...)
}

func (r *Reporter) Error(client, file, format string, args ...any) {
	r.log(SevError, client, file, format, args...)
}

// Progress reports overall completion in [0, 100].
func (r *Reporter) Progress(pct float64, eta time.Duration, stage string) {
	r.sink.Emit(Event{Kind: KindProgress, Time: r.now(), Percent: pct, ETA: eta, Stage: stage})
}

// Counters reports the running tally.
func (r *Reporter) Counters(c Counters) {
	r.sink.Emit(Event{Kind: KindCounters, Time: r.now(), Counters: c})
}

// Done reports the final summary. It is always the last event of a run.
func (r *Reporter) Done(s types.RunSummary) {
	r.sink.Emit(Event{Kind: KindDone, Time: r.now(), Summary: &s})
}
