// =============================================================================
// Timesheet & Invoice Merger - Plain Console
// =============================================================================
//
// Line-oriented rendering of the event stream.
//
// =============================================================================

package console

import (
	"fmt"
	"io"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/events"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// Plain prints log events as lines, progress at every 10% step, and the
// completion signal. A terminal bell follows a run with warnings or errors.
type Plain struct {
	Out  io.Writer
	Bell bool

	lastStep int
}

// NewPlain returns a Plain console writing to out.
func NewPlain(out io.Writer, bell bool) *Plain {
	return &Plain{Out: out, Bell: bell, lastStep: -1}
}

// Drain consumes evs until the channel closes and returns the run summary
// carried by the done event, or nil if none arrived.
func (p *Plain) Drain(evs <-chan events.Event) *types.RunSummary {
	var summary *types.RunSummary
	for e := range evs {
		switch e.Kind {
		case events.KindLog:
			fmt.Fprintln(p.Out, formatLog(e))
		case events.KindProgress:
			step := int(e.Percent) / 10
			if step > p.lastStep {
				p.lastStep = step
				fmt.Fprintln(p.Out, mutedStyle.Render(fmt.Sprintf("[%3.0f%%] ETA %s  %s", e.Percent, formatETA(e.ETA), e.Stage)))
			}
		case events.KindDone:
			summary = e.Summary
			if summary == nil {
				continue
			}
			line, bell := completion(summary)
			fmt.Fprintln(p.Out, line)
			fmt.Fprintln(p.Out, counterLine(events.Counters{
				Processed: summary.Processed,
				Merged:    summary.Merged,
				Warnings:  summary.Warnings,
				Errors:    summary.Errors,
			}))
			if bell && p.Bell {
				fmt.Fprint(p.Out, "\a")
			}
		}
	}
	return summary
}
