// =============================================================================
// Timesheet & Invoice Merger - Console Styles
// =============================================================================
//
// Shared lipgloss styles and line formatting for both consoles.
//
// =============================================================================

// Package console renders a run's event stream for the operator: a plain
// line-oriented console and an interactive terminal dashboard.
package console

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/events"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func severityStyle(s events.Severity) lipgloss.Style {
	switch s {
	case events.SevOK:
		return okStyle
	case events.SevWarn:
		return warnStyle
	case events.SevError:
		return errorStyle
	default:
		return infoStyle
	}
}

// formatLog renders "15:04:05 [WARN] message".
func formatLog(e events.Event) string {
	tag := severityStyle(e.Severity).Render(fmt.Sprintf("[%s]", e.Severity))
	return fmt.Sprintf("%s %s %s", mutedStyle.Render(e.Time.Format("15:04:05")), tag, e.Message)
}

// formatETA renders a duration as m:ss or h:mm:ss.
func formatETA(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// completion is the final status line and whether it deserves the bell.
func completion(s *types.RunSummary) (string, bool) {
	msg := "Done"
	if n := len(s.Missing); n > 0 {
		msg = fmt.Sprintf("Done (%d missing folders)", n)
	}
	switch s.Outcome() {
	case types.OutcomeErrors:
		return errorStyle.Render(msg + " - completed with errors"), true
	case types.OutcomeWarnings:
		return warnStyle.Render(msg + " - completed with warnings"), true
	default:
		return okStyle.Render(msg), false
	}
}

func counterLine(c events.Counters) string {
	return fmt.Sprintf("processed %d  merged %d  %s  %s",
		c.Processed, c.Merged,
		warnStyle.Render(fmt.Sprintf("warnings %d", c.Warnings)),
		errorStyle.Render(fmt.Sprintf("errors %d", c.Errors)))
}
