// =============================================================================
// Timesheet & Invoice Merger - Interactive Dashboard
// =============================================================================
//
// Bubbletea dashboard with a progress bar and a scrolling event log.
//
// KEYS:
//   q / esc / ctrl+c  cancel the run (once)
//   enter / q         exit after the run has finished
//
// =============================================================================

package console

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/events"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

type eventMsg events.Event

type streamClosedMsg struct{}

// waitForEvent reads the next event on the program's goroutine pool, so the
// model itself is only ever touched by the bubbletea loop.
func waitForEvent(evs <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-evs
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(e)
	}
}

// =============================================================================
// MODEL
// =============================================================================

type dashboardModel struct {
	title  string
	evs    <-chan events.Event
	cancel context.CancelFunc

	bar      progress.Model
	log      viewport.Model
	lines    []string
	percent  float64
	eta      time.Duration
	stage    string
	counters events.Counters

	summary    *types.RunSummary
	closed     bool
	cancelling bool
	width      int
}

func newDashboard(title string, evs <-chan events.Event, cancel context.CancelFunc) dashboardModel {
	return dashboardModel{
		title:  title,
		evs:    evs,
		cancel: cancel,
		bar:    progress.New(progress.WithDefaultGradient()),
		log:    viewport.New(80, 12),
		width:  80,
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return waitForEvent(m.evs)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = max(10, msg.Width-20)
		m.log.Width = max(20, msg.Width-4)
		m.log.Height = max(5, msg.Height-10)
		return m, nil

	case eventMsg:
		m = m.apply(events.Event(msg))
		return m, waitForEvent(m.evs)

	case streamClosedMsg:
		m.closed = true
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			if !m.closed && m.cancel != nil && !m.cancelling {
				m.cancelling = true
				m.cancel()
				m = m.appendLine(warnStyle.Render("Cancelling after the current file..."))
				return m, nil
			}
			if m.closed {
				return m, tea.Quit
			}
			return m, nil
		case "enter":
			if m.closed {
				return m, tea.Quit
			}
		}
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m dashboardModel) apply(e events.Event) dashboardModel {
	switch e.Kind {
	case events.KindLog:
		m = m.appendLine(formatLog(e))
	case events.KindProgress:
		m.percent = e.Percent
		m.eta = e.ETA
		m.stage = e.Stage
	case events.KindCounters:
		m.counters = e.Counters
	case events.KindDone:
		m.summary = e.Summary
		m.percent = 100
		m.eta = 0
		if e.Summary != nil {
			line, _ := completion(e.Summary)
			m = m.appendLine(line)
		}
	}
	return m
}

func (m dashboardModel) appendLine(line string) dashboardModel {
	m.lines = append(m.lines, line)
	m.log.SetContent(strings.Join(m.lines, "\n"))
	m.log.GotoBottom()
	return m
}

func (m dashboardModel) View() string {
	header := titleStyle.Render(m.title)

	status := fmt.Sprintf("%s  ETA %s", m.bar.ViewAs(m.percent/100), formatETA(m.eta))
	stage := mutedStyle.Render(m.stage)

	hint := "q: cancel run"
	switch {
	case m.closed:
		hint = "enter/q: exit"
	case m.cancelling:
		hint = "cancelling..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		status,
		stage,
		counterLine(m.counters),
		panelStyle.Render(m.log.View()),
		mutedStyle.Render(hint),
	)
}

// =============================================================================
// PROGRAM
// =============================================================================

// RunDashboard shows the interactive dashboard until the stream closes and
// the operator exits. Pressing q while the run is active calls cancel. The
// completion line is repeated on the normal screen afterwards, with the bell
// when ringBell is set and the run had warnings or errors.
func RunDashboard(title string, evs <-chan events.Event, cancel context.CancelFunc, ringBell bool) (*types.RunSummary, error) {
	p := tea.NewProgram(newDashboard(title, evs, cancel), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(dashboardModel)
	if !ok || m.summary == nil {
		return nil, nil
	}
	line, bell := completion(m.summary)
	fmt.Println(line)
	fmt.Println(counterLine(m.counters))
	if bell && ringBell {
		fmt.Print("\a")
	}
	return m.summary, nil
}
