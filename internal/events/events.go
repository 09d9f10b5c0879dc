// =============================================================================
// Timesheet & Invoice Merger - Run Events
// =============================================================================
//
// The typed event stream a run emits: log lines, progress, counters, done.
//
// =============================================================================

// Package events carries run progress from the orchestrator to whoever is
// watching: the run log file, a console, or a test recorder.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// Severity tags a log event.
type Severity int

const (
	SevInfo Severity = iota
	SevOK
	SevWarn
	SevError
)

// LevelOK sits between slog's info and warn levels.
const LevelOK = slog.Level(2)

func (s Severity) String() string {
	switch s {
	case SevOK:
		return "OK"
	case SevWarn:
		return "WARN"
	case SevError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Level maps the severity onto a slog level.
func (s Severity) Level() slog.Level {
	switch s {
	case SevOK:
		return LevelOK
	case SevWarn:
		return slog.LevelWarn
	case SevError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Kind discriminates Event payloads.
type Kind int

const (
	KindLog Kind = iota
	KindProgress
	KindCounters
	KindDone
)

// Counters is the running tally shown to the operator.
type Counters struct {
	Processed int
	Merged    int
	Warnings  int
	Errors    int
}

// Event is one message on the run stream. Only the fields relevant to Kind
// are set.
type Event struct {
	Kind Kind
	Time time.Time

	// KindLog
	Severity Severity
	Message  string
	Client   string
	File     string

	// KindProgress
	Percent float64
	ETA     time.Duration
	Stage   string

	// KindCounters
	Counters Counters

	// KindDone
	Summary *types.RunSummary
}

// =============================================================================
// SINKS
// =============================================================================

// Sink receives events. Implementations must be safe for use by a single
// producer goroutine.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Tee fans each event out to every sink in order.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			if s != nil {
				s.Emit(e)
			}
		}
	})
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of what has been recorded.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Logs returns the recorded log events at severity sev.
func (r *Recorder) Logs(sev Severity) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == KindLog && e.Severity == sev {
			out = append(out, e)
		}
	}
	return out
}
