// =============================================================================
// Timesheet & Invoice Merger - Batch Orchestrator
// =============================================================================
//
// Runs one week across the selected clients, strictly one client at a time.
// Only a ledger that cannot be opened aborts a run.
//
// =============================================================================

// Package batch drives a merge run across the selected clients: resolve the
// week folder, classify, normalize, merge, and stage the ledger update, one
// client at a time, reporting every step on an event stream.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/classifier"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/config"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/events"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/journal"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/ledger"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/merge"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/normalize"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/resolver"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/pkg/utils"
)

// ErrNoClients is returned when a run is started with an empty selection.
var ErrNoClients = errors.New("no clients selected")

// =============================================================================
// ORCHESTRATOR SETUP
// =============================================================================

// Options configures an Orchestrator.
type Options struct {
	Config *config.MainConfig

	// Converter renders word documents. Nil uses the configured office
	// converter.
	Converter normalize.Converter

	// Sink receives the event stream. The run log file is always written in
	// addition to it.
	Sink events.Sink

	// Journal records finished runs. Nil disables the history.
	Journal *journal.Store

	Logger *slog.Logger

	// DryRun normalizes into scratch space but writes no output and does not
	// save the ledger.
	DryRun bool

	Now func() time.Time
}

// Orchestrator runs batches. One Orchestrator may run many batches, one at a
// time.
type Orchestrator struct {
	cfg     *config.MainConfig
	conv    normalize.Converter
	sink    events.Sink
	journal *journal.Store
	logger  *slog.Logger
	dryRun  bool
	now     func() time.Time
}

// New creates an Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		cfg:     opts.Config,
		conv:    opts.Converter,
		sink:    opts.Sink,
		journal: opts.Journal,
		logger:  opts.Logger,
		dryRun:  opts.DryRun,
		now:     opts.Now,
	}
	if o.conv == nil {
		c := o.cfg.Converter
		o.conv = normalize.NewOfficeConverter(c.Command, c.Args, c.Timeout.Std())
	}
	if o.sink == nil {
		o.sink = events.Discard
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// =============================================================================
// PRE-SCAN
// =============================================================================

// Scan resolves every client's week folder and counts its recognized files.
// It touches nothing on disk.
func (o *Orchestrator) Scan(ctx context.Context, clients []types.ClientRecord, week types.WeekSelector) types.ScanReport {
	report := types.ScanReport{Week: week.Label()}
	for _, c := range uniqueClients(clients) {
		if ctx.Err() != nil {
			break
		}
		res := resolver.Resolve(o.cfg.RootDir, c.ID, week)
		entry := types.ScanEntry{Client: c.ID, ClientFound: res.ClientFound, Tasks: TasksMissing, Reason: res.Reason()}
		if res.Found {
			entry.WeekPath = res.WeekPath
			entry.Tasks = TasksFound
			if files, err := classifier.List(res.WeekPath, classifierOptions(c.ID, week)); err == nil {
				for _, f := range files {
					entry.Files = append(entry.Files, filepath.Base(f))
				}
			}
		}
		report.Entries = append(report.Entries, entry)
		report.TotalFiles += len(entry.Files)
		report.TotalTasks += entry.Tasks
	}
	return report
}

// =============================================================================
// RUN
// =============================================================================

// Run processes clients for week and returns the summary. Per-file and
// per-client failures are reported on the event stream and counted; only a
// ledger that cannot be opened aborts the run. The returned error is non-nil
// when the run was aborted or cancelled; a failed final ledger save is
// reported in RunSummary.LedgerSaveErr instead.
func (o *Orchestrator) Run(ctx context.Context, clients []types.ClientRecord, week types.WeekSelector) (types.RunSummary, error) {
	clients = uniqueClients(clients)
	if len(clients) == 0 {
		return types.RunSummary{}, ErrNoClients
	}

	start := o.now()
	run := &runState{
		summary: types.RunSummary{
			Week:      week.Label(),
			StartTime: start,
			DryRun:    o.dryRun,
		},
	}

	if days := o.cfg.LogRetentionDays; days > 0 {
		if n, err := utils.CleanOldLogs(o.cfg.LogDir, time.Duration(days)*24*time.Hour); err != nil {
			o.logger.Warn("log retention cleanup failed", "err", err)
		} else if n > 0 {
			o.logger.Debug("removed old run logs", "count", n)
		}
	}

	sink := o.sink
	logPath := filepath.Join(o.cfg.LogDir, utils.RunLogName(week.Label(), start))
	fileSink, err := events.NewFileSink(logPath)
	if err != nil {
		o.logger.Warn("run log unavailable", "err", err)
	} else {
		sink = events.Tee(fileSink, o.sink)
		run.summary.LogFile = logPath
	}
	run.rep = events.NewReporter(sink)

	runDir, err := utils.NewRunDir(o.cfg.TempDir)
	if err != nil {
		run.rep.Error("", "", "Cannot create temporary directory: %v", err)
		run.summary.Errors++
		return o.finish(run, fileSink), err
	}
	defer func() {
		if err := runDir.Remove(); err != nil {
			o.logger.Warn("temporary directory not removed", "path", runDir.Path, "err", err)
		}
	}()
	run.summary.RunID = runDir.ID

	mode := ""
	if o.dryRun {
		mode = " (dry run)"
	}
	run.rep.Info("", "", "Starting run %s for Week %s with %d client(s)%s", runDir.ID, week.Label(), len(clients), mode)

	sess, err := ledger.Open(o.cfg.LedgerFile, o.cfg.Ledger)
	if err != nil {
		run.rep.Error("", "", "Cannot open ledger %s: %v", o.cfg.LedgerFile, err)
		run.summary.Errors++
		return o.finish(run, fileSink), err
	}
	defer sess.Close()

	report := o.Scan(ctx, clients, week)
	o.reportScan(run, report)
	run.tracker = NewTracker(report.TotalTasks, o.now)

	p := &pipeline{
		week:      week,
		session:   sess,
		runDir:    runDir,
		dryRun:    o.dryRun,
		normalize: normalize.New(normalize.Options{RotateRatio: o.cfg.Normalize.RotateRatio, JPEGQuality: o.cfg.Normalize.JPEGQuality, Converter: o.conv, Logger: o.logger}),
		assembler: merge.NewAssembler(runDir.Path, o.logger),
	}

	var runErr error
	for i, entry := range report.Entries {
		if err := ctx.Err(); err != nil {
			run.rep.Warn("", "", "Run cancelled; %d client(s) not processed", len(report.Entries)-i)
			run.summary.Warnings++
			runErr = err
			break
		}
		outcome := p.process(ctx, run, i, entry)
		run.summary.Processed++
		if outcome.State == types.ClientMerged {
			run.summary.Merged++
		}
		run.summary.Clients = append(run.summary.Clients, outcome)
		run.counters()
	}
	if runErr == nil {
		runErr = ctx.Err()
	}

	switch {
	case o.dryRun:
		run.rep.Info("", "", "Dry run: ledger not saved (%d update(s) staged)", sess.Pending())
	case sess.Pending() == 0:
		run.rep.Info("", "", "No ledger updates to save")
	default:
		n := sess.Pending()
		if err := sess.Flush(); err != nil {
			run.summary.LedgerSaveErr = err
			run.rep.Error("", "", "Ledger save failed: %v (merged PDFs were kept)", err)
		} else {
			run.rep.OK("", "", "Ledger saved with %d update(s)", n)
		}
	}

	return o.finish(run, fileSink), runErr
}

func (o *Orchestrator) reportScan(run *runState, report types.ScanReport) {
	needsConverter := false
	for _, e := range report.Entries {
		if !e.Found() {
			continue
		}
		run.rep.Info(e.Client, "", "Found %d file(s) for %s", len(e.Files), e.Client)
		for _, f := range e.Files {
			if classifier.KindOf(f) == types.KindWord {
				needsConverter = true
			}
		}
	}

	if a, ok := o.conv.(interface{ Available() error }); ok && needsConverter {
		if err := a.Available(); err != nil {
			run.rep.Warn("", "", "Word documents found but %v; they will be skipped", err)
			run.summary.Warnings++
		}
	}
}

// finish stamps the end time, publishes the summary, and records it.
func (o *Orchestrator) finish(run *runState, fileSink *events.FileSink) types.RunSummary {
	s := &run.summary
	s.EndTime = o.now()

	switch s.Outcome() {
	case types.OutcomeClean:
		run.rep.OK("", "", "Done")
	default:
		msg := fmt.Sprintf("Done with %d warning(s) and %d error(s)", s.Warnings, s.Errors)
		if len(s.Missing) > 0 {
			msg += fmt.Sprintf(" (%d missing folder(s): %s)", len(s.Missing), strings.Join(s.Missing, ", "))
		}
		run.rep.Info("", "", "%s", msg)
	}
	run.counters()
	run.rep.Done(*s)

	if fileSink != nil {
		if err := fileSink.Close(); err != nil {
			o.logger.Warn("run log close failed", "err", err)
		}
		if err := utils.WriteSummaryLog(fileSink.Path(), *s); err != nil {
			o.logger.Warn("run summary not written", "err", err)
		}
	}

	if o.journal != nil && s.RunID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.journal.Record(ctx, *s); err != nil {
			o.logger.Warn("run not recorded in journal", "run", s.RunID, "err", err)
		}
	}
	return *s
}

// =============================================================================
// RUN STATE
// =============================================================================

// runState is the mutable bookkeeping of one run, owned by the run goroutine.
type runState struct {
	rep     *events.Reporter
	summary types.RunSummary
	tracker *Tracker
}

func (r *runState) info(out *types.ClientOutcome, file, format string, args ...any) {
	r.rep.Info(out.Client, file, format, args...)
}

func (r *runState) ok(out *types.ClientOutcome, file, format string, args ...any) {
	r.rep.OK(out.Client, file, format, args...)
}

func (r *runState) warn(out *types.ClientOutcome, file, format string, args ...any) {
	out.Warnings++
	r.summary.Warnings++
	r.rep.Warn(out.Client, file, format, args...)
}

func (r *runState) fail(out *types.ClientOutcome, file, format string, args ...any) {
	out.Errors++
	r.summary.Errors++
	r.rep.Error(out.Client, file, format, args...)
}

func (r *runState) advance(n float64, stage string) {
	pct, eta := r.tracker.Advance(n)
	r.rep.Progress(pct, eta, stage)
}

func (r *runState) counters() {
	r.rep.Counters(events.Counters{
		Processed: r.summary.Processed,
		Merged:    r.summary.Merged,
		Warnings:  r.summary.Warnings,
		Errors:    r.summary.Errors,
	})
}

// classifierOptions names the outputs this tool writes for client in week.
func classifierOptions(client string, week types.WeekSelector) classifier.Options {
	return classifier.Options{ClientID: utils.SafeName(client), WeekLabel: week.Label()}
}

// uniqueClients drops blank and repeated IDs, keeping first-seen order.
func uniqueClients(clients []types.ClientRecord) []types.ClientRecord {
	seen := make(map[string]bool, len(clients))
	out := make([]types.ClientRecord, 0, len(clients))
	for _, c := range clients {
		id := strings.TrimSpace(c.ID)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, types.ClientRecord{ID: id})
	}
	return out
}
