// =============================================================================
// Timesheet & Invoice Merger - Client Pipeline
// =============================================================================
//
// The per-client state machine:
//   Discovering -> NotFound | Classifying -> Normalizing -> Merging -> LedgerUpdating
//
// =============================================================================

package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/classifier"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/ledger"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/merge"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/normalize"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/pkg/utils"
)

// pipeline holds what every client of one run shares.
type pipeline struct {
	week      types.WeekSelector
	session   *ledger.Session
	runDir    *utils.RunDir
	dryRun    bool
	normalize *normalize.Normalizer
	assembler *merge.Assembler
}

// process walks one client through
//
//	Discovering -> NotFound | Classifying -> Normalizing -> Merging -> LedgerUpdating
//
// and always returns an outcome; nothing a single client does aborts the run.
func (p *pipeline) process(ctx context.Context, run *runState, index int, entry types.ScanEntry) types.ClientOutcome {
	out := types.ClientOutcome{Client: entry.Client, WeekPath: entry.WeekPath}
	budget := float64(entry.Tasks)
	used := 0.0
	step := func(n float64, stage string) {
		used += n
		run.advance(n, fmt.Sprintf("%s: %s", entry.Client, stage))
	}
	defer func() {
		if rest := budget - used; rest > 0 {
			run.advance(rest, entry.Client+": done")
		}
	}()

	// Discovering
	if !entry.Found() {
		reason := entry.Reason
		out.State = types.ClientNotFound
		out.Message = reason
		run.summary.Missing = append(run.summary.Missing, fmt.Sprintf("%s (%s)", entry.Client, p.week.FolderName()))
		run.warn(&out, "", "No folder found for %s (%s): %s", entry.Client, p.week.FolderName(), reason)
		return out
	}

	// Classifying
	cls, err := classifier.Classify(entry.WeekPath, classifierOptions(entry.Client, p.week))
	if err != nil {
		out.State = types.ClientFailed
		out.Message = err.Error()
		run.fail(&out, "", "Cannot read %s: %v", entry.WeekPath, err)
		return out
	}
	if cls.Invoice != nil {
		run.info(&out, cls.Invoice.Name, "Invoice: %s", cls.Invoice.Name)
	} else if cls.Count() > 0 {
		run.info(&out, "", "No invoice found for %s; merging supporting documents only", entry.Client)
	}
	for _, extra := range cls.ExtraInvoices {
		run.warn(&out, extra, "Additional invoice candidate %s ignored; using %s", extra, cls.Invoice.Name)
	}
	for _, prev := range cls.PreviousOutputs {
		run.info(&out, prev, "Skipping earlier output %s", prev)
	}
	step(1, "classified")

	// Normalizing
	scratch, err := p.runDir.ClientDir(index, entry.Client)
	if err != nil {
		out.State = types.ClientFailed
		out.Message = err.Error()
		run.fail(&out, "", "%v", err)
		return out
	}

	docs := make([]*types.WorkItem, 0, cls.Count())
	if cls.Invoice != nil {
		docs = append(docs, cls.Invoice)
	}
	for i := range cls.Items {
		docs = append(docs, &cls.Items[i])
	}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			out.State = types.ClientFailed
			out.Message = "cancelled"
			run.fail(&out, "", "Cancelled while converting documents")
			return out
		}
		if err := p.normalize.Normalize(ctx, doc, scratch); err != nil {
			out.FailedFiles = append(out.FailedFiles, doc.Name)
			if errors.Is(err, types.ErrConverterTimeout) {
				run.fail(&out, doc.Name, "Conversion timed out: %s", doc.Name)
			} else {
				run.fail(&out, doc.Name, "Conversion failed: %v", err)
			}
		} else {
			run.info(&out, doc.Name, "Converted %s", doc.Name)
		}
		step(1/float64(len(docs)), "converting "+doc.Name)
	}
	if len(docs) == 0 {
		step(1, "nothing to convert")
	}

	// Merging
	plan := merge.BuildPlan(cls.Invoice, cls.Items)
	if plan.Len() == 0 {
		out.State = types.ClientSkipped
		out.Message = "nothing to merge"
		run.warn(&out, "", "No documents to merge for %s; skipped", entry.Client)
		p.clearLedger(run, &out)
		return out
	}
	name := merge.OutputName(plan, entry.Client, p.week)

	if p.dryRun {
		out.State = types.ClientSkipped
		out.Message = fmt.Sprintf("dry run: would write %s from %d document(s)", name, plan.Len())
		run.info(&out, name, "Dry run: would write %s from %d document(s)", name, plan.Len())
		if _, ok := p.session.Row(entry.Client); !ok {
			run.warn(&out, "", "No ledger row for %s", entry.Client)
		}
		return out
	}

	res, err := p.assembler.Merge(ctx, plan, entry.WeekPath, name)
	if err != nil {
		out.State = types.ClientFailed
		out.Message = err.Error()
		run.fail(&out, name, "Merge failed: %v", err)
		p.clearLedger(run, &out)
		return out
	}
	out.OutputPath = res.OutputPath
	out.Pages = res.Pages
	out.State = types.ClientMerged
	run.ok(&out, name, "Merged %d document(s) into %s (%d pages)", plan.Len(), name, res.Pages)
	step(1, "merged")

	// LedgerUpdating
	row, ok := p.session.Stage(entry.Client, res.OutputPath)
	if !ok {
		run.warn(&out, "", "No ledger row for %s; output path not recorded", entry.Client)
		return out
	}
	out.LedgerRow = row
	run.info(&out, "", "Ledger row %d staged for %s", row, entry.Client)
	step(1, "ledger staged")
	return out
}

// clearLedger stages an empty output path for a client whose week folder
// exists but produced no PDF, so the ledger stops pointing at an earlier
// week's packet. Dry runs stage nothing.
func (p *pipeline) clearLedger(run *runState, out *types.ClientOutcome) {
	if p.dryRun {
		return
	}
	row, ok := p.session.Stage(out.Client, "")
	if !ok {
		return
	}
	out.LedgerRow = row
	run.info(out, "", "Ledger row %d cleared for %s", row, out.Client)
}
