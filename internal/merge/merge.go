// =============================================================================
// Timesheet & Invoice Merger - Merge Assembler
// =============================================================================
//
// Builds the invoice-first merge plan, names the output, and writes the
// merged PDF into the client's week folder.
//
// PLACEMENT:
//   The merge is written to scratch, its page count verified, and only
//   then moved into the week folder, replacing any earlier output.
//
// =============================================================================

// Package merge builds the ordered merge plan for one client and concatenates
// the normalized PDFs into the week folder.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/classifier"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/pdfinspect"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/pkg/utils"
)

// =============================================================================
// MERGE PLAN
// =============================================================================

// BuildPlan orders the ready documents: the invoice first when it normalized
// successfully, then items in the order given. Pending and failed items are
// left out.
func BuildPlan(invoice *types.WorkItem, items []types.WorkItem) types.MergePlan {
	var plan types.MergePlan
	if invoice != nil && invoice.Status == types.StatusReady {
		plan.Entries = append(plan.Entries, *invoice)
		plan.HasInvoice = true
		plan.InvoiceName = invoice.Name
	}
	for _, it := range items {
		if it.Status == types.StatusReady && !it.IsInvoice() {
			plan.Entries = append(plan.Entries, it)
		}
	}
	return plan
}

// OutputName returns "{invoice stem}_.pdf" when the plan leads with an
// invoice, otherwise "{client}_Week_{MM-DD}.pdf".
func OutputName(plan types.MergePlan, client string, week types.WeekSelector) string {
	if plan.HasInvoice {
		return strings.TrimSuffix(plan.InvoiceName, filepath.Ext(plan.InvoiceName)) + "_.pdf"
	}
	return classifier.OutputNameFor(utils.SafeName(client), week.Label())
}

// =============================================================================
// ASSEMBLY
// =============================================================================

// Assembler concatenates plans. Intermediate files go to ScratchDir; only
// the verified result is moved into the week folder.
type Assembler struct {
	ScratchDir string
	Logger     *slog.Logger
}

// NewAssembler returns an Assembler writing intermediates under scratchDir.
func NewAssembler(scratchDir string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{ScratchDir: scratchDir, Logger: logger}
}

// Merge writes plan as weekDir/name. An empty plan produces no file and a
// skipped result. Any failure leaves the week folder untouched and wraps
// types.ErrMerge.
func (a *Assembler) Merge(ctx context.Context, plan types.MergePlan, weekDir, name string) (types.MergeResult, error) {
	if plan.Len() == 0 {
		return types.MergeResult{Status: types.MergeSkipped}, nil
	}
	if err := ctx.Err(); err != nil {
		return types.MergeResult{Status: types.MergeFailed}, err
	}

	pages, err := a.merge(plan, name)
	if err != nil {
		return types.MergeResult{Status: types.MergeFailed}, fmt.Errorf("%w: %s: %w", types.ErrMerge, name, err)
	}

	dst := filepath.Join(weekDir, name)
	if err := utils.MoveFile(pages.path, dst); err != nil {
		return types.MergeResult{Status: types.MergeFailed}, fmt.Errorf("%w: %w", types.ErrMerge, err)
	}

	a.Logger.Debug("merged output placed", "path", dst, "pages", pages.count, "documents", plan.Len())
	return types.MergeResult{OutputPath: dst, Status: types.MergeMerged, Pages: pages.count}, nil
}

type merged struct {
	path  string
	count int
}

func (a *Assembler) merge(plan types.MergePlan, name string) (merged, error) {
	want := 0
	for _, e := range plan.Entries {
		n, err := pdfinspect.PageCount(e.Output)
		if err != nil {
			return merged{}, fmt.Errorf("read %s: %w", e.Name, err)
		}
		want += n
	}

	dir, err := os.MkdirTemp(a.ScratchDir, "merge-")
	if err != nil {
		return merged{}, err
	}
	out := filepath.Join(dir, name)

	conf := model.NewDefaultConfiguration()
	if plan.Len() == 1 {
		err = api.OptimizeFile(plan.Entries[0].Output, out, conf)
	} else {
		err = api.MergeCreateFile(plan.Paths(), out, false, conf)
	}
	if err != nil {
		return merged{}, fmt.Errorf("pdfcpu merge: %w", err)
	}

	got, err := pdfinspect.PageCount(out)
	if err != nil {
		return merged{}, fmt.Errorf("verify merged output: %w", err)
	}
	if got != want {
		return merged{}, fmt.Errorf("merged output has %d pages, expected %d", got, want)
	}
	return merged{path: out, count: got}, nil
}
