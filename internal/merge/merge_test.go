package merge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/pdfinspect"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/testutil"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

func ready(name, output string) types.WorkItem {
	return types.WorkItem{Name: name, Kind: types.KindPDF, Format: types.KindPDF, Status: types.StatusReady, Output: output}
}

func TestBuildPlanOrdersInvoiceFirst(t *testing.T) {
	inv := &types.WorkItem{Name: "Invoice_9.pdf", Kind: types.KindInvoice, Format: types.KindPDF, Status: types.StatusReady, Output: "/s/inv.pdf"}
	items := []types.WorkItem{
		ready("a.pdf", "/s/a.pdf"),
		{Name: "b.docx", Status: types.StatusFailed},
		ready("c.jpg", "/s/c.pdf"),
	}

	plan := BuildPlan(inv, items)
	if !plan.HasInvoice || plan.InvoiceName != "Invoice_9.pdf" {
		t.Fatalf("plan = %+v", plan)
	}
	want := []string{"/s/inv.pdf", "/s/a.pdf", "/s/c.pdf"}
	got := plan.Paths()
	if len(got) != len(want) {
		t.Fatalf("paths = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBuildPlanFailedInvoiceExcluded(t *testing.T) {
	inv := &types.WorkItem{Name: "Invoice.pdf", Kind: types.KindInvoice, Status: types.StatusFailed}
	plan := BuildPlan(inv, []types.WorkItem{ready("a.pdf", "/s/a.pdf")})
	if plan.HasInvoice || plan.Len() != 1 {
		t.Fatalf("plan = %+v", plan)
	}
}

func TestOutputName(t *testing.T) {
	week := types.WeekSelector{Month: 8, Day: 3}
	tests := []struct {
		plan types.MergePlan
		want string
	}{
		{types.MergePlan{HasInvoice: true, InvoiceName: "Invoice_123.pdf"}, "Invoice_123_.pdf"},
		{types.MergePlan{HasInvoice: true, InvoiceName: "INV 7.docx"}, "INV 7_.pdf"},
		{types.MergePlan{}, "Acme_Week_08-03.pdf"},
	}
	for _, tc := range tests {
		if got := OutputName(tc.plan, "Acme", week); got != tc.want {
			t.Errorf("OutputName = %q, want %q", got, tc.want)
		}
	}
}

func TestMergeConcatenatesInOrder(t *testing.T) {
	scratch := t.TempDir()
	week := t.TempDir()
	inv := testutil.WritePDF(t, scratch, "inv.pdf", testutil.Portrait("inv-1"), testutil.Portrait("inv-2"))
	ts := testutil.WritePDF(t, scratch, "ts.pdf", testutil.Portrait("ts-1"))

	plan := BuildPlan(
		&types.WorkItem{Name: "Invoice_123.pdf", Kind: types.KindInvoice, Status: types.StatusReady, Output: inv},
		[]types.WorkItem{ready("TS_1.jpg", ts)},
	)
	res, err := NewAssembler(scratch, nil).Merge(context.Background(), plan, week, OutputName(plan, "Acme", types.WeekSelector{Month: 8, Day: 3}))
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if res.Status != types.MergeMerged || res.Pages != 3 {
		t.Fatalf("result = %+v", res)
	}
	if res.OutputPath != filepath.Join(week, "Invoice_123_.pdf") {
		t.Errorf("output = %s", res.OutputPath)
	}
	n, err := pdfinspect.PageCount(res.OutputPath)
	if err != nil || n != 3 {
		t.Fatalf("PageCount = %d, %v", n, err)
	}
}

func TestMergeSingleEntry(t *testing.T) {
	scratch := t.TempDir()
	week := t.TempDir()
	one := testutil.WritePDF(t, scratch, "one.pdf", testutil.Portrait("a"), testutil.Portrait("b"))
	plan := BuildPlan(nil, []types.WorkItem{ready("one.pdf", one)})

	res, err := NewAssembler(scratch, nil).Merge(context.Background(), plan, week, "Acme_Week_08-03.pdf")
	if err != nil || res.Pages != 2 {
		t.Fatalf("Merge = %+v, %v", res, err)
	}
}

func TestMergeEmptyPlanSkipped(t *testing.T) {
	week := t.TempDir()
	res, err := NewAssembler(t.TempDir(), nil).Merge(context.Background(), types.MergePlan{}, week, "x.pdf")
	if err != nil || res.Status != types.MergeSkipped || res.OutputPath != "" {
		t.Fatalf("Merge = %+v, %v", res, err)
	}
	entries, _ := os.ReadDir(week)
	if len(entries) != 0 {
		t.Errorf("week folder has %d entries", len(entries))
	}
}

func TestMergeFailureLeavesWeekFolderClean(t *testing.T) {
	scratch := t.TempDir()
	week := t.TempDir()
	bad := filepath.Join(scratch, "bad.pdf")
	os.WriteFile(bad, []byte("garbage"), 0o644)

	plan := BuildPlan(nil, []types.WorkItem{ready("bad.pdf", bad)})
	res, err := NewAssembler(scratch, nil).Merge(context.Background(), plan, week, "out.pdf")
	if !errors.Is(err, types.ErrMerge) || res.Status != types.MergeFailed {
		t.Fatalf("Merge = %+v, %v", res, err)
	}
	if _, err := os.Stat(filepath.Join(week, "out.pdf")); !os.IsNotExist(err) {
		t.Error("partial output left in week folder")
	}
}
