package classifier

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func itemNames(items []types.WorkItem) []string {
	var out []string
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}

func TestClassifyOrdersAndPicksInvoice(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "ts_b.PNG", "TS_a.jpg", "Invoice_123.pdf", "notes.txt", "Timesheet.docx", "old.doc")
	if err := os.Mkdir(filepath.Join(dir, "archive.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := Classify(dir, Options{ClientID: "Acme", WeekLabel: "08-03"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Invoice == nil || c.Invoice.Name != "Invoice_123.pdf" {
		t.Fatalf("invoice = %+v", c.Invoice)
	}
	if c.Invoice.Kind != types.KindInvoice || c.Invoice.Format != types.KindPDF {
		t.Fatalf("invoice kind/format = %s/%s", c.Invoice.Kind, c.Invoice.Format)
	}
	want := []string{"old.doc", "Timesheet.docx", "TS_a.jpg", "ts_b.PNG"}
	if got := itemNames(c.Items); !reflect.DeepEqual(got, want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(c.Ignored, []string{"notes.txt"}) {
		t.Fatalf("ignored = %v", c.Ignored)
	}
	for _, it := range c.Items {
		if it.Status != types.StatusPending {
			t.Fatalf("%s status = %s", it.Name, it.Status)
		}
	}
	if c.Count() != 5 {
		t.Fatalf("Count = %d", c.Count())
	}
}

func TestClassifyInvoiceRegardlessOfExtension(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "scan-INVOICE.jpg", "week.pdf")

	c, err := Classify(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.Invoice == nil || c.Invoice.Format != types.KindImage {
		t.Fatalf("invoice = %+v", c.Invoice)
	}
}

func TestClassifyKeepsFirstInvoiceOnly(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "invoice_B.pdf", "Invoice_A.pdf", "ts.pdf")

	c, err := Classify(dir, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.Invoice == nil || c.Invoice.Name != "Invoice_A.pdf" {
		t.Fatalf("invoice = %+v", c.Invoice)
	}
	if !reflect.DeepEqual(c.ExtraInvoices, []string{"invoice_B.pdf"}) {
		t.Fatalf("extra = %v", c.ExtraInvoices)
	}
	if got := itemNames(c.Items); !reflect.DeepEqual(got, []string{"ts.pdf"}) {
		t.Fatalf("items = %v", got)
	}
}

func TestClassifySkipsPreviousOutputs(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Invoice_123.pdf", "Invoice_123_.pdf", "Acme_Week_08-03.pdf", "ts_.pdf")

	c, err := Classify(dir, Options{ClientID: "Acme", WeekLabel: "08-03"})
	if err != nil {
		t.Fatal(err)
	}
	if c.Invoice == nil || c.Invoice.Name != "Invoice_123.pdf" {
		t.Fatalf("invoice = %+v", c.Invoice)
	}
	if len(c.ExtraInvoices) != 0 {
		t.Fatalf("earlier output counted as invoice: %v", c.ExtraInvoices)
	}
	if !reflect.DeepEqual(c.PreviousOutputs, []string{"Acme_Week_08-03.pdf", "Invoice_123_.pdf"}) {
		t.Fatalf("previous = %v", c.PreviousOutputs)
	}
	// "ts_.pdf" has no "ts" sibling, so it is a real document.
	if got := itemNames(c.Items); !reflect.DeepEqual(got, []string{"ts_.pdf"}) {
		t.Fatalf("items = %v", got)
	}
}

func TestClassifyKeepsUnderscoredDocumentBesideNonInvoice(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "photo.jpg", "photo_.pdf")

	c, err := Classify(dir, Options{ClientID: "Acme", WeekLabel: "08-03"})
	if err != nil {
		t.Fatal(err)
	}
	if len(c.PreviousOutputs) != 0 {
		t.Fatalf("operator document dropped as earlier output: %v", c.PreviousOutputs)
	}
	if got := itemNames(c.Items); !reflect.DeepEqual(got, []string{"photo.jpg", "photo_.pdf"}) {
		t.Fatalf("items = %v", got)
	}
}

func TestClassifyEmptyFolder(t *testing.T) {
	c, err := Classify(t.TempDir(), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if c.Invoice != nil || len(c.Items) != 0 || c.Count() != 0 {
		t.Fatalf("expected empty classification, got %+v", c)
	}
}

func TestClassifyMissingFolder(t *testing.T) {
	if _, err := Classify(filepath.Join(t.TempDir(), "gone"), Options{}); err == nil {
		t.Fatal("expected error for missing folder")
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "b.pdf", "A.png", "readme.md", "Invoice_7.pdf", "Invoice_7_.pdf", "Acme_Week_08-03.pdf")
	got, err := List(dir, Options{ClientID: "Acme", WeekLabel: "08-03"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "A.png"), filepath.Join(dir, "b.pdf"), filepath.Join(dir, "Invoice_7.pdf")}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
}
