package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/config"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/events"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/journal"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/pdfinspect"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/testutil"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

var week = types.WeekSelector{Month: 8, Day: 3}

type noConverter struct{}

func (noConverter) Convert(context.Context, string, string) (string, error) {
	return "", errors.New("converter not available in tests")
}

type env struct {
	t      *testing.T
	cfg    *config.MainConfig
	ledger string
	temp   string
	rec    *events.Recorder
}

func newEnv(t *testing.T, ledgerNames ...string) *env {
	t.Helper()
	base := t.TempDir()
	e := &env{t: t, rec: &events.Recorder{}}
	for _, d := range []string{"root", "logs", "tmp", "share"} {
		if err := os.MkdirAll(filepath.Join(base, d), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	e.ledger = testutil.WriteLedger(t, filepath.Join(base, "share"), ledgerNames...)
	e.temp = filepath.Join(base, "tmp")
	e.cfg = &config.MainConfig{
		RootDir:    filepath.Join(base, "root"),
		TempDir:    e.temp,
		LedgerFile: e.ledger,
		Ledger:     config.LedgerConfig{NameColumn: "B", PathColumn: "G", StartRow: 4},
		LogDir:     filepath.Join(base, "logs"),
		Normalize:  config.NormalizeConfig{RotateRatio: 1, JPEGQuality: 90},
	}
	return e
}

// weekDir creates {root}/{client}/{month}/Week 08-03.
func (e *env) weekDir(client, month string) string {
	e.t.Helper()
	dir := filepath.Join(e.cfg.RootDir, client, month, week.FolderName())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		e.t.Fatal(err)
	}
	return dir
}

func (e *env) orchestrator(opts Options) *Orchestrator {
	opts.Config = e.cfg
	opts.Sink = e.rec
	if opts.Converter == nil {
		opts.Converter = noConverter{}
	}
	return New(opts)
}

func clients(ids ...string) []types.ClientRecord {
	out := make([]types.ClientRecord, len(ids))
	for i, id := range ids {
		out[i] = types.ClientRecord{ID: id}
	}
	return out
}

func TestRunAcmeScenario(t *testing.T) {
	e := newEnv(t, "Acme")
	dir := e.weekDir("Acme", "08 August")
	testutil.WritePDF(t, dir, "Invoice_123.pdf", testutil.Landscape("inv 1"), testutil.Landscape("inv 2"))
	testutil.WriteJPEG(t, dir, "TS_1.jpg", 60, 90)

	sum, err := e.orchestrator(Options{}).Run(context.Background(), clients("Acme"), week)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Merged != 1 || sum.Processed != 1 || sum.Outcome() != types.OutcomeClean {
		t.Fatalf("summary = %+v", sum)
	}

	want := filepath.Join(dir, "Invoice_123_.pdf")
	c := sum.Clients[0]
	if c.State != types.ClientMerged || c.OutputPath != want || c.Pages != 3 || c.LedgerRow != 4 {
		t.Fatalf("client = %+v", c)
	}

	pages, err := pdfinspect.Pages(want)
	if err != nil || len(pages) != 3 {
		t.Fatalf("output pages = %d, %v", len(pages), err)
	}
	for i, p := range pages[:2] {
		if !p.Portrait() {
			t.Errorf("invoice page %d not portrait", i+1)
		}
	}

	if got := testutil.LedgerCell(t, e.ledger, "G4"); got != want {
		t.Errorf("ledger G4 = %q, want %q", got, want)
	}

	entries, _ := os.ReadDir(e.temp)
	if len(entries) != 0 {
		t.Errorf("temporary directory left behind: %v", entries)
	}
	if _, err := os.Stat(sum.LogFile); err != nil {
		t.Errorf("run log: %v", err)
	}

	evs := e.rec.Events()
	if last := evs[len(evs)-1]; last.Kind != events.KindDone || last.Summary == nil {
		t.Errorf("last event = %+v, want done", last)
	}
}

func TestRunMissingWeekContinues(t *testing.T) {
	e := newEnv(t, "Acme", "Globex")
	e.weekDir("Acme", "07 July")
	os.RemoveAll(filepath.Join(e.cfg.RootDir, "Acme", "07 July", week.FolderName()))
	g := e.weekDir("Globex", "08 August")
	testutil.WritePDF(t, g, "timesheet.pdf", testutil.Portrait("ts"))

	sum, err := e.orchestrator(Options{}).Run(context.Background(), clients("Acme", "Globex"), week)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sum.Missing) != 1 || !strings.HasPrefix(sum.Missing[0], "Acme") {
		t.Fatalf("missing = %v", sum.Missing)
	}
	if sum.Clients[0].State != types.ClientNotFound || sum.Clients[0].Message != "week folder missing" {
		t.Errorf("acme = %+v", sum.Clients[0])
	}
	if sum.Clients[1].State != types.ClientMerged || sum.Merged != 1 {
		t.Errorf("globex = %+v", sum.Clients[1])
	}
	if sum.Warnings != 1 || sum.Outcome() != types.OutcomeWarnings {
		t.Errorf("warnings = %d, outcome = %s", sum.Warnings, sum.Outcome())
	}
	if got := testutil.LedgerCell(t, e.ledger, "G4"); got != "" {
		t.Errorf("ledger touched for Acme: %q", got)
	}
	if got := testutil.LedgerCell(t, e.ledger, "G5"); !strings.HasSuffix(got, "Globex_Week_08-03.pdf") {
		t.Errorf("ledger G5 = %q", got)
	}
}

func TestRunClientFolderMissing(t *testing.T) {
	e := newEnv(t, "Acme")
	sum, err := e.orchestrator(Options{}).Run(context.Background(), clients("Acme"), week)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Clients[0].Message != "client folder missing" {
		t.Errorf("message = %q", sum.Clients[0].Message)
	}
}

func TestRunEmptyFolderSkipped(t *testing.T) {
	e := newEnv(t, "Acme")
	dir := e.weekDir("Acme", "08 August")
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644)

	sum, err := e.orchestrator(Options{}).Run(context.Background(), clients("Acme"), week)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Clients[0].State != types.ClientSkipped || sum.Merged != 0 || sum.Warnings != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("week folder changed: %d entries", len(entries))
	}
	if len(e.rec.Logs(events.SevWarn)) == 0 {
		t.Error("no warning event")
	}
}

func TestRunEmptyFolderClearsLedgerPath(t *testing.T) {
	e := newEnv(t, "Acme")
	stale := "/share/Acme/07 July/Week 07-27/Invoice_99_.pdf"
	testutil.SetLedgerCell(t, e.ledger, "G4", stale)
	e.weekDir("Acme", "08 August")

	sum, err := e.orchestrator(Options{}).Run(context.Background(), clients("Acme"), week)
	if err != nil {
		t.Fatal(err)
	}
	c := sum.Clients[0]
	if c.State != types.ClientSkipped || c.LedgerRow != 4 {
		t.Fatalf("client = %+v", c)
	}
	if got := testutil.LedgerCell(t, e.ledger, "G4"); got != "" {
		t.Errorf("ledger G4 = %q, want cleared", got)
	}
}

func TestRunMissingFolderKeepsLedgerPath(t *testing.T) {
	e := newEnv(t, "Acme")
	stale := "/share/Acme/07 July/Week 07-27/Invoice_99_.pdf"
	testutil.SetLedgerCell(t, e.ledger, "G4", stale)

	if _, err := e.orchestrator(Options{}).Run(context.Background(), clients("Acme"), week); err != nil {
		t.Fatal(err)
	}
	if got := testutil.LedgerCell(t, e.ledger, "G4"); got != stale {
		t.Errorf("ledger G4 = %q, want %q", got, stale)
	}
}

func TestRunDryRunEmptyFolderKeepsLedgerPath(t *testing.T) {
	e := newEnv(t, "Acme")
	stale := "/share/Acme/07 July/Week 07-27/Invoice_99_.pdf"
	testutil.SetLedgerCell(t, e.ledger, "G4", stale)
	e.weekDir("Acme", "08 August")

	if _, err := e.orchestrator(Options{DryRun: true}).Run(context.Background(), clients("Acme"), week); err != nil {
		t.Fatal(err)
	}
	if got := testutil.LedgerCell(t, e.ledger, "G4"); got != stale {
		t.Errorf("dry run changed ledger G4 to %q", got)
	}
}

func TestRunOneFailedFileOfThree(t *testing.T) {
	e := newEnv(t, "Acme")
	dir := e.weekDir("Acme", "08 August")
	testutil.WritePDF(t, dir, "a.pdf", testutil.Portrait("a"))
	os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("corrupt"), 0o644)
	testutil.WritePNG(t, dir, "c.png", 40, 60)

	sum, err := e.orchestrator(Options{}).Run(context.Background(), clients("Acme"), week)
	if err != nil {
		t.Fatal(err)
	}
	c := sum.Clients[0]
	if c.State != types.ClientMerged || c.Pages != 2 {
		t.Fatalf("client = %+v", c)
	}
	if len(c.FailedFiles) != 1 || c.FailedFiles[0] != "b.pdf" {
		t.Errorf("failed files = %v", c.FailedFiles)
	}
	if sum.Errors != 1 || sum.Outcome() != types.OutcomeErrors {
		t.Errorf("errors = %d", sum.Errors)
	}
}

func TestRunWordDocumentWithoutConverter(t *testing.T) {
	e := newEnv(t, "Acme")
	dir := e.weekDir("Acme", "08 August")
	testutil.WritePDF(t, dir, "Invoice.pdf", testutil.Portrait("inv"))
	os.WriteFile(filepath.Join(dir, "Timesheet.docx"), []byte("docx"), 0o644)

	sum, err := e.orchestrator(Options{}).Run(context.Background(), clients("Acme"), week)
	if err != nil {
		t.Fatal(err)
	}
	c := sum.Clients[0]
	if c.State != types.ClientMerged || c.Pages != 1 || len(c.FailedFiles) != 1 {
		t.Fatalf("client = %+v", c)
	}
}

func TestRunLedgerOpenFailureAborts(t *testing.T) {
	e := newEnv(t, "Acme")
	e.cfg.LedgerFile = filepath.Join(t.TempDir(), "missing.xlsx")
	dir := e.weekDir("Acme", "08 August")
	testutil.WritePDF(t, dir, "a.pdf", testutil.Portrait("a"))

	sum, err := e.orchestrator(Options{}).Run(context.Background(), clients("Acme"), week)
	if !errors.Is(err, types.ErrLedgerOpen) {
		t.Fatalf("err = %v, want ErrLedgerOpen", err)
	}
	if sum.Processed != 0 || sum.Outcome() != types.OutcomeErrors {
		t.Errorf("summary = %+v", sum)
	}
	if _, err := os.Stat(filepath.Join(dir, "Acme_Week_08-03.pdf")); !os.IsNotExist(err) {
		t.Error("output written despite abort")
	}
}

func TestRunLedgerSaveFailureKeepsOutputs(t *testing.T) {
	e := newEnv(t, "Acme")
	dir := e.weekDir("Acme", "08 August")
	testutil.WritePDF(t, dir, "a.pdf", testutil.Portrait("a"))

	// The ledger directory disappears mid-run; the workbook was already read.
	conv := &removeOnConvert{path: filepath.Dir(e.ledger)}
	os.WriteFile(filepath.Join(dir, "b.docx"), []byte("docx"), 0o644)

	sum, err := e.orchestrator(Options{Converter: conv}).Run(context.Background(), clients("Acme"), week)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !errors.Is(sum.LedgerSaveErr, types.ErrLedgerSave) || sum.Outcome() != types.OutcomeErrors {
		t.Fatalf("ledger err = %v", sum.LedgerSaveErr)
	}
	if _, err := os.Stat(sum.Clients[0].OutputPath); err != nil {
		t.Errorf("merged output rolled back: %v", err)
	}
}

type removeOnConvert struct{ path string }

func (r *removeOnConvert) Convert(context.Context, string, string) (string, error) {
	os.RemoveAll(r.path)
	return "", errors.New("no renderer")
}

func TestRunDryRunWritesNothing(t *testing.T) {
	e := newEnv(t, "Acme")
	dir := e.weekDir("Acme", "08 August")
	testutil.WritePDF(t, dir, "Invoice_1.pdf", testutil.Landscape("inv"))

	sum, err := e.orchestrator(Options{DryRun: true}).Run(context.Background(), clients("Acme"), week)
	if err != nil {
		t.Fatal(err)
	}
	if !sum.DryRun || sum.Merged != 0 || sum.Clients[0].State != types.ClientSkipped {
		t.Fatalf("summary = %+v", sum)
	}
	if _, err := os.Stat(filepath.Join(dir, "Invoice_1_.pdf")); !os.IsNotExist(err) {
		t.Error("dry run wrote output")
	}
	if got := testutil.LedgerCell(t, e.ledger, "G4"); got != "" {
		t.Errorf("dry run saved ledger: %q", got)
	}
}

func TestRunTwiceIsIdempotent(t *testing.T) {
	e := newEnv(t, "Acme")
	dir := e.weekDir("Acme", "08 August")
	testutil.WritePDF(t, dir, "Invoice_123.pdf", testutil.Landscape("inv"))
	testutil.WritePDF(t, dir, "ts.pdf", testutil.Portrait("ts"))

	o := e.orchestrator(Options{})
	first, err := o.Run(context.Background(), clients("Acme"), week)
	if err != nil {
		t.Fatal(err)
	}
	second, err := o.Run(context.Background(), clients("Acme"), week)
	if err != nil {
		t.Fatal(err)
	}
	if first.Clients[0].Pages != 2 || second.Clients[0].Pages != 2 {
		t.Fatalf("pages = %d then %d", first.Clients[0].Pages, second.Clients[0].Pages)
	}
	if first.RunID == second.RunID {
		t.Error("run ids repeat")
	}
	if got := testutil.LedgerCell(t, e.ledger, "G4"); got != second.Clients[0].OutputPath {
		t.Errorf("ledger G4 = %q", got)
	}
	if got := testutil.LedgerCell(t, e.ledger, "G5"); got != "" {
		t.Errorf("rerun wrote another row: %q", got)
	}
}

func TestRunCancelled(t *testing.T) {
	e := newEnv(t, "Acme")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := e.orchestrator(Options{}).Run(ctx, clients("Acme"), week)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if sum.Processed != 0 {
		t.Errorf("processed = %d", sum.Processed)
	}
}

func TestRunNoClients(t *testing.T) {
	e := newEnv(t)
	if _, err := e.orchestrator(Options{}).Run(context.Background(), clients(" ", ""), week); !errors.Is(err, ErrNoClients) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunRecordsJournal(t *testing.T) {
	e := newEnv(t, "Acme")
	j, err := journal.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	sum, _ := e.orchestrator(Options{Journal: j}).Run(context.Background(), clients("Acme", "Acme"), week)
	runs, err := j.Recent(context.Background(), 5)
	if err != nil || len(runs) != 1 || runs[0].RunID != sum.RunID {
		t.Fatalf("runs = %+v, %v", runs, err)
	}
	recorded, _ := j.Clients(context.Background(), sum.RunID)
	if len(recorded) != 1 {
		t.Errorf("duplicate client not collapsed: %d rows", len(recorded))
	}
}

func TestScanCountsFilesAndTasks(t *testing.T) {
	e := newEnv(t)
	dir := e.weekDir("Acme", "08 August")
	testutil.WritePDF(t, dir, "a.pdf", testutil.Portrait("a"))
	os.WriteFile(filepath.Join(dir, "b.docx"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644)

	r := e.orchestrator(Options{}).Scan(context.Background(), clients("Acme", "Globex"), week)
	if r.TotalFiles != 2 || r.TotalTasks != TasksFound+TasksMissing {
		t.Fatalf("report = %+v", r)
	}
	if m := r.Missing(); len(m) != 1 || m[0] != "Globex" {
		t.Errorf("missing = %v", m)
	}
}

func TestScanIgnoresEarlierOutputs(t *testing.T) {
	e := newEnv(t, "Acme")
	dir := e.weekDir("Acme", "08 August")
	testutil.WritePDF(t, dir, "Invoice_123.pdf", testutil.Portrait("inv"))
	testutil.WritePDF(t, dir, "ts.pdf", testutil.Portrait("ts"))

	o := e.orchestrator(Options{})
	if _, err := o.Run(context.Background(), clients("Acme"), week); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Invoice_123_.pdf")); err != nil {
		t.Fatalf("output missing: %v", err)
	}

	r := o.Scan(context.Background(), clients("Acme"), week)
	if r.TotalFiles != 2 || len(r.Entries[0].Files) != 2 {
		t.Fatalf("files = %v", r.Entries[0].Files)
	}
}

func TestProgressReachesHundred(t *testing.T) {
	e := newEnv(t, "Acme")
	dir := e.weekDir("Acme", "08 August")
	testutil.WritePDF(t, dir, "a.pdf", testutil.Portrait("a"))

	e.orchestrator(Options{}).Run(context.Background(), clients("Acme", "Missing"), week)

	last := -1.0
	for _, ev := range e.rec.Events() {
		if ev.Kind != events.KindProgress {
			continue
		}
		if ev.Percent < last {
			t.Errorf("progress went backwards: %g after %g", ev.Percent, last)
		}
		last = ev.Percent
	}
	if last < 99.999 {
		t.Errorf("final progress = %g", last)
	}
}

func TestTracker(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }
	tr := NewTracker(4, clock)

	now = now.Add(10 * time.Second)
	pct, eta := tr.Advance(1)
	if pct != 25 || eta != 30*time.Second {
		t.Errorf("Advance = %g, %s", pct, eta)
	}

	pct, eta = tr.Advance(10)
	if pct != 100 || eta != 0 {
		t.Errorf("overflow Advance = %g, %s", pct, eta)
	}

	if pct, _ := NewTracker(0, clock).Advance(1); pct != 100 {
		t.Errorf("empty tracker = %g", pct)
	}
}
