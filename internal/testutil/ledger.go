package testutil

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// WriteLedger writes ledger.xlsx into dir with client names in column B from
// row 4 and a header in row 3.
func WriteLedger(t testing.TB, dir string, names ...string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	f.SetCellValue(sheet, "B3", "Client")
	f.SetCellValue(sheet, "G3", "Merged PDF")
	for i, n := range names {
		cell, err := excelize.CoordinatesToCellName(2, 4+i)
		if err != nil {
			t.Fatal(err)
		}
		f.SetCellValue(sheet, cell, n)
	}
	path := filepath.Join(dir, "ledger.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

// LedgerCell reads one cell from the first sheet of the workbook at path.
func LedgerCell(t testing.TB, path, axis string) string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	v, err := f.GetCellValue(f.GetSheetName(0), axis)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// SetLedgerCell writes value into one cell of the first sheet and saves.
func SetLedgerCell(t testing.TB, path, axis, value string) {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := f.SetCellValue(f.GetSheetName(0), axis, value); err != nil {
		t.Fatal(err)
	}
	if err := f.Save(); err != nil {
		t.Fatal(err)
	}
}
