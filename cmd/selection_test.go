package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/config"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

func TestWeekSelector(t *testing.T) {
	tests := []struct {
		name    string
		flags   selectionFlags
		want    string
		wantErr bool
	}{
		{"label", selectionFlags{week: "8-3"}, "08-03", false},
		{"month and day", selectionFlags{month: 12, day: 28}, "12-28", false},
		{"both forms", selectionFlags{week: "08-03", month: 8}, "", true},
		{"none", selectionFlags{}, "", true},
		{"day only", selectionFlags{day: 3}, "", true},
		{"bad month", selectionFlags{month: 13, day: 1}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.weekSelector()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got.Label() != tt.want {
				t.Errorf("label = %s, want %s", got.Label(), tt.want)
			}
		})
	}
}

func TestClientRecords(t *testing.T) {
	cfg := &config.MainConfig{Clients: []string{"Acme", "Globex"}}

	all := selectionFlags{all: true}
	got, err := all.clientRecords(cfg)
	if err != nil || len(got) != 2 || got[1].ID != "Globex" {
		t.Fatalf("--all = %+v, %v", got, err)
	}

	picked := selectionFlags{clients: []string{" Acme ", "", "Initech"}}
	got, err = picked.clientRecords(cfg)
	if err != nil || len(got) != 2 || got[0].ID != "Acme" || got[1].ID != "Initech" {
		t.Fatalf("--clients = %+v, %v", got, err)
	}

	if _, err := (&selectionFlags{all: true, clients: []string{"Acme"}}).clientRecords(cfg); err == nil {
		t.Error("expected error for --all with --clients")
	}
	if _, err := (&selectionFlags{}).clientRecords(cfg); err == nil {
		t.Error("expected error for empty selection")
	}
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	} {
		var out bytes.Buffer
		got, err := confirm(strings.NewReader(input), &out, "Continue?")
		if err != nil {
			t.Fatalf("%q: %v", input, err)
		}
		if got != want {
			t.Errorf("%q: got %v, want %v", input, got, want)
		}
		if !strings.Contains(out.String(), "Continue? [y/N]") {
			t.Errorf("prompt = %q", out.String())
		}
	}
}

func TestRenderScan(t *testing.T) {
	report := types.ScanReport{
		Week: "08-03",
		Entries: []types.ScanEntry{
			{Client: "Acme", ClientFound: true, WeekPath: "/r/Acme/August/Week 08-03", Files: []string{"a.pdf", "b.png"}},
			{Client: "Globex", ClientFound: true, Reason: "week folder missing"},
			{Client: "Initech", Reason: "client folder missing"},
		},
		TotalFiles: 2,
	}
	out := renderScan(report)
	for _, want := range []string{"Acme", "found", "week folder missing", "client folder missing", "3 client(s), 2 file(s), 2 missing folder(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}
