package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/config"
	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// selectionFlags are shared by run and scan.
type selectionFlags struct {
	clients []string
	all     bool
	week    string
	month   int
	day     int
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.clients, "clients", nil, "Comma-separated client IDs to process")
	cmd.Flags().BoolVar(&f.all, "all", false, "Process every client listed in the configuration")
	cmd.Flags().StringVar(&f.week, "week", "", `Week label "MM-DD" (alternative to --month/--day)`)
	cmd.Flags().IntVar(&f.month, "month", 0, "Week month (1-12)")
	cmd.Flags().IntVar(&f.day, "day", 0, "Week day of month (1-31)")
}

// weekSelector validates the week flags.
func (f *selectionFlags) weekSelector() (types.WeekSelector, error) {
	if f.week != "" {
		if f.month != 0 || f.day != 0 {
			return types.WeekSelector{}, fmt.Errorf("use either --week or --month/--day, not both")
		}
		return types.ParseWeekSelector(f.week)
	}
	if f.month == 0 || f.day == 0 {
		return types.WeekSelector{}, fmt.Errorf("a week is required: --week MM-DD or --month and --day")
	}
	return types.NewWeekSelector(f.month, f.day)
}

// clientRecords resolves --clients / --all against the configured list.
func (f *selectionFlags) clientRecords(cfg *config.MainConfig) ([]types.ClientRecord, error) {
	var ids []string
	switch {
	case f.all && len(f.clients) > 0:
		return nil, fmt.Errorf("use either --clients or --all, not both")
	case f.all:
		ids = cfg.Clients
	default:
		ids = f.clients
	}

	var out []types.ClientRecord
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !f.all && len(cfg.Clients) > 0 && !cfg.HasClient(id) {
			slog.Warn("client is not in the configured client list", "client", id)
		}
		out = append(out, types.ClientRecord{ID: id})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("select at least one client with --clients or --all")
	}
	return out, nil
}
