// =============================================================================
// Timesheet & Invoice Merger - Run Log File
// =============================================================================
//
// Writes log events to Log_Week_{MM-DD}_{YYYYMMDD_HHMMSS}.txt with the
// INFO / OK / WARN / ERROR tags.
//
// =============================================================================

package events

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// FileSink writes log events to the per-run log file, one line each, tagged
// INFO, OK, WARN, or ERROR. Progress and counter events are not written.
type FileSink struct {
	file   *os.File
	logger *slog.Logger
}

// NewFileSink creates (or truncates) the log file at path.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log: %w", err)
	}
	return &FileSink{file: f, logger: slog.New(NewLineHandler(f))}, nil
}

// NewLineHandler returns a text handler that prints the custom severity tags.
func NewLineHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key != slog.LevelKey || len(groups) > 0 {
				return a
			}
			level, _ := a.Value.Any().(slog.Level)
			switch {
			case level >= slog.LevelError:
				a.Value = slog.StringValue(SevError.String())
			case level >= slog.LevelWarn:
				a.Value = slog.StringValue(SevWarn.String())
			case level >= LevelOK:
				a.Value = slog.StringValue(SevOK.String())
			default:
				a.Value = slog.StringValue(SevInfo.String())
			}
			return a
		},
	})
}

// Path returns the log file location.
func (s *FileSink) Path() string { return s.file.Name() }

func (s *FileSink) Emit(e Event) {
	switch e.Kind {
	case KindLog:
		var attrs []slog.Attr
		if e.Client != "" {
			attrs = append(attrs, slog.String("client", e.Client))
		}
		if e.File != "" {
			attrs = append(attrs, slog.String("file", e.File))
		}
		s.logger.LogAttrs(context.Background(), e.Severity.Level(), e.Message, attrs...)
	case KindDone:
		if e.Summary == nil {
			return
		}
		sum := e.Summary
		s.logger.LogAttrs(context.Background(), outcomeLevel(sum), "run finished",
			slog.String("outcome", string(sum.Outcome())),
			slog.Int("processed", sum.Processed),
			slog.Int("merged", sum.Merged),
			slog.Int("warnings", sum.Warnings),
			slog.Int("errors", sum.Errors),
		)
	}
}

// Close flushes and closes the file.
func (s *FileSink) Close() error {
	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

func outcomeLevel(s *types.RunSummary) slog.Level {
	switch s.Outcome() {
	case types.OutcomeErrors:
		return slog.LevelError
	case types.OutcomeWarnings:
		return slog.LevelWarn
	default:
		return LevelOK
	}
}
