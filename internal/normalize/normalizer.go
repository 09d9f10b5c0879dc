// =============================================================================
// Timesheet & Invoice Merger - Document Normalizer
// =============================================================================
//
// Turns each discovered document into a normalized PDF in scratch space.
//
// =============================================================================

// Package normalize converts supporting documents into portrait-biased PDFs
// that the merge step can concatenate.
//
// Rules:
//   - PDF: every page whose displayed width exceeds its height (times the
//     configured ratio) is rotated 90 degrees; other pages are re-encoded as-is.
//   - Image: EXIF orientation is applied, transparency is flattened onto white,
//     and the result becomes a single-page PDF. No further rotation.
//   - Word: an external converter renders a PDF, which then gets the PDF rule.
//
// Source files are only read. All outputs go to the caller's scratch directory.
package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/types"
)

// Options configures a Normalizer.
type Options struct {
	// RotateRatio rotates pages with width > height * RotateRatio.
	RotateRatio float64

	// JPEGQuality is used when re-encoding images.
	JPEGQuality int

	// Converter renders word-processor documents. Nil disables them.
	Converter Converter

	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.RotateRatio < 1 {
		o.RotateRatio = 1
	}
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		o.JPEGQuality = 90
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Normalizer turns WorkItems into ready PDFs.
type Normalizer struct {
	opts Options
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	opts.defaults()
	return &Normalizer{opts: opts}
}

// Normalize converts item into a PDF under outDir and records the outcome on
// the item: Status becomes ready with Output set, or failed with Err set. The
// returned error equals item.Err and wraps types.ErrConversion.
func (n *Normalizer) Normalize(ctx context.Context, item *types.WorkItem, outDir string) error {
	if item.Status != types.StatusPending {
		return fmt.Errorf("work item %s already %s", item.Name, item.Status)
	}
	if err := ctx.Err(); err != nil {
		return n.fail(item, err)
	}

	dst := filepath.Join(outDir, outputName(item.Name))
	n.opts.Logger.Debug("normalizing document", "file", item.Name, "format", item.Format, "out", dst)

	var err error
	switch item.Format {
	case types.KindPDF:
		err = n.normalizePDF(item.Path, dst)
	case types.KindImage:
		err = n.imageToPDF(item.Path, dst)
	case types.KindWord:
		err = n.wordToPDF(ctx, item.Path, outDir, dst)
	default:
		err = fmt.Errorf("%w: %s", types.ErrUnsupported, item.Name)
	}
	if err != nil {
		_ = os.Remove(dst)
		return n.fail(item, err)
	}

	item.Status = types.StatusReady
	item.Output = dst
	return nil
}

func (n *Normalizer) fail(item *types.WorkItem, err error) error {
	item.Status = types.StatusFailed
	item.Err = fmt.Errorf("%w: %s: %w", types.ErrConversion, item.Name, err)
	return item.Err
}

// outputName keeps the extension in the name so "a.pdf" and "a.docx" in the
// same folder never collide.
func outputName(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%s.pdf", base, strings.TrimPrefix(strings.ToLower(ext), "."))
}
