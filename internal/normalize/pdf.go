// =============================================================================
// Timesheet & Invoice Merger - PDF Normalization
// =============================================================================
//
// Rotates landscape pages of a PDF to portrait with pdfcpu.
//
// =============================================================================

package normalize

import (
	"fmt"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/himalkarki2074-stack/Timesheets-and-Invoice-merger/internal/pdfinspect"
)

// LandscapePages returns the 1-based numbers of pages that need rotation.
func LandscapePages(pages []pdfinspect.Page, ratio float64) []string {
	var sel []string
	for i, p := range pages {
		if p.NeedsRotation(ratio) {
			sel = append(sel, strconv.Itoa(i+1))
		}
	}
	return sel
}

// normalizePDF writes src to dst with landscape pages turned to portrait.
// A PDF that is already portrait is re-encoded without rotation.
func (n *Normalizer) normalizePDF(src, dst string) error {
	pages, err := pdfinspect.Pages(src)
	if err != nil {
		return err
	}

	conf := model.NewDefaultConfiguration()
	sel := LandscapePages(pages, n.opts.RotateRatio)
	if len(sel) == 0 {
		if err := api.OptimizeFile(src, dst, conf); err != nil {
			return fmt.Errorf("pdfcpu re-encode: %w", err)
		}
		return nil
	}

	n.opts.Logger.Debug("rotating landscape pages", "file", src, "pages", sel)
	if err := api.RotateFile(src, dst, 90, sel, conf); err != nil {
		return fmt.Errorf("pdfcpu rotate: %w", err)
	}
	return nil
}
