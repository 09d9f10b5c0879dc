// =============================================================================
// Timesheet & Invoice Merger - PDF Inspection
// =============================================================================
//
// Reads page geometry (MediaBox, Rotate) and page counts.
//
// =============================================================================

// Package pdfinspect reads page geometry from PDF files: the effective page
// size after /Rotate is applied, and the page count.
package pdfinspect

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// maxInheritDepth bounds the walk up the page tree for inherited attributes.
const maxInheritDepth = 32

// Page is the geometry of one page.
type Page struct {
	// Width and Height come from the MediaBox, before rotation.
	Width  float64
	Height float64

	// Rotate is the /Rotate value normalized to 0, 90, 180, or 270.
	Rotate int
}

// Effective returns the displayed width and height after rotation.
func (p Page) Effective() (w, h float64) {
	if p.Rotate%180 != 0 {
		return p.Height, p.Width
	}
	return p.Width, p.Height
}

// NeedsRotation reports whether the displayed page is wider than
// ratio times its height.
func (p Page) NeedsRotation(ratio float64) bool {
	w, h := p.Effective()
	if ratio < 1 {
		ratio = 1
	}
	return w > h*ratio
}

// Portrait reports whether the displayed page is not wider than tall.
func (p Page) Portrait() bool {
	w, h := p.Effective()
	return w <= h
}

// Pages returns the geometry of every page in path.
func Pages(path string) (pages []Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser crashed on %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	n := r.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("pdf %s has no pages", path)
	}

	pages = make([]Page, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			return nil, fmt.Errorf("pdf %s: page %d not found", path, i)
		}
		page, err := readPage(p.V)
		if err != nil {
			return nil, fmt.Errorf("pdf %s: page %d: %w", path, i, err)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// PageCount returns the number of pages in path.
func PageCount(path string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser crashed on %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()
	return r.NumPage(), nil
}

func readPage(v pdf.Value) (Page, error) {
	box := inherited(v, "MediaBox")
	if box.Len() != 4 {
		return Page{}, fmt.Errorf("missing or malformed MediaBox")
	}
	llx, lly := box.Index(0).Float64(), box.Index(1).Float64()
	urx, ury := box.Index(2).Float64(), box.Index(3).Float64()

	rot := int(inherited(v, "Rotate").Int64()) % 360
	if rot < 0 {
		rot += 360
	}

	return Page{
		Width:  abs(urx - llx),
		Height: abs(ury - lly),
		Rotate: rot,
	}, nil
}

// inherited looks key up on the page and then on its ancestors.
func inherited(v pdf.Value, key string) pdf.Value {
	for i := 0; i < maxInheritDepth && !v.IsNull(); i++ {
		if val := v.Key(key); !val.IsNull() {
			return val
		}
		v = v.Key("Parent")
	}
	return pdf.Value{}
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
