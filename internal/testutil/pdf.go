// Package testutil builds small, valid document fixtures for tests.
package testutil

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// PageSpec describes one synthesized PDF page.
type PageSpec struct {
	Width  float64
	Height float64
	Rotate int
	Text   string
}

// Portrait is a US Letter portrait page.
func Portrait(text string) PageSpec { return PageSpec{Width: 612, Height: 792, Text: text} }

// Landscape is a US Letter landscape page.
func Landscape(text string) PageSpec { return PageSpec{Width: 792, Height: 612, Text: text} }

// BuildPDF returns a minimal PDF with correct xref offsets.
func BuildPDF(pages ...PageSpec) []byte {
	// Object layout: 1 catalog, 2 pages, 3 font, then (page, content) pairs.
	nObjs := 3 + 2*len(pages)
	offsets := make([]int, nObjs+1)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	offsets[1] = b.Len()
	b.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets[2] = b.Len()
	fmt.Fprintf(&b, "2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), len(pages))

	offsets[3] = b.Len()
	b.WriteString("3 0 obj\n<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>\nendobj\n")

	for i, p := range pages {
		pageNr, contentNr := 4+2*i, 5+2*i
		text := p.Text
		if text == "" {
			text = "page " + strconv.Itoa(i+1)
		}
		stream := "BT\n/F1 12 Tf\n72 72 Td\n(" + escape(text) + ") Tj\nET"

		offsets[pageNr] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s]", pageNr, num(p.Width), num(p.Height))
		if p.Rotate != 0 {
			fmt.Fprintf(&b, " /Rotate %d", p.Rotate)
		}
		fmt.Fprintf(&b, " /Contents %d 0 R /Resources << /Font << /F1 3 0 R >> >> >>\nendobj\n", contentNr)

		offsets[contentNr] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", contentNr, len(stream), stream)
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", nObjs+1)
	b.WriteString("0000000000 65535 f \n")
	for i := 1; i <= nObjs; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", nObjs+1, xref)

	return []byte(b.String())
}

// WritePDF writes a synthesized PDF to dir/name and returns its path.
func WritePDF(t testing.TB, dir, name string, pages ...PageSpec) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, BuildPDF(pages...), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// WritePNG writes a solid w×h PNG to dir/name and returns its path.
func WritePNG(t testing.TB, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 30, G: 90, B: 200, A: 200})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// WriteJPEG writes a w×h JPEG to dir/name and returns its path.
func WriteJPEG(t testing.TB, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 40, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "(", `\(`)
	return strings.ReplaceAll(s, ")", `\)`)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
