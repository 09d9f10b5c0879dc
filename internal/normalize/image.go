// =============================================================================
// Timesheet & Invoice Merger - Image Normalization
// =============================================================================
//
// Applies EXIF orientation, flattens transparency, and imports the image
// as a one-page PDF.
//
// =============================================================================

package normalize

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// imageToPDF applies EXIF orientation, flattens alpha onto white, re-encodes
// as RGB JPEG, and imports it as a single-page PDF.
func (n *Normalizer) imageToPDF(src, dst string) error {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return fmt.Errorf("image %s is empty", src)
	}
	flat := imaging.New(b.Dx(), b.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	jpg := strings.TrimSuffix(dst, ".pdf") + ".jpg"
	if err := imaging.Save(flat, jpg, imaging.JPEGQuality(n.opts.JPEGQuality)); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	defer os.Remove(jpg)

	if err := api.ImportImagesFile([]string{jpg}, dst, pdfcpu.DefaultImportConfig(), model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("pdfcpu import image: %w", err)
	}
	return nil
}
