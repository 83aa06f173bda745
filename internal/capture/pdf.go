package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"codeberg.org/go-pdf/fpdf"

	"github.com/joeblew999/deckgen/pkg/export"
)

const defaultJPEGQuality = 95

// PDF assembles captured pages into a landscape PDF, one slide per page.
type PDF struct {
	Creator string
	Quality int
}

// NewPDF returns an assembler that encodes pages as JPEG.
func NewPDF(creator string) *PDF {
	return &PDF{Creator: creator, Quality: defaultJPEGQuality}
}

// Begin starts a document whose pages measure width×height points.
func (p *PDF) Begin(title string, width, height int) (export.Document, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid page size %dx%d", width, height)
	}
	// Landscape swaps the size, so Wd carries the short side.
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: float64(height), Ht: float64(width)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	if title != "" {
		pdf.SetTitle(title, true)
	}
	if p.Creator != "" {
		pdf.SetCreator(p.Creator, true)
	}
	if err := pdf.Error(); err != nil {
		return nil, err
	}
	q := p.Quality
	if q <= 0 || q > 100 {
		q = defaultJPEGQuality
	}
	return &pdfDocument{pdf: pdf, width: float64(width), height: float64(height), quality: q}, nil
}

type pdfDocument struct {
	pdf     *fpdf.Fpdf
	width   float64
	height  float64
	quality int
	pages   int
}

// AddPage stretches page over a full page, regardless of its pixel size.
func (d *pdfDocument) AddPage(page image.Image) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, page, &jpeg.Options{Quality: d.quality}); err != nil {
		return fmt.Errorf("encode page %d: %w", d.pages, err)
	}
	name := fmt.Sprintf("slide-%d", d.pages)
	opts := fpdf.ImageOptions{ImageType: "JPG"}

	d.pdf.AddPage()
	d.pdf.RegisterImageOptionsReader(name, opts, &buf)
	d.pdf.ImageOptions(name, 0, 0, d.width, d.height, false, opts, 0, "")
	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("add page %d: %w", d.pages, err)
	}
	d.pages++
	return nil
}

func (d *pdfDocument) Finish() ([]byte, error) {
	if d.pages == 0 {
		return nil, fmt.Errorf("document has no pages")
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *pdfDocument) MIME() string { return "application/pdf" }
func (d *pdfDocument) Ext() string  { return "pdf" }
