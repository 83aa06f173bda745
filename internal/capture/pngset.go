package capture

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/joeblew999/deckgen/pkg/export"
)

// PNGSet collects pages as individual PNG files and packs them into a zip.
type PNGSet struct{}

func (PNGSet) Begin(string, int, int) (export.Document, error) {
	return &PNGPages{}, nil
}

// PNGPages is an open PNG set.
type PNGPages struct {
	pages [][]byte
}

func (p *PNGPages) AddPage(page image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, page); err != nil {
		return fmt.Errorf("encode page %d: %w", len(p.pages), err)
	}
	p.pages = append(p.pages, buf.Bytes())
	return nil
}

// Pages returns the encoded pages in order.
func (p *PNGPages) Pages() [][]byte {
	return p.pages
}

func (p *PNGPages) Finish() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, page := range p.pages {
		f, err := zw.Create(fmt.Sprintf("slide-%03d.png", i+1))
		if err != nil {
			return nil, err
		}
		if _, err := f.Write(page); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (p *PNGPages) MIME() string { return "application/zip" }
func (p *PNGPages) Ext() string  { return "zip" }
