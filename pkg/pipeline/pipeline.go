// Package pipeline converts a whole deck to one output format without a live
// view. The source is either an outline or decksh markup.
package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ajstarks/deck"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/deckgen/internal/capture"
	"github.com/joeblew999/deckgen/pkg/deckfile"
	"github.com/joeblew999/deckgen/pkg/export"
	"github.com/joeblew999/deckgen/pkg/outline"
	"github.com/joeblew999/deckgen/pkg/render"
)

// OutputFormat represents the target output format
type OutputFormat string

const (
	FormatSVG  OutputFormat = "svg"
	FormatPNG  OutputFormat = "png"
	FormatPDF  OutputFormat = "pdf"
	FormatDSH  OutputFormat = "dsh"
	FormatHTML OutputFormat = "html"
)

var ErrEmptyDeck = errors.New("deck has no slides")

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range SupportedFormats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// SupportedFormats returns the formats Process can generate.
func SupportedFormats() []OutputFormat {
	return []OutputFormat{FormatSVG, FormatPNG, FormatPDF, FormatDSH, FormatHTML}
}

// Result holds the output of pipeline processing
type Result struct {
	// Slides contains the rendered output for each slide. Empty for PDF
	// and decksh, which only produce a Document.
	Slides [][]byte

	// Document is the whole deck as one file: the PDF, a zip of PNGs, the
	// decksh source, or an HTML page of sections.
	Document []byte
	MIME     string

	Format     OutputFormat
	Title      string
	SlideCount int
}

// Pipeline renders decks off screen.
type Pipeline struct {
	renderer *render.Renderer
	raster   *capture.Raster
	pdf      *capture.PDF
	width    int
	height   int
	scale    float64
	log      logrus.FieldLogger
}

type Option func(*Pipeline)

// WithPageSize sets the logical page size.
func WithPageSize(width, height int) Option {
	return func(p *Pipeline) {
		if width > 0 && height > 0 {
			p.width, p.height = width, height
		}
	}
}

// WithScale sets the raster scale for PNG and PDF output.
func WithScale(scale float64) Option {
	return func(p *Pipeline) {
		if scale > 0 {
			p.scale = scale
		}
	}
}

// WithRenderer replaces the slide renderer. Tests use a fixed decoration
// position.
func WithRenderer(r *render.Renderer) Option {
	return func(p *Pipeline) { p.renderer = r }
}

func WithPDF(pdf *capture.PDF) Option {
	return func(p *Pipeline) { p.pdf = pdf }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.log = log }
}

// New returns a pipeline painting rasters with raster.
func New(raster *capture.Raster, opts ...Option) *Pipeline {
	p := &Pipeline{
		renderer: render.New(),
		raster:   raster,
		pdf:      capture.NewPDF("deckgen"),
		width:    export.DefaultWidth,
		height:   export.DefaultHeight,
		scale:    1,
		log:      logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// IsDecksh reports whether source is decksh markup rather than an outline.
func IsDecksh(source []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(source))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		return line == "deck"
	}
	return false
}

// Process converts source to format. Outlines go through the slide
// renderer; decksh is compiled and painted as written. Decksh input cannot
// produce HTML.
func (p *Pipeline) Process(ctx context.Context, source []byte, format OutputFormat) (*Result, error) {
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}
	var (
		scenes   []capture.Scene
		sections []string
		title    string
	)
	if IsDecksh(source) {
		if format == FormatHTML {
			return nil, fmt.Errorf("unsupported format for decksh input: %s", format)
		}
		d, err := deckfile.Compile(source)
		if err != nil {
			return nil, err
		}
		scenes, title = p.fromDeck(d), d.Title
	} else {
		slides := outline.Parse(string(source))
		if len(slides) > 0 {
			title = slides[0].Title()
		}
		nodes := p.renderer.RenderDeck(slides, nil, nil)
		sections = render.Sections(nodes)
		if format != FormatHTML {
			var err error
			if scenes, err = p.layout(nodes); err != nil {
				return nil, err
			}
		}
	}
	count := len(scenes)
	if format == FormatHTML {
		count = len(sections)
	}
	if count == 0 {
		return nil, ErrEmptyDeck
	}

	res := &Result{Format: format, Title: title, SlideCount: count}
	var err error
	switch format {
	case FormatHTML:
		err = p.html(res, sections)
	case FormatSVG:
		err = p.svg(res, scenes)
	case FormatPNG:
		err = p.png(ctx, res, scenes)
	case FormatPDF:
		err = p.pdfDoc(ctx, res, scenes)
	case FormatDSH:
		err = p.decksh(res, scenes)
	}
	if err != nil {
		return nil, err
	}
	p.log.WithField("format", format).WithField("slides", count).Debug("deck processed")
	return res, nil
}

func (p *Pipeline) layout(nodes []*render.VisualNode) ([]capture.Scene, error) {
	scenes := make([]capture.Scene, 0, len(nodes))
	for i, n := range nodes {
		s, err := export.NewSurface(i, n.HTML(), p.width, p.height, p.scale)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", i, err)
		}
		scenes = append(scenes, capture.Layout(s.Root, p.width, p.height))
	}
	return scenes, nil
}

func (p *Pipeline) fromDeck(d *deck.Deck) []capture.Scene {
	w, h := d.Canvas.Width, d.Canvas.Height
	if w <= 0 || h <= 0 {
		w, h = p.width, p.height
	}
	scenes := make([]capture.Scene, 0, len(d.Slide))
	for _, s := range d.Slide {
		if s.Bg == "" {
			s.Bg = "white"
		}
		if s.Fg == "" {
			s.Fg = "black"
		}
		scenes = append(scenes, capture.Scene{Width: w, Height: h, Slide: s})
	}
	return scenes
}

func (p *Pipeline) html(res *Result, sections []string) error {
	var doc bytes.Buffer
	doc.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>")
	doc.WriteString(render.EscapeHTML(res.Title))
	doc.WriteString("</title></head><body><div class=\"slides\">\n")
	for _, s := range sections {
		res.Slides = append(res.Slides, []byte(s))
		doc.WriteString(s)
		doc.WriteByte('\n')
	}
	doc.WriteString("</div></body></html>\n")
	res.Document, res.MIME = doc.Bytes(), "text/html; charset=utf-8"
	return nil
}

func (p *Pipeline) svg(res *Result, scenes []capture.Scene) error {
	for i, s := range scenes {
		var buf bytes.Buffer
		if err := capture.WriteSVG(&buf, s); err != nil {
			return fmt.Errorf("svg failed on slide %d: %w", i+1, err)
		}
		res.Slides = append(res.Slides, buf.Bytes())
	}
	res.MIME = "image/svg+xml"
	return nil
}

func (p *Pipeline) paint(ctx context.Context, doc export.Document, scenes []capture.Scene) error {
	if p.raster == nil {
		return &export.UnavailableError{Reason: "no raster painter configured"}
	}
	for i, s := range scenes {
		pw, ph := int(float64(s.Width)*p.scale), int(float64(s.Height)*p.scale)
		img, err := p.raster.Paint(ctx, s, pw, ph)
		if err != nil {
			return &export.FailedError{Slide: i, Err: err}
		}
		if err := doc.AddPage(img); err != nil {
			return &export.FailedError{Slide: i, Err: err}
		}
	}
	return nil
}

func (p *Pipeline) png(ctx context.Context, res *Result, scenes []capture.Scene) error {
	doc, err := capture.PNGSet{}.Begin(res.Title, p.width, p.height)
	if err != nil {
		return err
	}
	if err := p.paint(ctx, doc, scenes); err != nil {
		return err
	}
	res.Slides = doc.(*capture.PNGPages).Pages()
	res.Document, err = doc.Finish()
	res.MIME = doc.MIME()
	return err
}

func (p *Pipeline) pdfDoc(ctx context.Context, res *Result, scenes []capture.Scene) error {
	doc, err := p.pdf.Begin(res.Title, scenes[0].Width, scenes[0].Height)
	if err != nil {
		return err
	}
	if err := p.paint(ctx, doc, scenes); err != nil {
		return err
	}
	res.Document, err = doc.Finish()
	res.MIME = doc.MIME()
	return err
}

func (p *Pipeline) decksh(res *Result, scenes []capture.Scene) error {
	d := &deck.Deck{Title: res.Title}
	d.Canvas.Width, d.Canvas.Height = scenes[0].Width, scenes[0].Height
	for _, s := range scenes {
		d.Slide = append(d.Slide, s.Slide)
	}
	src, err := deckfile.EncodeString(d)
	if err != nil {
		return err
	}
	res.Document, res.MIME = []byte(src), "text/plain; charset=utf-8"
	return nil
}
