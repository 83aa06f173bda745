// Package export walks a live presentation through every slide, captures
// each one as a raster and assembles the pages into a single document.
package export

import (
	"context"
	"fmt"
	"image"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/joeblew999/deckgen/pkg/navigator"
	"github.com/joeblew999/deckgen/pkg/render"
)

const (
	DefaultWidth       = 1920
	DefaultHeight      = 1080
	DefaultScale       = 2.0
	DefaultSettleDelay = 500 * time.Millisecond
)

// Navigable is the part of the navigator an export drives.
type Navigable interface {
	Ready() bool
	Position() navigator.Position
	JumpTo(p navigator.Position) error
}

// Capturer rasterizes a surface at its pixel size.
type Capturer interface {
	Capture(ctx context.Context, s *Surface) (image.Image, error)
}

// Assembler starts a new output document with fixed page dimensions.
type Assembler interface {
	Begin(title string, width, height int) (Document, error)
}

// Document receives pages in order.
type Document interface {
	AddPage(page image.Image) error
	Finish() ([]byte, error)
	MIME() string
	Ext() string
}

// Result is an assembled document.
type Result struct {
	Name  string
	MIME  string
	Data  []byte
	Pages int
}

// Exporter runs one export at a time.
type Exporter struct {
	capturer  Capturer
	assembler Assembler
	width     int
	height    int
	scale     float64
	settle    time.Duration
	now       func() time.Time
	log       logrus.FieldLogger

	exporting atomic.Bool

	mu       sync.Mutex
	surfaces map[*Surface]struct{}
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithPageSize sets the logical page size in pixels.
func WithPageSize(width, height int) Option {
	return func(e *Exporter) {
		if width > 0 && height > 0 {
			e.width, e.height = width, height
		}
	}
}

// WithScale sets the pixel density of captures.
func WithScale(scale float64) Option {
	return func(e *Exporter) {
		if scale > 0 {
			e.scale = scale
		}
	}
}

// WithSettleDelay sets the wait after each jump.
func WithSettleDelay(d time.Duration) Option {
	return func(e *Exporter) { e.settle = d }
}

func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Exporter) { e.log = log }
}

// New creates an Exporter.
func New(capturer Capturer, assembler Assembler, opts ...Option) *Exporter {
	e := &Exporter{
		capturer:  capturer,
		assembler: assembler,
		width:     DefaultWidth,
		height:    DefaultHeight,
		scale:     DefaultScale,
		settle:    DefaultSettleDelay,
		now:       time.Now,
		log:       logrus.StandardLogger(),
		surfaces:  make(map[*Surface]struct{}),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Exporting reports whether an export is running.
func (e *Exporter) Exporting() bool {
	return e.exporting.Load()
}

// ActiveSurfaces returns the number of capture surfaces currently mounted.
func (e *Exporter) ActiveSurfaces() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.surfaces)
}

// Export captures every slide in order and returns the assembled document.
// The navigator is moved back to where it was before returning, whether the
// export succeeded or not.
func (e *Exporter) Export(ctx context.Context, nav Navigable, slides []*render.VisualNode) (*Result, error) {
	return e.ExportTitled(ctx, nav, slides, "")
}

// ExportTitled is Export with a document title.
func (e *Exporter) ExportTitled(ctx context.Context, nav Navigable, slides []*render.VisualNode, title string) (*Result, error) {
	if nav == nil || !nav.Ready() {
		return nil, &UnavailableError{Reason: "live view is not initialized"}
	}
	if len(slides) == 0 {
		return nil, &UnavailableError{Reason: "deck has no slides"}
	}
	if !e.exporting.CompareAndSwap(false, true) {
		return nil, &UnavailableError{Reason: "an export is already in progress"}
	}
	defer e.exporting.Store(false)

	origin := nav.Position()
	defer func() {
		if err := nav.JumpTo(origin); err != nil {
			e.log.WithError(err).WithField("position", origin.String()).Warn("restore position after export")
		}
	}()

	log := e.log.WithField("slides", len(slides))
	log.Info("export started")

	doc, err := e.assembler.Begin(title, e.width, e.height)
	if err != nil {
		return nil, &FailedError{Slide: -1, Err: err}
	}

	for i, slide := range slides {
		if err := e.exportSlide(ctx, nav, doc, i, slide); err != nil {
			log.WithError(err).WithField("slide", i).Warn("export aborted")
			return nil, &FailedError{Slide: i, Err: err}
		}
	}

	data, err := doc.Finish()
	if err != nil {
		return nil, &FailedError{Slide: -1, Err: err}
	}

	res := &Result{
		Name:  DocumentName(e.now(), doc.Ext()),
		MIME:  doc.MIME(),
		Data:  data,
		Pages: len(slides),
	}
	log.WithField("name", res.Name).WithField("bytes", len(data)).Info("export finished")
	return res, nil
}

func (e *Exporter) exportSlide(ctx context.Context, nav Navigable, doc Document, i int, slide *render.VisualNode) error {
	if err := nav.JumpTo(navigator.At(i)); err != nil {
		return err
	}
	if err := sleep(ctx, e.settle); err != nil {
		return err
	}

	surface, err := e.mount(i, slide.HTML())
	if err != nil {
		return err
	}
	defer e.unmount(surface)

	raster, err := e.capturer.Capture(ctx, surface)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	if err := doc.AddPage(raster); err != nil {
		return fmt.Errorf("add page: %w", err)
	}
	return nil
}

func (e *Exporter) mount(i int, markup string) (*Surface, error) {
	s, err := NewSurface(i, markup, e.width, e.height, e.scale)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.surfaces[s] = struct{}{}
	e.mu.Unlock()
	return s, nil
}

func (e *Exporter) unmount(s *Surface) {
	e.mu.Lock()
	delete(e.surfaces, s)
	e.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// DocumentName derives a filesystem-safe name from t.
func DocumentName(t time.Time, ext string) string {
	stamp := unsafeName.ReplaceAllString(t.UTC().Format("2006-01-02T15:04:05.000000000Z"), "-")
	name := "presentation-" + stamp
	if ext != "" {
		name += "." + ext
	}
	return name
}
