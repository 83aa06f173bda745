// Package presentation is the editor session: one outline, its generated
// images and narrations, the live view and exports.
package presentation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/joeblew999/deckgen/pkg/export"
	"github.com/joeblew999/deckgen/pkg/genqueue"
	"github.com/joeblew999/deckgen/pkg/navigator"
	"github.com/joeblew999/deckgen/pkg/outline"
	"github.com/joeblew999/deckgen/pkg/render"
)

var (
	ErrBusy            = errors.New("image generation already running")
	ErrNoSlide         = errors.New("no such slide")
	ErrNarrationFailed = errors.New("narration could not be generated")
	ErrNoGenerator     = errors.New("generator not configured")
)

// Deps are the collaborators a Session drives. Images, Narration and
// Exporter may be nil; the matching operations then fail with
// ErrNoGenerator or export.ErrUnavailable.
type Deps struct {
	Renderer  *render.Renderer
	Navigator *navigator.Navigator
	Images    *genqueue.Queue[*render.Asset]
	Narration *genqueue.Queue[string]
	Exporter  *export.Exporter
	Log       logrus.FieldLogger
}

// Session is safe for concurrent use.
type Session struct {
	deps Deps
	log  logrus.FieldLogger

	generating atomic.Bool

	mu      sync.Mutex
	title   string
	content string
	slides  []outline.Slide
	assets  map[int]render.Asset
	notes   map[int]string
	nodes   []*render.VisualNode
}

func New(deps Deps) *Session {
	if deps.Renderer == nil {
		deps.Renderer = render.New()
	}
	if deps.Navigator == nil {
		deps.Navigator = navigator.New(navigator.HeadlessFactory)
	}
	log := deps.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{
		deps:   deps,
		log:    log,
		assets: make(map[int]render.Asset),
		notes:  make(map[int]string),
	}
}

// Open replaces the session with a saved outline.
func (s *Session) Open(ctx context.Context, title, content string) error {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
	return s.SetContent(ctx, content)
}

// SetContent replaces the outline. Generated images and narrations belong to
// the old slides and are dropped.
func (s *Session) SetContent(ctx context.Context, content string) error {
	s.mu.Lock()
	s.content = content
	s.slides = outline.Parse(content)
	s.assets = make(map[int]render.Asset)
	s.notes = make(map[int]string)
	s.mu.Unlock()
	return s.reload(ctx)
}

// reload renders the deck and hands it to the navigator.
func (s *Session) reload(ctx context.Context) error {
	s.mu.Lock()
	nodes := s.deps.Renderer.RenderDeck(s.slides, s.assets, s.notes)
	s.nodes = nodes
	s.mu.Unlock()

	sections := render.Sections(nodes)
	return s.deps.Navigator.Load(ctx, strings.Join(sections, "\n"), sections)
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.title != "" || len(s.slides) == 0 {
		return s.title
	}
	return s.slides[0].Title()
}

func (s *Session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

func (s *Session) Slides() []outline.Slide {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outline.Slide(nil), s.slides...)
}

// Nodes returns the rendered slides.
func (s *Session) Nodes() []*render.VisualNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*render.VisualNode(nil), s.nodes...)
}

// Assets returns the generated images keyed by slide index.
func (s *Session) Assets() map[int]render.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int]render.Asset, len(s.assets))
	for k, v := range s.assets {
		out[k] = v
	}
	return out
}

func (s *Session) Narration(index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[index]
	return n, ok
}

func (s *Session) Navigator() *navigator.Navigator {
	return s.deps.Navigator
}

// GenerateImages offers every slide to the image queue, one after another,
// and replaces the session's images with the ones produced. Slides whose
// generation failed or produced nothing get no image. progress, if not nil,
// is called after each slide.
func (s *Session) GenerateImages(ctx context.Context, progress func(done, total int)) (int, error) {
	if s.deps.Images == nil {
		return 0, ErrNoGenerator
	}
	if !s.generating.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer s.generating.Store(false)

	slides := s.Slides()
	content := s.Content()
	assets := make(map[int]render.Asset)
	for i, slide := range slides {
		asset, ok := s.deps.Images.Enqueue(slide.Source).Wait(ctx)
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if ok && asset != nil {
			a := *asset
			a.SourceSlideIndex = slide.Index
			assets[slide.Index] = a
		}
		if progress != nil {
			progress(i+1, len(slides))
		}
	}

	s.mu.Lock()
	if s.content != content {
		s.mu.Unlock()
		s.log.Info("outline changed during image generation, images discarded")
		return 0, nil
	}
	s.assets = assets
	s.mu.Unlock()

	s.log.WithField("images", len(assets)).WithField("slides", len(slides)).Info("images generated")
	return len(assets), s.reload(ctx)
}

// Generating reports whether GenerateImages is running.
func (s *Session) Generating() bool {
	return s.generating.Load()
}

// Narrate generates narration for one slide and attaches it as speaker
// notes.
func (s *Session) Narrate(ctx context.Context, index int) (string, error) {
	if s.deps.Narration == nil {
		return "", ErrNoGenerator
	}
	s.mu.Lock()
	if index < 0 || index >= len(s.slides) {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %d", ErrNoSlide, index)
	}
	source := s.slides[index].Source
	content := s.content
	s.mu.Unlock()

	text, ok := s.deps.Narration.Enqueue(source).Wait(ctx)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNarrationFailed
	}

	s.mu.Lock()
	if s.content != content {
		s.mu.Unlock()
		s.log.WithField("slide", index).Info("outline changed during narration, narration discarded")
		return text, nil
	}
	s.notes[index] = text
	s.mu.Unlock()
	return text, s.reload(ctx)
}

// Export captures every slide into one document.
func (s *Session) Export(ctx context.Context) (*export.Result, error) {
	if s.deps.Exporter == nil {
		return nil, &export.UnavailableError{Reason: "no exporter configured"}
	}
	return s.deps.Exporter.ExportTitled(ctx, s.deps.Navigator, s.Nodes(), s.Title())
}

// Close releases the live view.
func (s *Session) Close() error {
	return s.deps.Navigator.Close()
}
