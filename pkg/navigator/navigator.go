// Package navigator owns the live presentation view and its position.
//
// A Navigator rebuilds its view whenever the deck content is replaced. The
// previous view is always destroyed first, and when the content actually
// changed the last known position is restored on the new view.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotReady = errors.New("navigator: no live view")
	ErrClosed   = errors.New("navigator: closed")
)

const (
	DefaultRestoreDelay    = 100 * time.Millisecond
	DefaultRestoreAttempts = 3
)

// Position is the view's current horizontal, vertical and fragment index.
type Position struct {
	H int  `json:"h"`
	V int  `json:"v"`
	F *int `json:"f,omitempty"`
}

// At returns the position of slide h.
func At(h int) Position {
	return Position{H: h}
}

// Equal compares positions, including the fragment.
func (p Position) Equal(o Position) bool {
	if p.H != o.H || p.V != o.V {
		return false
	}
	if p.F == nil || o.F == nil {
		return p.F == nil && o.F == nil
	}
	return *p.F == *o.F
}

func (p Position) String() string {
	if p.F == nil {
		return fmt.Sprintf("%d/%d", p.H, p.V)
	}
	return fmt.Sprintf("%d/%d/%d", p.H, p.V, *p.F)
}

// LiveView is a stateful presentation view.
type LiveView interface {
	Initialize(ctx context.Context) error
	Destroy() error
	Slide(p Position) error
	Indices() Position
	OnSlideChanged(fn func(Position))
	SlideCount() int
	SlideMarkup(h int) (string, error)
}

// ViewFactory builds an uninitialized view over rendered slide sections.
type ViewFactory func(sections []string) LiveView

// Navigator tracks and restores the position of the live view it owns.
type Navigator struct {
	factory         ViewFactory
	restoreDelay    time.Duration
	restoreAttempts int
	log             logrus.FieldLogger

	mu      sync.Mutex
	view    LiveView
	gen     uint64
	state   Position
	content string
	loaded  bool
	closed  bool
	restore *time.Timer
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithRestoreDelay sets the delay between restore attempts after a rebuild.
func WithRestoreDelay(d time.Duration) Option {
	return func(n *Navigator) { n.restoreDelay = d }
}

// WithRestoreAttempts sets how many times a restore is tried.
func WithRestoreAttempts(attempts int) Option {
	return func(n *Navigator) {
		if attempts > 0 {
			n.restoreAttempts = attempts
		}
	}
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(n *Navigator) { n.log = log }
}

// New creates a Navigator that builds views with factory.
func New(factory ViewFactory, opts ...Option) *Navigator {
	n := &Navigator{
		factory:         factory,
		restoreDelay:    DefaultRestoreDelay,
		restoreAttempts: DefaultRestoreAttempts,
		log:             logrus.StandardLogger(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Load replaces the deck. The current view is destroyed before the new one
// is built; if content differs from the previous load, the last known
// position is restored once the new view is up.
func (n *Navigator) Load(ctx context.Context, content string, sections []string) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ErrClosed
	}
	n.teardownLocked()
	changed := n.loaded && n.content != content
	n.gen++
	gen := n.gen
	n.mu.Unlock()

	view := n.factory(sections)
	owned := false
	defer func() {
		if !owned {
			n.destroy(view)
		}
	}()

	if err := view.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize view: %w", err)
	}

	n.mu.Lock()
	if n.closed || n.gen != gen {
		n.mu.Unlock()
		return ErrClosed
	}
	n.view = view
	owned = true
	n.content = content
	n.loaded = true
	view.OnSlideChanged(func(p Position) { n.mirror(gen, p) })

	target := n.state
	if !changed {
		n.state = view.Indices()
	}
	n.mu.Unlock()

	if changed {
		n.restoreTo(gen, target, n.restoreAttempts)
	}
	return nil
}

// teardownLocked captures the view position, then releases the view.
func (n *Navigator) teardownLocked() {
	restoring := false
	if n.restore != nil {
		restoring = n.restore.Stop()
		n.restore = nil
	}
	if n.view == nil {
		return
	}
	if !restoring {
		n.state = n.view.Indices()
	}
	n.destroy(n.view)
	n.view = nil
}

func (n *Navigator) destroy(v LiveView) {
	if err := v.Destroy(); err != nil {
		n.log.WithError(err).Warn("destroy live view")
	}
}

// restoreTo moves the view of generation gen to target, retrying after the
// restore delay while the view refuses.
func (n *Navigator) restoreTo(gen uint64, target Position, attempts int) {
	n.mu.Lock()
	if n.closed || n.gen != gen || n.view == nil {
		n.mu.Unlock()
		return
	}
	view := n.view
	n.mu.Unlock()

	err := view.Slide(target)

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen != gen {
		return
	}
	if err == nil {
		n.state = view.Indices()
		return
	}
	if attempts <= 1 {
		n.log.WithError(err).WithField("position", target.String()).Warn("restore position")
		return
	}
	n.restore = time.AfterFunc(n.restoreDelay, func() {
		n.restoreTo(gen, target, attempts-1)
	})
}

func (n *Navigator) mirror(gen uint64, p Position) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.gen == gen {
		n.state = p
	}
}

// JumpTo moves the live view to p.
func (n *Navigator) JumpTo(p Position) error {
	n.mu.Lock()
	if n.view == nil {
		n.mu.Unlock()
		return ErrNotReady
	}
	if n.restore != nil {
		n.restore.Stop()
		n.restore = nil
	}
	view, gen := n.view, n.gen
	n.mu.Unlock()

	if err := view.Slide(p); err != nil {
		return fmt.Errorf("jump to %s: %w", p, err)
	}

	n.mirror(gen, view.Indices())
	return nil
}

// Position returns the last known position.
func (n *Navigator) Position() Position {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Ready reports whether a live view is mounted.
func (n *Navigator) Ready() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.view != nil
}

// SlideCount returns the number of slides in the live view.
func (n *Navigator) SlideCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.view == nil {
		return 0
	}
	return n.view.SlideCount()
}

// SlideMarkup returns the rendered markup of slide h.
func (n *Navigator) SlideMarkup(h int) (string, error) {
	n.mu.Lock()
	view := n.view
	n.mu.Unlock()
	if view == nil {
		return "", ErrNotReady
	}
	return view.SlideMarkup(h)
}

// Close destroys the view. Later loads fail with ErrClosed.
func (n *Navigator) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.gen++
	n.teardownLocked()
	return nil
}
