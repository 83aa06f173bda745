package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrViewNotReady  = errors.New("view not initialized")
	ErrViewDestroyed = errors.New("view destroyed")
)

// HeadlessView is an in-memory LiveView over rendered slide sections. The
// deck is flat, so the vertical index is always 0.
type HeadlessView struct {
	mu        sync.Mutex
	sections  []string
	pos       Position
	ready     bool
	destroyed bool
	listeners []func(Position)
}

// NewHeadlessView creates an uninitialized view.
func NewHeadlessView(sections []string) *HeadlessView {
	return &HeadlessView{sections: append([]string(nil), sections...)}
}

// HeadlessFactory is a ViewFactory building HeadlessViews.
func HeadlessFactory(sections []string) LiveView {
	return NewHeadlessView(sections)
}

func (v *HeadlessView) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return ErrViewDestroyed
	}
	v.ready = true
	v.pos = Position{}
	return nil
}

func (v *HeadlessView) Destroy() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.destroyed = true
	v.ready = false
	v.listeners = nil
	return nil
}

// Slide moves to p, clamping the horizontal index into the deck, and
// notifies listeners.
func (v *HeadlessView) Slide(p Position) error {
	v.mu.Lock()
	if !v.ready {
		v.mu.Unlock()
		return ErrViewNotReady
	}
	h := p.H
	if h >= len(v.sections) {
		h = len(v.sections) - 1
	}
	if h < 0 {
		h = 0
	}
	v.pos = Position{H: h, F: p.F}
	pos := v.pos
	listeners := append([]func(Position){}, v.listeners...)
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(pos)
	}
	return nil
}

// Next and Prev move like a user pressing the arrow keys.
func (v *HeadlessView) Next() error { return v.step(1) }

func (v *HeadlessView) Prev() error { return v.step(-1) }

func (v *HeadlessView) step(d int) error {
	v.mu.Lock()
	h := v.pos.H + d
	inRange := h >= 0 && h < len(v.sections)
	v.mu.Unlock()
	if !inRange {
		return nil
	}
	return v.Slide(At(h))
}

func (v *HeadlessView) Indices() Position {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pos
}

func (v *HeadlessView) OnSlideChanged(fn func(Position)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

func (v *HeadlessView) SlideCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.sections)
}

func (v *HeadlessView) SlideMarkup(h int) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if h < 0 || h >= len(v.sections) {
		return "", fmt.Errorf("slide %d out of range [0,%d)", h, len(v.sections))
	}
	return v.sections[h], nil
}

// Destroyed reports whether Destroy has been called.
func (v *HeadlessView) Destroyed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.destroyed
}
