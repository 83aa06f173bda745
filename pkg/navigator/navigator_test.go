package navigator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trackingFactory records every view it builds.
type trackingFactory struct {
	mu    sync.Mutex
	views []*HeadlessView
}

func (f *trackingFactory) build(sections []string) LiveView {
	v := NewHeadlessView(sections)
	f.mu.Lock()
	f.views = append(f.views, v)
	f.mu.Unlock()
	return v
}

func (f *trackingFactory) live() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.views {
		if !v.Destroyed() {
			n++
		}
	}
	return n
}

func (f *trackingFactory) last() *HeadlessView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.views[len(f.views)-1]
}

func sections(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "<section></section>"
	}
	return out
}

func newTestNavigator(factory ViewFactory) *Navigator {
	log, _ := test.NewNullLogger()
	return New(factory, WithRestoreDelay(5*time.Millisecond), WithLogger(log))
}

func TestNavigatorRestoresOnContentChange(t *testing.T) {
	f := &trackingFactory{}
	nav := newTestNavigator(f.build)
	ctx := context.Background()

	require.False(t, nav.Ready())
	require.ErrorIs(t, nav.JumpTo(At(1)), ErrNotReady)

	require.NoError(t, nav.Load(ctx, "v1", sections(4)))
	assert.True(t, nav.Ready())
	assert.Equal(t, At(0), nav.Position())

	require.NoError(t, nav.JumpTo(At(2)))
	assert.Equal(t, At(2), nav.Position())

	require.NoError(t, nav.Load(ctx, "v2", sections(5)))
	assert.Equal(t, 1, f.live())
	assert.True(t, f.views[0].Destroyed())
	assert.Equal(t, At(2), f.last().Indices())
	assert.Equal(t, At(2), nav.Position())
}

func TestNavigatorSameContentStartsOver(t *testing.T) {
	f := &trackingFactory{}
	nav := newTestNavigator(f.build)
	ctx := context.Background()

	require.NoError(t, nav.Load(ctx, "same", sections(3)))
	require.NoError(t, nav.JumpTo(At(2)))
	require.NoError(t, nav.Load(ctx, "same", sections(3)))

	assert.Equal(t, 1, f.live())
	assert.Equal(t, At(0), nav.Position())
}

func TestNavigatorMirrorsUserNavigation(t *testing.T) {
	f := &trackingFactory{}
	nav := newTestNavigator(f.build)
	require.NoError(t, nav.Load(context.Background(), "c", sections(3)))

	view := f.last()
	require.NoError(t, view.Next())
	require.NoError(t, view.Next())
	require.NoError(t, view.Next())
	assert.Equal(t, At(2), nav.Position())

	require.NoError(t, view.Prev())
	assert.Equal(t, At(1), nav.Position())
}

func TestNavigatorStaleViewEventsIgnored(t *testing.T) {
	f := &trackingFactory{}
	nav := newTestNavigator(f.build)
	ctx := context.Background()

	require.NoError(t, nav.Load(ctx, "a", sections(3)))
	old := f.last()
	require.NoError(t, nav.Load(ctx, "a", sections(3)))

	// The old view has been destroyed and lost its listeners.
	assert.ErrorIs(t, old.Slide(At(2)), ErrViewNotReady)
	assert.Equal(t, At(0), nav.Position())
}

func TestNavigatorRestoreClampsToShorterDeck(t *testing.T) {
	f := &trackingFactory{}
	nav := newTestNavigator(f.build)
	ctx := context.Background()

	require.NoError(t, nav.Load(ctx, "long", sections(6)))
	require.NoError(t, nav.JumpTo(At(5)))
	require.NoError(t, nav.Load(ctx, "short", sections(2)))

	assert.Equal(t, At(1), nav.Position())
}

func TestNavigatorKeepsFragment(t *testing.T) {
	f := &trackingFactory{}
	nav := newTestNavigator(f.build)
	ctx := context.Background()
	frag := 1

	require.NoError(t, nav.Load(ctx, "a", sections(3)))
	require.NoError(t, nav.JumpTo(Position{H: 1, F: &frag}))
	require.NoError(t, nav.Load(ctx, "b", sections(3)))

	got := nav.Position()
	require.NotNil(t, got.F)
	assert.True(t, got.Equal(Position{H: 1, F: &frag}))
}

// lateView refuses navigation a few times after initialization.
type lateView struct {
	*HeadlessView
	mu      sync.Mutex
	refuses int
}

func (v *lateView) Slide(p Position) error {
	v.mu.Lock()
	if v.refuses > 0 {
		v.refuses--
		v.mu.Unlock()
		return ErrViewNotReady
	}
	v.mu.Unlock()
	return v.HeadlessView.Slide(p)
}

func TestNavigatorDeferredRestoreRetries(t *testing.T) {
	var views []*lateView
	nav := newTestNavigator(func(s []string) LiveView {
		v := &lateView{HeadlessView: NewHeadlessView(s)}
		views = append(views, v)
		return v
	})
	ctx := context.Background()

	require.NoError(t, nav.Load(ctx, "a", sections(4)))
	require.NoError(t, nav.JumpTo(At(3)))

	nav.factory = func(s []string) LiveView {
		v := &lateView{HeadlessView: NewHeadlessView(s), refuses: 2}
		views = append(views, v)
		return v
	}
	require.NoError(t, nav.Load(ctx, "b", sections(4)))

	assert.Equal(t, At(3), nav.Position())
	require.Eventually(t, func() bool {
		return views[1].Indices().Equal(At(3))
	}, time.Second, 5*time.Millisecond)
}

type failingView struct {
	*HeadlessView
}

func (failingView) Initialize(context.Context) error { return errors.New("no display") }

func TestNavigatorInitFailureReleasesView(t *testing.T) {
	var built *HeadlessView
	nav := newTestNavigator(func(s []string) LiveView {
		built = NewHeadlessView(s)
		return failingView{built}
	})

	err := nav.Load(context.Background(), "x", sections(2))
	require.Error(t, err)
	assert.True(t, built.Destroyed())
	assert.False(t, nav.Ready())
}

// blockingView waits in Initialize until released.
type blockingView struct {
	*HeadlessView
	entered chan struct{}
	release chan struct{}
}

func (v *blockingView) Initialize(ctx context.Context) error {
	close(v.entered)
	<-v.release
	return v.HeadlessView.Initialize(ctx)
}

func TestNavigatorCloseDuringInitialize(t *testing.T) {
	view := &blockingView{
		HeadlessView: NewHeadlessView(sections(2)),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	nav := newTestNavigator(func([]string) LiveView { return view })

	done := make(chan error, 1)
	go func() { done <- nav.Load(context.Background(), "x", nil) }()

	<-view.entered
	require.NoError(t, nav.Close())
	close(view.release)

	assert.ErrorIs(t, <-done, ErrClosed)
	assert.True(t, view.Destroyed())
	assert.False(t, nav.Ready())
	assert.ErrorIs(t, nav.Load(context.Background(), "y", nil), ErrClosed)
}

func TestNavigatorSlideMarkup(t *testing.T) {
	nav := newTestNavigator(HeadlessFactory)
	_, err := nav.SlideMarkup(0)
	require.ErrorIs(t, err, ErrNotReady)

	require.NoError(t, nav.Load(context.Background(), "x", []string{"<a>", "<b>"}))
	assert.Equal(t, 2, nav.SlideCount())

	m, err := nav.SlideMarkup(1)
	require.NoError(t, err)
	assert.Equal(t, "<b>", m)

	_, err = nav.SlideMarkup(2)
	assert.Error(t, err)
}
