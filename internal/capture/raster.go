package capture

import (
	"context"
	"image"

	"github.com/ajstarks/deck"
	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"

	"github.com/joeblew999/deckgen/pkg/export"
	"github.com/joeblew999/deckgen/pkg/render"
)

const (
	backdropPadding = 16.0
	backdropMax     = 300.0
	placeholderFill = "rgb(226,232,240)"
	placeholderText = "rgb(100,116,139)"
)

// Raster paints surfaces into images with gg.
type Raster struct {
	fonts  *Fonts
	loader ImageLoader
	log    logrus.FieldLogger
}

// NewRaster returns a capturer. A nil loader skips every image.
func NewRaster(fonts *Fonts, loader ImageLoader, log logrus.FieldLogger) *Raster {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Raster{fonts: fonts, loader: loader, log: log}
}

// Capture lays the surface out and paints it at its pixel size.
func (r *Raster) Capture(ctx context.Context, s *export.Surface) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scene := Layout(s.Root, s.Width, s.Height)
	pw, ph := s.PixelSize()
	return r.Paint(ctx, scene, pw, ph)
}

// Paint renders scene onto a pw×ph canvas.
func (r *Raster) Paint(ctx context.Context, scene Scene, pw, ph int) (image.Image, error) {
	dc := gg.NewContext(pw, ph)
	w, h := float64(pw), float64(ph)
	scale := 1.0
	if scene.Width > 0 {
		scale = w / float64(scene.Width)
	}
	faces := r.fonts.cache()

	dc.SetColor(rasterColor(scene.Slide.Bg, 0))
	dc.Clear()

	if scene.Backdrop != nil {
		r.backdrop(ctx, dc, scene.Backdrop, scale)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, t := range scene.Slide.Text {
		r.text(dc, faces, t, scene.Slide.Fg, w, h)
	}
	for _, l := range scene.Slide.List {
		r.list(dc, faces, l, scene.Slide.Fg, w, h)
	}
	for _, im := range scene.Slide.Image {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.image(ctx, dc, faces, im, scale, w, h)
	}
	return dc.Image(), nil
}

func (r *Raster) load(ctx context.Context, url string) (image.Image, error) {
	if r.loader == nil {
		return nil, errNoLoader
	}
	return r.loader.Load(ctx, url)
}

// backdrop draws the decoration at its anchor. A decoration that cannot be
// loaded is left out.
func (r *Raster) backdrop(ctx context.Context, dc *gg.Context, b *Backdrop, scale float64) {
	src, err := r.load(ctx, b.URL)
	if err != nil {
		r.log.WithError(err).WithField("url", b.URL).Debug("skip decoration")
		return
	}
	side := int(backdropMax * scale)
	img := fit(src, side, side, b.Opacity)
	iw, ih := float64(img.Bounds().Dx()), float64(img.Bounds().Dy())
	pad := backdropPadding * scale
	w, h := float64(dc.Width()), float64(dc.Height())

	var x, y float64
	switch b.Anchor {
	case render.TopLeft:
		x, y = pad, pad
	case render.TopRight:
		x, y = w-pad-iw, pad
	case render.BottomLeft:
		x, y = pad, h-pad-ih
	case render.BottomRight:
		x, y = w-pad-iw, h-pad-ih
	case render.CenterLeft:
		x, y = pad, (h-ih)/2
	case render.CenterRight:
		x, y = w-pad-iw, (h-ih)/2
	}
	dc.DrawImage(img, int(x), int(y))
}

func (r *Raster) text(dc *gg.Context, faces *faceCache, t deck.Text, fg string, w, h float64) {
	x, y, fs := dimen(w, h, t.Xp, t.Yp, t.Sp)
	dc.SetFontFace(faces.face(t.Font, fs))
	c := t.Color
	if c == "" {
		c = fg
	}
	dc.SetColor(rasterColor(c, t.Opacity))
	ax := anchorX(t.Align)

	if t.Type == "block" {
		width := pct(t.Wp, w)
		lp := t.Lp
		if lp <= 0 {
			lp = linespacing
		}
		align := gg.AlignLeft
		switch ax {
		case 0.5:
			align = gg.AlignCenter
		case 1:
			align = gg.AlignRight
		}
		// y is the first baseline; wrapped blocks are placed by their top.
		dc.DrawStringWrapped(t.Tdata, x-ax*width, y-fs, 0, 0, width, lp, align)
		return
	}
	dc.DrawStringAnchored(t.Tdata, x, y, ax, 0)
}

func (r *Raster) list(dc *gg.Context, faces *faceCache, l deck.List, fg string, w, h float64) {
	x, y, fs := dimen(w, h, l.Xp, l.Yp, l.Sp)
	dc.SetFontFace(faces.face(l.Font, fs))
	c := l.Color
	if c == "" {
		c = fg
	}
	col := rasterColor(c, l.Opacity)
	lp := l.Lp
	if lp <= 0 {
		lp = listspacing
	}
	for _, li := range l.Li {
		dc.SetColor(col)
		if l.Type == "bullet" {
			dc.DrawCircle(x+fs/3, y-fs/3, fs/6)
			dc.Fill()
		}
		dc.DrawStringAnchored(li.ListText, x+fs*1.2, y, 0, 0)
		y += fs * lp
	}
}

// image draws a content image centered in its box, or a placeholder when it
// cannot be loaded.
func (r *Raster) image(ctx context.Context, dc *gg.Context, faces *faceCache, im deck.Image, scale, w, h float64) {
	cx, cy := pct(im.Xp, w), pct(100-im.Yp, h)
	bw, bh := float64(im.Width)*scale, float64(im.Height)*scale

	src, err := r.load(ctx, im.Name)
	if err != nil {
		r.log.WithError(err).WithField("url", im.Name).Warn("image placeholder")
		dc.SetColor(rasterColor(placeholderFill, 0))
		dc.DrawRectangle(cx-bw/2, cy-bh/2, bw, bh)
		dc.Fill()
		if im.Caption != "" {
			fs := pct(1.6, w)
			dc.SetFontFace(faces.face("sans", fs))
			dc.SetColor(rasterColor(placeholderText, 0))
			dc.DrawStringAnchored(im.Caption, cx, cy, 0.5, 0.5)
		}
		return
	}
	img := fit(src, int(bw), int(bh), 1)
	dc.DrawImageAnchored(img, int(cx), int(cy), 0.5, 0.5)
}
