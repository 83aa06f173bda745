package capture

import (
	"fmt"
	"io"
	"strings"

	"github.com/ajstarks/deck"
	svg "github.com/ajstarks/svgo/float"

	"github.com/joeblew999/deckgen/pkg/render"
)

var fontmap = map[string]string{
	"sans":  "Helvetica,Arial,sans-serif",
	"bold":  "Helvetica,Arial,sans-serif;font-weight:bold",
	"serif": "Georgia,serif",
	"mono":  "Menlo,Consolas,monospace",
}

func fontlookup(s string) string {
	if f, ok := fontmap[s]; ok {
		return f
	}
	return fontmap["sans"]
}

// fillop fills with the specified color and opacity
func fillop(color string, opacity float64) string {
	return fmt.Sprintf(fillfmt, svgcolor(color), setop(opacity))
}

// WriteSVG draws scene as a standalone SVG document.
func WriteSVG(w io.Writer, scene Scene) error {
	cw, ch := float64(scene.Width), float64(scene.Height)
	doc := svg.New(w)
	doc.Start(cw, ch)

	dorect(doc, 0, 0, cw, ch, scene.Slide.Bg, 0)
	if b := scene.Backdrop; b != nil {
		dobackdrop(doc, b, cw, ch)
	}
	for _, t := range scene.Slide.Text {
		x, y, fs := dimen(cw, ch, t.Xp, t.Yp, t.Sp)
		color := t.Color
		if color == "" {
			color = scene.Slide.Fg
		}
		dotext(doc, cw, x, y, fs, t.Wp, t.Lp, t.Tdata, t.Font, t.Align, t.Type, color, t.Opacity)
	}
	for _, l := range scene.Slide.List {
		x, y, fs := dimen(cw, ch, l.Xp, l.Yp, l.Sp)
		color := l.Color
		if color == "" {
			color = scene.Slide.Fg
		}
		dolist(doc, x, y, fs, l.Lp, l.Li, l.Font, l.Type, color, l.Opacity)
	}
	for _, im := range scene.Slide.Image {
		doimage(doc, im, cw, ch)
	}
	doc.End()
	return nil
}

// dorect draws a rectangle
func dorect(doc *svg.SVG, x, y, w, h float64, color string, opacity float64) {
	doc.Rect(x, y, w, h, fillop(color, opacity))
}

// bullet draws a bullet
func bullet(doc *svg.SVG, x, y, size float64, color string) {
	rs := size / 2
	doc.Circle(x-size, y-(rs*2)/3, rs/2, "fill:"+svgcolor(color))
}

func dobackdrop(doc *svg.SVG, b *Backdrop, cw, ch float64) {
	const side, pad = backdropMax, backdropPadding
	var x, y float64
	switch b.Anchor {
	case render.TopLeft:
		x, y = pad, pad
	case render.TopRight:
		x, y = cw-pad-side, pad
	case render.BottomLeft:
		x, y = pad, ch-pad-side
	case render.BottomRight:
		x, y = cw-pad-side, ch-pad-side
	case render.CenterLeft:
		x, y = pad, (ch-side)/2
	case render.CenterRight:
		x, y = cw-pad-side, (ch-side)/2
	}
	doc.Image(x, y, int(side), int(side), render.EscapeHTML(b.URL),
		fmt.Sprintf(`opacity="%.2f"`, b.Opacity), `preserveAspectRatio="xMidYMid meet"`)
}

func doimage(doc *svg.SVG, im deck.Image, cw, ch float64) {
	cx, cy := pct(im.Xp, cw), pct(100-im.Yp, ch)
	w, h := float64(im.Width), float64(im.Height)
	doc.Image(cx-w/2, cy-h/2, im.Width, im.Height, render.EscapeHTML(im.Name),
		`preserveAspectRatio="xMidYMid meet"`)
}

// showtext places fully attributed text at the specified location
func showtext(doc *svg.SVG, x, y float64, s string, fs float64, font, color, align string, opacity float64) {
	doc.Text(x, y, s, `xml:space="preserve"`,
		fmt.Sprintf("fill:%s;fill-opacity:%.2f;font-size:%.2fpx;font-family:%s;text-anchor:%s",
			svgcolor(color), setop(opacity), fs, fontlookup(font), textalign(align)))
}

// dotext places text elements on the canvas according to type
func dotext(doc *svg.SVG, cw, x, y, fs, wp, ls float64, tdata, font, align, ttype, color string, opacity float64) {
	if ls <= 0 {
		ls = linespacing
	}
	ls *= fs
	if ttype == "block" {
		tw := cw / 2
		if wp > 0 {
			tw = pct(wp, cw)
		}
		if textalign(align) == "end" {
			x -= tw
		}
		textwrap(doc, x, y, tw, fs, ls, tdata, font, color, opacity)
		return
	}
	for _, t := range strings.Split(tdata, "\n") {
		showtext(doc, x, y, t, fs, font, color, align, opacity)
		y += ls
	}
}

// textwrap draws text at location, wrapping at the specified width
func textwrap(doc *svg.SVG, x, y, w, fs float64, leading float64, s, font, color string, opacity float64) {
	doc.Gstyle(fmt.Sprintf("fill-opacity:%.2f;fill:%s;font-family:%s;font-size:%.2fpx", setop(opacity), svgcolor(color), fontlookup(font), fs))
	words := strings.FieldsFunc(s, whitespace)
	yp := y
	var line string
	for _, word := range words {
		next := strings.TrimSpace(line + " " + word)
		if line != "" && fs*float64(len(next))*charWidth > w {
			doc.Text(x, yp, line, `xml:space="preserve"`)
			yp += leading
			next = word
		}
		line = next
	}
	if len(line) > 0 {
		doc.Text(x, yp, line, `xml:space="preserve"`)
	}
	doc.Gend()
}

// dolist places lists on the canvas
func dolist(doc *svg.SVG, x, y, fs, spacing float64, tlist []deck.ListItem, font, ltype, color string, opacity float64) {
	if font == "" {
		font = "sans"
	}
	if spacing <= 0 {
		spacing = listspacing
	}
	doc.Gstyle(fmt.Sprintf("fill-opacity:%.2f;fill:%s;font-family:%s;font-size:%.2fpx", setop(opacity), svgcolor(color), fontlookup(font), fs))
	if ltype == "bullet" {
		x += fs
	}
	ls := spacing * fs
	for i, tl := range tlist {
		t := tl.ListText
		if ltype == "number" {
			t = fmt.Sprintf("%d. %s", i+1, t)
		}
		if ltype == "bullet" {
			bullet(doc, x, y, fs, color)
		}
		doc.Text(x, y, t, `xml:space="preserve"`)
		y += ls
	}
	doc.Gend()
}
