// Package capture paints capture surfaces: raster pages via gg, SVG via
// svgo, and assembles rasters into PDF documents.
//
// A surface is first laid out into a Scene, a deck.Slide in percentage
// coordinates plus the decorative backdrop, so both painters share one
// layout.
package capture

import (
	"math"
	"strings"

	"github.com/ajstarks/deck"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joeblew999/deckgen/pkg/render"
)

// Backdrop is the decorative image behind the slide content.
type Backdrop struct {
	URL     string
	Alt     string
	Anchor  render.Anchor
	Opacity float64
}

// Scene is a laid-out slide.
type Scene struct {
	Width    int
	Height   int
	Slide    deck.Slide
	Backdrop *Backdrop
	Notes    string
}

const (
	marginX      = 8.0
	contentWidth = 84.0
	topStart     = 9.0
	bodySize     = 2.2
	charWidth    = 0.55
	warningColor = "rgb(185,28,28)"
)

type block struct {
	size  float64
	gap   float64
	bold  bool
	align string
	color string
	kind  string
}

var (
	coverTitle = block{size: 4.6, gap: 14, bold: true}
	title      = block{size: 3.8, gap: 5}
	subtitle   = block{size: 2.6, gap: 3.5, bold: true, align: "end"}
	paragraph  = block{size: bodySize, gap: 2.2, kind: "block"}
	warning    = block{size: 1.8, gap: 2, color: warningColor, kind: "block"}
)

// layout tracks the vertical cursor in percent of height from the top.
type layout struct {
	scene  *Scene
	aspect float64
	top    float64
}

// Layout arranges the surface tree rooted at root on a width×height page.
func Layout(root *html.Node, width, height int) Scene {
	s := Scene{Width: width, Height: height}
	s.Slide.Bg = "white"
	s.Slide.Fg = "black"
	l := &layout{scene: &s, aspect: float64(width) / float64(height), top: topStart}
	l.walk(root)
	return s
}

func (l *layout) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch {
		case hasClass(c, "decoration"):
			l.backdrop(c)
		case c.DataAtom == atom.H1:
			b := title
			if hasClass(c, "cover") {
				b = coverTitle
			}
			l.text(textOf(c), b)
		case c.DataAtom == atom.H2:
			l.text(textOf(c), subtitle)
		case c.DataAtom == atom.Ul || c.DataAtom == atom.Ol:
			l.list(c)
		case c.DataAtom == atom.P:
			l.text(textOf(c), paragraph)
		case c.DataAtom == atom.Img:
			l.image(c)
		case c.DataAtom == atom.Aside && hasClass(c, "notes"):
			l.scene.Notes = textOf(c)
		case hasClass(c, "warning"):
			l.text(textOf(c), warning)
		default:
			l.walk(c)
		}
	}
}

func (l *layout) backdrop(n *html.Node) {
	img := find(n, atom.Img)
	if img == nil {
		return
	}
	b := &Backdrop{URL: attr(img, "src"), Alt: attr(img, "alt"), Opacity: render.DecorationOpacity}
	for _, c := range strings.Fields(attr(n, "class")) {
		if !strings.HasPrefix(c, "anchor-") {
			continue
		}
		if a, ok := render.ParseAnchor(strings.TrimPrefix(c, "anchor-")); ok {
			b.Anchor = a
		}
	}
	if b.URL != "" {
		l.scene.Backdrop = b
	}
}

// lineHeight converts a font size in percent of width to percent of height.
func (l *layout) lineHeight(size float64) float64 {
	return size * l.aspect
}

func (l *layout) text(s string, b block) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	lines := 1.0
	if b.kind == "block" {
		lines = math.Max(1, math.Ceil(float64(len([]rune(s)))*charWidth*b.size/contentWidth))
	}
	lh := l.lineHeight(b.size)
	t := deck.Text{
		CommonAttr: deck.CommonAttr{
			Xp:    marginX,
			Yp:    100 - (l.top + lh),
			Sp:    b.size,
			Font:  "sans",
			Type:  b.kind,
			Color: b.color,
			Lp:    linespacing,
		},
		Wp:    contentWidth,
		Tdata: s,
	}
	if b.bold {
		t.Font = "bold"
	}
	if b.align == "end" {
		t.Xp = marginX + contentWidth
		t.Align = "end"
	}
	l.scene.Slide.Text = append(l.scene.Slide.Text, t)
	l.top += lh*(1+(lines-1)*linespacing) + b.gap
}

func (l *layout) list(n *html.Node) {
	list := deck.List{
		CommonAttr: deck.CommonAttr{
			Xp:   marginX,
			Sp:   bodySize,
			Lp:   listspacing,
			Type: "bullet",
			Font: "sans",
		},
		Wp: contentWidth,
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Li {
			list.Li = append(list.Li, deck.ListItem{ListText: strings.TrimSpace(textOf(c))})
		}
	}
	if len(list.Li) == 0 {
		return
	}
	lh := l.lineHeight(bodySize)
	list.Yp = 100 - (l.top + lh)
	l.scene.Slide.List = append(l.scene.Slide.List, list)
	l.top += lh*listspacing*float64(len(list.Li)) + 1.5
}

func (l *layout) image(n *html.Node) {
	src := attr(n, "src")
	if src == "" {
		return
	}
	const boxHeight = 40.0
	w, h := l.scene.Width, l.scene.Height
	img := deck.Image{
		CommonAttr: deck.CommonAttr{
			Xp: 50,
			Yp: 100 - (l.top + boxHeight/2),
		},
		Width:   int(pct(contentWidth, float64(w))),
		Height:  int(pct(boxHeight, float64(h))),
		Name:    src,
		Caption: attr(n, "alt"),
	}
	l.scene.Slide.Image = append(l.scene.Slide.Image, img)
	l.top += boxHeight + 3
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func find(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if f := find(c, a); f != nil {
			return f
		}
	}
	return nil
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
