package export

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joeblew999/deckgen/pkg/render"
)

// Surface is an isolated, fixed-size copy of one slide's markup.
type Surface struct {
	Index  int
	Width  int
	Height int
	Scale  float64
	Root   *html.Node
}

// PixelSize is the raster size of the surface.
func (s *Surface) PixelSize() (int, int) {
	return int(float64(s.Width) * s.Scale), int(float64(s.Height) * s.Scale)
}

// HTML serializes the surface tree.
func (s *Surface) HTML() (string, error) {
	var b strings.Builder
	if err := html.Render(&b, s.Root); err != nil {
		return "", err
	}
	return b.String(), nil
}

// NewSurface parses markup into a fresh tree inside a width×height container
// and strips anything that could run script.
func NewSurface(index int, markup string, width, height int, scale float64) (*Surface, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(markup), body)
	if err != nil {
		return nil, fmt.Errorf("parse slide markup: %w", err)
	}

	root := &html.Node{
		Type:     html.ElementNode,
		Data:     "div",
		DataAtom: atom.Div,
		Attr: []html.Attribute{
			{Key: "class", Val: "capture-surface"},
			{Key: "style", Val: fmt.Sprintf("width:%dpx;height:%dpx;overflow:hidden;background:white", width, height)},
		},
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	Strip(root)

	return &Surface{Index: index, Width: width, Height: height, Scale: scale, Root: root}, nil
}

var activeElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Frame:    true,
	atom.Frameset: true,
	atom.Applet:   true,
	atom.Base:     true,
	atom.Link:     true,
	atom.Meta:     true,
}

var urlAttributes = map[string]bool{
	"href":       true,
	"src":        true,
	"xlink:href": true,
	"action":     true,
	"formaction": true,
	"poster":     true,
	"background": true,
	"data":       true,
}

// Strip removes script-bearing elements, comments, event handler attributes
// and non-http(s) URLs from the subtree rooted at n.
func Strip(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && (activeElements[c.DataAtom] || strings.EqualFold(c.Data, "script")):
			n.RemoveChild(c)
		default:
			Strip(c)
		}
		c = next
	}
	if n.Type == html.ElementNode {
		n.Attr = stripAttrs(n.Attr)
	}
}

func stripAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if a.Namespace != "" {
			key = strings.ToLower(a.Namespace) + ":" + key
		}
		switch {
		case strings.HasPrefix(key, "on"):
			continue
		case key == "srcdoc" || key == "srcset":
			continue
		case urlAttributes[key] && !render.IsSafeURL(a.Val):
			continue
		case key == "style" && unsafeStyle(a.Val):
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func unsafeStyle(v string) bool {
	v = strings.ToLower(v)
	return strings.Contains(v, "javascript:") || strings.Contains(v, "expression(")
}
