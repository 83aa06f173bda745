// Package render turns parsed slides into sanitized visual trees.
//
// All text is escaped when the tree is built and every URL passes IsSafeURL
// before it is embedded, so HTML output can be written verbatim.
package render

import (
	"math/rand/v2"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/joeblew999/deckgen/pkg/outline"
)

// DecorationOpacity is the opacity of the generated background image.
const DecorationOpacity = 0.2

// Asset is a generated image owned by the slide that requested it.
type Asset struct {
	ID               string `json:"id"`
	URL              string `json:"url"`
	Alt              string `json:"alt"`
	SourceSlideIndex int    `json:"sourceSlideIndex"`
}

// Anchor is one of the fixed placements of the decorative image.
type Anchor int

const (
	TopLeft Anchor = iota
	TopRight
	BottomLeft
	BottomRight
	CenterLeft
	CenterRight
)

// Anchors lists every placement.
var Anchors = []Anchor{TopLeft, TopRight, BottomLeft, BottomRight, CenterLeft, CenterRight}

func (a Anchor) String() string {
	switch a {
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	case CenterLeft:
		return "center-left"
	case CenterRight:
		return "center-right"
	default:
		return "top-left"
	}
}

// ParseAnchor maps a class suffix back to its anchor.
func ParseAnchor(s string) (Anchor, bool) {
	for _, a := range Anchors {
		if a.String() == s {
			return a, true
		}
	}
	return TopLeft, false
}

// PositionFunc picks the anchor for a decorative image.
type PositionFunc func() Anchor

// RandomPosition picks an anchor uniformly.
func RandomPosition() Anchor {
	return Anchors[rand.IntN(len(Anchors))]
}

// FixedPosition always returns a.
func FixedPosition(a Anchor) PositionFunc {
	return func() Anchor { return a }
}

// EscapeHTML escapes & < > " and ' for inclusion in markup.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}

// IsSafeURL admits absolute http and https URLs only.
func IsSafeURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	}
	return false
}

// Renderer builds visual trees. The zero value is not usable; use New.
type Renderer struct {
	position PositionFunc
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPosition overrides the decorative placement choice.
func WithPosition(f PositionFunc) Option {
	return func(r *Renderer) {
		if f != nil {
			r.position = f
		}
	}
}

// New creates a Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{position: RandomPosition}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Render builds the visual tree for one slide. asset may be nil.
func (r *Renderer) Render(slide outline.Slide, asset *Asset) *VisualNode {
	root := &VisualNode{Kind: SlideNode, Index: slide.Index}

	if asset != nil {
		root.Children = append(root.Children, r.decoration(*asset))
	}

	content := &VisualNode{Kind: ContentNode}
	var list *VisualNode
	for _, l := range slide.Lines {
		if l.Kind != outline.BulletItem {
			list = nil
		}
		switch l.Kind {
		case outline.ImageRef:
			content.Children = append(content.Children, imageNode(l.URL, l.Alt))
		case outline.Heading1:
			h := &VisualNode{Kind: Heading1Node, Text: EscapeHTML(l.Text)}
			if slide.IsCover() {
				h.Class = "cover"
			}
			content.Children = append(content.Children, h)
		case outline.Heading2:
			content.Children = append(content.Children, &VisualNode{Kind: Heading2Node, Text: EscapeHTML(l.Text)})
		case outline.BulletItem:
			if list == nil {
				list = &VisualNode{Kind: ListNode}
				content.Children = append(content.Children, list)
			}
			list.Children = append(list.Children, &VisualNode{Kind: ListItemNode, Text: EscapeHTML(l.Text)})
		default:
			content.Children = append(content.Children, &VisualNode{Kind: ParagraphNode, Text: EscapeHTML(l.Text)})
		}
	}
	root.Children = append(root.Children, content)
	return root
}

func (r *Renderer) decoration(a Asset) *VisualNode {
	if !IsSafeURL(a.URL) {
		return warningNode(a.URL)
	}
	return &VisualNode{
		Kind:   DecorationNode,
		Anchor: r.position(),
		Src:    EscapeHTML(a.URL),
		Alt:    EscapeHTML(a.Alt),
	}
}

func imageNode(rawURL, alt string) *VisualNode {
	if !IsSafeURL(rawURL) {
		return warningNode(rawURL)
	}
	return &VisualNode{Kind: ImageNode, Src: EscapeHTML(rawURL), Alt: EscapeHTML(alt)}
}

func warningNode(rawURL string) *VisualNode {
	return &VisualNode{Kind: WarningNode, Text: EscapeHTML("Image blocked: unsafe URL " + rawURL)}
}

// Annotate attaches narration to a rendered slide as speaker notes,
// replacing any earlier annotation.
func (r *Renderer) Annotate(n *VisualNode, narration string) {
	if n == nil {
		return
	}
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.Kind != NotesNode {
			kept = append(kept, c)
		}
	}
	n.Children = kept
	if strings.TrimSpace(narration) == "" {
		return
	}
	n.Children = append(n.Children, &VisualNode{Kind: NotesNode, Text: EscapeHTML(narration)})
}

// RenderDeck renders every slide, attaching assets and narrations by slide
// index. Either map may be nil.
func (r *Renderer) RenderDeck(slides []outline.Slide, assets map[int]Asset, notes map[int]string) []*VisualNode {
	out := make([]*VisualNode, len(slides))
	for i, s := range slides {
		var asset *Asset
		if a, ok := assets[s.Index]; ok {
			asset = &a
		}
		out[i] = r.Render(s, asset)
		if n, ok := notes[s.Index]; ok {
			r.Annotate(out[i], n)
		}
	}
	return out
}
