package render

import (
	"fmt"
	"strings"
)

// NodeKind identifies a visual node.
type NodeKind int

const (
	SlideNode NodeKind = iota
	DecorationNode
	ContentNode
	Heading1Node
	Heading2Node
	ListNode
	ListItemNode
	ParagraphNode
	ImageNode
	WarningNode
	NotesNode
)

// VisualNode is a sanitized display tree. Text, Src and Alt hold escaped
// values and are written to markup as-is.
type VisualNode struct {
	Kind     NodeKind
	Class    string
	Text     string
	Src      string
	Alt      string
	Anchor   Anchor
	Index    int
	Children []*VisualNode
}

// HTML serializes the tree.
func (n *VisualNode) HTML() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n *VisualNode) write(b *strings.Builder) {
	switch n.Kind {
	case SlideNode:
		fmt.Fprintf(b, `<section class="slide" data-index="%d">`, n.Index)
		n.writeChildren(b)
		b.WriteString(`</section>`)
	case DecorationNode:
		fmt.Fprintf(b, `<div class="decoration anchor-%s" aria-hidden="true" style="position:absolute;opacity:%.1f;pointer-events:none">`, n.Anchor, DecorationOpacity)
		fmt.Fprintf(b, `<img src="%s" alt="%s">`, n.Src, n.Alt)
		b.WriteString(`</div>`)
	case ContentNode:
		b.WriteString(`<div class="content">`)
		n.writeChildren(b)
		b.WriteString(`</div>`)
	case Heading1Node:
		class := "title"
		if n.Class != "" {
			class += " " + n.Class
		}
		fmt.Fprintf(b, `<h1 class="%s">%s</h1>`, class, n.Text)
	case Heading2Node:
		fmt.Fprintf(b, `<h2 class="subtitle">%s</h2>`, n.Text)
	case ListNode:
		b.WriteString(`<ul class="bullets">`)
		n.writeChildren(b)
		b.WriteString(`</ul>`)
	case ListItemNode:
		fmt.Fprintf(b, `<li>%s</li>`, n.Text)
	case ParagraphNode:
		fmt.Fprintf(b, `<p>%s</p>`, n.Text)
	case ImageNode:
		fmt.Fprintf(b, `<figure class="image"><img src="%s" alt="%s"></figure>`, n.Src, n.Alt)
	case WarningNode:
		fmt.Fprintf(b, `<div class="warning" role="alert">%s</div>`, n.Text)
	case NotesNode:
		fmt.Fprintf(b, `<aside class="notes">%s</aside>`, n.Text)
	}
}

func (n *VisualNode) writeChildren(b *strings.Builder) {
	for _, c := range n.Children {
		c.write(b)
	}
}

// Sections serializes each slide tree.
func Sections(nodes []*VisualNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.HTML()
	}
	return out
}
