package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/deckgen/pkg/outline"
)

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"http://example.com/a.png", true},
		{"https://example.com/a.png?x=1", true},
		{"HTTPS://EXAMPLE.COM/", true},
		{"javascript:alert(1)", false},
		{"JavaScript:alert(1)", false},
		{"ftp://example.com/a.png", false},
		{"data:image/png;base64,AAAA", false},
		{"/relative/path.png", false},
		{"http://", false},
		{"http://[::1", false},
		{"", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeURL(tt.url))
		})
	}
}

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`<a href="x">Tom & 'Jerry'</a>`)
	for _, c := range []string{"<", ">", `"`, "'"} {
		assert.NotContains(t, got, c)
	}
	assert.Contains(t, got, "&amp;")
	assert.Contains(t, got, "&lt;a")
}

func TestRenderEscapesScript(t *testing.T) {
	slide := outline.ParseBlock(1, "# <script>alert(1)</script>\n## <b>\n- <img onerror=x>\nplain <i>")
	out := New(WithPosition(FixedPosition(TopLeft))).Render(slide, nil).HTML()

	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "<b>")
	assert.NotContains(t, out, "<img onerror")
	assert.NotContains(t, out, "<i>")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestRenderIdempotent(t *testing.T) {
	slide := outline.ParseBlock(0, "# A & B\n- <x>")
	r := New(WithPosition(FixedPosition(BottomRight)))
	asset := &Asset{ID: "a", URL: "https://img.test/a.png", Alt: "alt"}
	assert.Equal(t, r.Render(slide, asset).HTML(), r.Render(slide, asset).HTML())
}

func TestRenderGroupsBullets(t *testing.T) {
	slide := outline.ParseBlock(2, "# T\n- a\n- b\ntext\n- c")
	node := New().Render(slide, nil)

	require.Len(t, node.Children, 1)
	content := node.Children[0]
	require.Equal(t, ContentNode, content.Kind)

	kinds := make([]NodeKind, len(content.Children))
	for i, c := range content.Children {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []NodeKind{Heading1Node, ListNode, ParagraphNode, ListNode}, kinds)
	assert.Len(t, content.Children[1].Children, 2)
	assert.Len(t, content.Children[3].Children, 1)
	assert.Equal(t, 2, strings.Count(node.HTML(), "<ul"))
	assert.Equal(t, 2, strings.Count(node.HTML(), "</ul>"))
}

func TestRenderCoverHeading(t *testing.T) {
	r := New()
	cover := r.Render(outline.ParseBlock(0, "# Cover"), nil).HTML()
	other := r.Render(outline.ParseBlock(1, "# Other"), nil).HTML()

	assert.Contains(t, cover, `<h1 class="title cover">Cover</h1>`)
	assert.Contains(t, other, `<h1 class="title">Other</h1>`)
}

func TestRenderUnsafeImageBecomesWarning(t *testing.T) {
	slide := outline.ParseBlock(1, "![x](javascript:alert(1))\n![ok](https://img.test/ok.png)")
	node := New().Render(slide, nil)
	content := node.Children[0]

	require.Len(t, content.Children, 2)
	assert.Equal(t, WarningNode, content.Children[0].Kind)
	assert.Equal(t, ImageNode, content.Children[1].Kind)

	out := node.HTML()
	assert.NotContains(t, out, `src="javascript:`)
	assert.Contains(t, out, `src="https://img.test/ok.png"`)
}

func TestRenderDecoration(t *testing.T) {
	slide := outline.ParseBlock(3, "# Decorated")

	t.Run("safe asset", func(t *testing.T) {
		node := New(WithPosition(FixedPosition(CenterRight))).Render(slide, &Asset{URL: "https://img.test/d.png", Alt: `"quoted"`})
		require.Equal(t, DecorationNode, node.Children[0].Kind)
		assert.Equal(t, CenterRight, node.Children[0].Anchor)

		out := node.HTML()
		assert.Contains(t, out, "anchor-center-right")
		assert.Contains(t, out, "pointer-events:none")
		assert.Contains(t, out, "opacity:0.2")
		assert.Contains(t, out, `aria-hidden="true"`)
		assert.NotContains(t, out, `alt=""quoted""`)
	})

	t.Run("unsafe asset", func(t *testing.T) {
		node := New().Render(slide, &Asset{URL: "ftp://img.test/d.png"})
		assert.Equal(t, WarningNode, node.Children[0].Kind)
		assert.NotContains(t, node.HTML(), `src="ftp:`)
	})
}

func TestPositionFuncIsUsed(t *testing.T) {
	calls := 0
	r := New(WithPosition(func() Anchor {
		calls++
		return BottomLeft
	}))
	r.Render(outline.ParseBlock(0, "# x"), &Asset{URL: "https://a.test/x.png"})
	r.Render(outline.ParseBlock(0, "# x"), nil)
	assert.Equal(t, 1, calls)
}

func TestAnnotateEscapesNarration(t *testing.T) {
	r := New()
	node := r.Render(outline.ParseBlock(0, "# x"), nil)
	r.Annotate(node, "first")
	r.Annotate(node, `say "<hi>"`)

	out := node.HTML()
	assert.Equal(t, 1, strings.Count(out, "<aside"))
	assert.Contains(t, out, "say &#34;&lt;hi&gt;&#34;")
	assert.NotContains(t, out, "first")

	r.Annotate(node, "")
	assert.NotContains(t, node.HTML(), "<aside")
}

func TestRenderDeck(t *testing.T) {
	slides := outline.Parse("# a\n\n# b\n\n# c")
	assets := map[int]Asset{1: {URL: "https://img.test/b.png", SourceSlideIndex: 1}}
	notes := map[int]string{2: "closing words"}

	nodes := New(WithPosition(FixedPosition(TopLeft))).RenderDeck(slides, assets, notes)
	require.Len(t, nodes, 3)
	assert.Equal(t, ContentNode, nodes[0].Children[0].Kind)
	assert.Equal(t, DecorationNode, nodes[1].Children[0].Kind)
	assert.Contains(t, nodes[2].HTML(), "closing words")

	sections := Sections(nodes)
	assert.True(t, strings.HasPrefix(sections[2], `<section class="slide" data-index="2">`))
}

func TestParseAnchor(t *testing.T) {
	for _, a := range Anchors {
		got, ok := ParseAnchor(a.String())
		require.True(t, ok)
		assert.Equal(t, a, got)
	}
	_, ok := ParseAnchor("middle")
	assert.False(t, ok)
}
