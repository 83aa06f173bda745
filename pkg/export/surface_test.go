package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSurfaceStripsActiveContent(t *testing.T) {
	markup := `<section class="slide" onclick="steal()">` +
		`<script>alert(1)</script>` +
		`<!-- note -->` +
		`<iframe src="https://evil.test"></iframe>` +
		`<a href="javascript:alert(1)" onmouseover="x()">link</a>` +
		`<img src="https://img.test/a.png" onerror="x()" alt="ok">` +
		`<img src="data:image/png;base64,AAAA">` +
		`<div style="background:url(javascript:alert(1))">styled</div>` +
		`<p style="color:red" ONLOAD="y()">text</p>` +
		`</section>`

	s, err := NewSurface(0, markup, 1920, 1080, 2)
	require.NoError(t, err)

	out, err := s.HTML()
	require.NoError(t, err)

	for _, banned := range []string{"<script", "alert(1)</script", "<iframe", "onclick", "onmouseover", "onerror", "ONLOAD", "onload", "javascript:", "note", "data:image"} {
		assert.NotContains(t, out, banned)
	}
	assert.Contains(t, out, `src="https://img.test/a.png"`)
	assert.Contains(t, out, `alt="ok"`)
	assert.Contains(t, out, `style="color:red"`)
	assert.Contains(t, out, ">link</a>")
	assert.Contains(t, out, ">styled</div>")
	assert.Contains(t, out, "width:1920px;height:1080px")

	w, h := s.PixelSize()
	assert.Equal(t, 3840, w)
	assert.Equal(t, 2160, h)
}

func TestNewSurfaceClonesIndependently(t *testing.T) {
	markup := `<section><p>same</p></section>`
	a, err := NewSurface(0, markup, 10, 10, 1)
	require.NoError(t, err)
	b, err := NewSurface(1, markup, 10, 10, 1)
	require.NoError(t, err)
	assert.NotSame(t, a.Root.FirstChild, b.Root.FirstChild)
}
