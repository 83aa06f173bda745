package outline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitExample(t *testing.T) {
	slides, err := Split("# T\n## C\n## A\n\n# S2\n- b1\n- b2", 2)
	require.NoError(t, err)
	require.Len(t, slides, 2)

	assert.Equal(t, []Line{
		{Kind: Heading1, Text: "T"},
		{Kind: Heading2, Text: "C"},
		{Kind: Heading2, Text: "A"},
	}, slides[0].Lines)
	assert.Equal(t, []Line{
		{Kind: Heading1, Text: "S2"},
		{Kind: BulletItem, Text: "b1"},
		{Kind: BulletItem, Text: "b2"},
	}, slides[1].Lines)
	assert.True(t, slides[0].IsCover())
	assert.False(t, slides[1].IsCover())
}

func TestSplitCounts(t *testing.T) {
	five := "# 1\n\n# 2\n\n\n\n# 3\n\n---\n\n# 4\n\n   \n\n# 5"

	tests := []struct {
		name      string
		requested int
		wantLen   int
		wantErr   bool
	}{
		{"exact", 5, 5, false},
		{"truncates extra blocks", 3, 3, false},
		{"single", 1, 1, false},
		{"too few", 6, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slides, err := Split(five, tt.requested)
			if tt.wantErr {
				var insufficient *InsufficientSlidesError
				require.ErrorAs(t, err, &insufficient)
				assert.Equal(t, 6, insufficient.Requested)
				assert.Equal(t, 5, insufficient.Found)
				assert.True(t, errors.Is(err, ErrInsufficientSlides))
				return
			}
			require.NoError(t, err)
			require.Len(t, slides, tt.wantLen)
			for i, s := range slides {
				assert.Equal(t, i, s.Index)
				assert.Equal(t, Heading1, s.Lines[0].Kind)
			}
			assert.Equal(t, "1", slides[0].Title())
			if len(slides) > 2 {
				assert.Equal(t, "3", slides[2].Title())
			}
		})
	}
}

func TestSplitRejectsNonPositiveCount(t *testing.T) {
	_, err := Split("# a", 0)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInsufficientSlides))
}

func TestSplitNormalizesCRLF(t *testing.T) {
	slides, err := Split("# A\r\n- x\r\n\r\n# B", 2)
	require.NoError(t, err)
	assert.Equal(t, "x", slides[0].Lines[1].Text)
	assert.Equal(t, "B", slides[1].Title())
}

func TestParseLineRules(t *testing.T) {
	tests := []struct {
		in   string
		want Line
		skip bool
	}{
		{in: "# Title", want: Line{Kind: Heading1, Text: "Title"}},
		{in: "## Sub", want: Line{Kind: Heading2, Text: "Sub"}},
		{in: "- item", want: Line{Kind: BulletItem, Text: "item"}},
		{in: "  - indented item  ", want: Line{Kind: BulletItem, Text: "indented item"}},
		{in: "plain text", want: Line{Kind: Paragraph, Text: "plain text"}},
		{in: "#nospace", want: Line{Kind: Paragraph, Text: "#nospace"}},
		{in: "### deeper", want: Line{Kind: Paragraph, Text: "### deeper"}},
		{in: "![chart](https://x.test/a.png)", want: Line{Kind: ImageRef, Alt: "chart", URL: "https://x.test/a.png"}},
		{in: "- see ![c](http://x.test/c.png)", want: Line{Kind: ImageRef, Alt: "c", URL: "http://x.test/c.png"}},
		{in: "   ", skip: true},
		{in: "---", skip: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseLine(tt.in)
			if tt.skip {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeepsAllBlocks(t *testing.T) {
	slides := Parse("# a\n\n# b\n\n# c")
	require.Len(t, slides, 3)
	assert.Equal(t, "c", slides[2].Title())
	assert.Empty(t, Parse("\n\n---\n\n"))
}

func TestJoinRoundTrip(t *testing.T) {
	text := "# A\n- one\n\n# B\ntext"
	slides := Parse(text)
	assert.Equal(t, text, Join(slides))
	again, err := Split(Join(slides), 2)
	require.NoError(t, err)
	assert.Equal(t, slides, again)
}

func TestSlideJSON(t *testing.T) {
	slides := Parse("# Intro\n## Acme\n- point\nplain\n![logo](https://img.test/l.png)")
	raw, err := json.Marshal(slides)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"heading2"`)

	var back []Slide
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, slides, back)

	var l Line
	assert.Error(t, json.Unmarshal([]byte(`{"kind":"heading9"}`), &l))
}
