// Package outline splits generated outline text into slides and parses the
// small line dialect each slide is written in.
//
// The dialect is line oriented: an image reference ![alt](url), "# " for the
// slide title, "## " for a subtitle, "- " for a bullet, and anything else is a
// paragraph. Blocks are separated by one or more blank lines.
package outline

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Separator is a block that carries no content and is dropped when splitting.
const Separator = "---"

// Kind tags a parsed line.
type Kind int

const (
	Paragraph Kind = iota
	Heading1
	Heading2
	BulletItem
	ImageRef
)

func (k Kind) String() string {
	switch k {
	case Heading1:
		return "heading1"
	case Heading2:
		return "heading2"
	case BulletItem:
		return "bullet"
	case ImageRef:
		return "image"
	default:
		return "paragraph"
	}
}

// MarshalText lets kinds appear by name in JSON output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for _, c := range []Kind{Paragraph, Heading1, Heading2, BulletItem, ImageRef} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown line kind %q", b)
}

// Line is one parsed line of a slide. Alt and URL are set for ImageRef only.
type Line struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text,omitempty"`
	Alt  string `json:"alt,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Slide is one block of the outline.
type Slide struct {
	Index  int    `json:"index"`
	Lines  []Line `json:"lines"`
	Source string `json:"source"`
}

// IsCover reports whether the slide is the title slide of the deck.
func (s Slide) IsCover() bool {
	return s.Index == 0
}

// Title returns the first Heading1 text, or "".
func (s Slide) Title() string {
	for _, l := range s.Lines {
		if l.Kind == Heading1 {
			return l.Text
		}
	}
	return ""
}

var ErrInsufficientSlides = errors.New("insufficient slides")

// InsufficientSlidesError reports that the outline held fewer blocks than
// requested. The caller has to regenerate the outline.
type InsufficientSlidesError struct {
	Requested int
	Found     int
}

func (e *InsufficientSlidesError) Error() string {
	return fmt.Sprintf("%s: requested %d, found %d", ErrInsufficientSlides, e.Requested, e.Found)
}

func (e *InsufficientSlidesError) Unwrap() error { return ErrInsufficientSlides }

var (
	blockSep = regexp.MustCompile(`\n\n+`)
	imageRef = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)
)

// Blocks returns the trimmed, non-empty blocks of an outline in order.
func Blocks(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var blocks []string
	for _, b := range blockSep.Split(text, -1) {
		b = strings.TrimSpace(b)
		if b == "" || b == Separator {
			continue
		}
		blocks = append(blocks, b)
	}
	return blocks
}

// Split parses exactly requestedCount slides from text. Extra blocks are
// dropped; too few blocks is an *InsufficientSlidesError.
func Split(text string, requestedCount int) ([]Slide, error) {
	if requestedCount <= 0 {
		return nil, fmt.Errorf("requested slide count must be positive, got %d", requestedCount)
	}

	blocks := Blocks(text)
	if len(blocks) < requestedCount {
		return nil, &InsufficientSlidesError{Requested: requestedCount, Found: len(blocks)}
	}

	slides := make([]Slide, requestedCount)
	for i, b := range blocks[:requestedCount] {
		slides[i] = ParseBlock(i, b)
	}
	return slides, nil
}

// Parse parses every block of text without a count requirement.
func Parse(text string) []Slide {
	blocks := Blocks(text)
	slides := make([]Slide, len(blocks))
	for i, b := range blocks {
		slides[i] = ParseBlock(i, b)
	}
	return slides
}

// ParseBlock parses a single block into a slide at the given index.
func ParseBlock(index int, block string) Slide {
	s := Slide{Index: index, Source: strings.TrimSpace(block)}
	for _, raw := range strings.Split(s.Source, "\n") {
		if l, ok := parseLine(raw); ok {
			s.Lines = append(s.Lines, l)
		}
	}
	return s
}

func parseLine(raw string) (Line, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || line == Separator {
		return Line{}, false
	}

	if m := imageRef.FindStringSubmatch(line); m != nil {
		return Line{Kind: ImageRef, Alt: m[1], URL: m[2]}, true
	}

	switch {
	case strings.HasPrefix(line, "# "):
		return Line{Kind: Heading1, Text: line[2:]}, true
	case strings.HasPrefix(line, "## "):
		return Line{Kind: Heading2, Text: line[3:]}, true
	case strings.HasPrefix(line, "- "):
		return Line{Kind: BulletItem, Text: line[2:]}, true
	}
	return Line{Kind: Paragraph, Text: line}, true
}

// Join rebuilds outline text from slides, one blank line between blocks.
func Join(slides []Slide) string {
	parts := make([]string, len(slides))
	for i, s := range slides {
		parts[i] = s.Source
	}
	return strings.Join(parts, "\n\n")
}
