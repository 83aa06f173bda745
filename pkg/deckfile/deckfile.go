// Package deckfile converts laid-out decks to decksh source and compiles
// decksh source back into deck markup.
package deckfile

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/ajstarks/deck"
	"github.com/ajstarks/decksh"
)

// Encode writes d as decksh source.
func Encode(w io.Writer, d *deck.Deck) error {
	e := &encoder{w: w}
	e.line(0, "deck")
	if d.Canvas.Width > 0 && d.Canvas.Height > 0 {
		e.line(1, "canvas %d %d", d.Canvas.Width, d.Canvas.Height)
	}
	for _, s := range d.Slide {
		e.slide(s)
	}
	e.line(0, "edeck")
	return e.err
}

// EncodeString is Encode into a string.
func EncodeString(d *deck.Deck) (string, error) {
	var b strings.Builder
	if err := Encode(&b, d); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Compile runs decksh over src and decodes the resulting deck markup.
func Compile(src []byte) (*deck.Deck, error) {
	var out bytes.Buffer
	if err := decksh.Process(&out, bytes.NewReader(src)); err != nil {
		return nil, fmt.Errorf("decksh processing failed: %w", err)
	}
	var d deck.Deck
	if err := xml.Unmarshal(out.Bytes(), &d); err != nil {
		return nil, fmt.Errorf("deck parsing failed: %w", err)
	}
	return &d, nil
}

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) line(depth int, format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, "%s%s\n", strings.Repeat("\t", depth), fmt.Sprintf(format, args...))
}

func (e *encoder) slide(s deck.Slide) {
	e.line(1, "slide %s %s", quote(s.Bg), quote(s.Fg))
	for _, t := range s.Text {
		font, color := fontOr(t.Font), colorOr(t.Color, s.Fg)
		switch {
		case t.Type == "block":
			e.line(2, "textblock %s %s %s %s %s %s %s", quote(t.Tdata), num(t.Xp), num(t.Yp), num(t.Wp), num(t.Sp), quote(font), quote(color))
		case t.Align == "end":
			e.line(2, "etext %s %s %s %s %s %s", quote(t.Tdata), num(t.Xp), num(t.Yp), num(t.Sp), quote(font), quote(color))
		case t.Align == "center" || t.Align == "middle":
			e.line(2, "ctext %s %s %s %s %s %s", quote(t.Tdata), num(t.Xp), num(t.Yp), num(t.Sp), quote(font), quote(color))
		default:
			e.line(2, "text %s %s %s %s %s %s", quote(t.Tdata), num(t.Xp), num(t.Yp), num(t.Sp), quote(font), quote(color))
		}
	}
	for _, l := range s.List {
		kind := "list"
		switch l.Type {
		case "bullet":
			kind = "blist"
		case "number":
			kind = "nlist"
		}
		e.line(2, "%s %s %s %s %s %s", kind, num(l.Xp), num(l.Yp), num(l.Sp), quote(fontOr(l.Font)), quote(colorOr(l.Color, s.Fg)))
		for _, li := range l.Li {
			e.line(3, "li %s", quote(li.ListText))
		}
		e.line(2, "elist")
	}
	for _, im := range s.Image {
		e.line(2, "image %s %s %s %d %d", quote(im.Name), num(im.Xp), num(im.Yp), im.Width, im.Height)
	}
	e.line(1, "eslide")
}

// decksh has no escape for double quotes inside strings.
var quoteReplacer = strings.NewReplacer(`"`, "'", "\n", " ", "\r", " ", "\t", " ")

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

func num(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func fontOr(f string) string {
	if f == "" || f == "bold" {
		return "sans"
	}
	return f
}

func colorOr(c, fallback string) string {
	if c != "" {
		return c
	}
	if fallback != "" {
		return fallback
	}
	return "black"
}
