package capture

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

const (
	linespacing = 1.4
	listspacing = 2.0
	fillfmt     = "fill:%s;fill-opacity:%.2f"
)

// pct converts a percentage to a canvas measure.
func pct(p float64, m float64) float64 {
	return ((p / 100.0) * m)
}

// dimen returns canvas coordinates and size from deck percentages. y is
// measured from the bottom.
func dimen(w, h float64, xp, yp, sp float64) (float64, float64, float64) {
	return pct(xp, w), pct(100-yp, h), pct(sp, w)
}

// setop maps deck opacity to alpha: 0 is opaque, negative is transparent,
// anything else is a percentage.
func setop(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 0:
		return v / 100
	}
	return 1
}

func whitespace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t'
}

// colorNumbers returns the comma separated arguments of xxx(n1, n2, n3).
func colorNumbers(s string) []string {
	return strings.Split(strings.NewReplacer(" ", "", "\t", "").Replace(s[4:len(s)-1]), ",")
}

// hsv2rgb converts hsv(h 0-360, s 0-100, v 0-100) to rgb.
func hsv2rgb(h, s, v float64) (int, int, int) {
	s /= 100
	v /= 100
	if s > 1 || v > 1 {
		return 0, 0, 0
	}
	h = math.Mod(h, 360)
	c := v * s
	section := h / 60
	x := c * (1 - math.Abs(math.Mod(section, 2)-1))

	var r, g, b float64
	switch {
	case section >= 0 && section <= 1:
		r, g, b = c, x, 0
	case section > 1 && section <= 2:
		r, g, b = x, c, 0
	case section > 2 && section <= 3:
		r, g, b = 0, c, x
	case section > 3 && section <= 4:
		r, g, b = 0, x, c
	case section > 4 && section <= 5:
		r, g, b = x, 0, c
	case section > 5 && section <= 6:
		r, g, b = c, 0, x
	default:
		return 0, 0, 0
	}
	m := v - c
	return int((r + m) * 255), int((g + m) * 255), int((b + m) * 255)
}

// svgcolor converts hsv() colors to rgb() and passes others through.
func svgcolor(c string) string {
	if strings.HasPrefix(c, "hsv(") && strings.HasSuffix(c, ")") && len(c) > 5 {
		var red, green, blue int
		v := colorNumbers(c)
		if len(v) == 3 {
			hue, _ := strconv.ParseFloat(v[0], 64)
			sat, _ := strconv.ParseFloat(v[1], 64)
			value, _ := strconv.ParseFloat(v[2], 64)
			red, green, blue = hsv2rgb(hue, sat, value)
		}
		return fmt.Sprintf("rgb(%d,%d,%d)", red, green, blue)
	}
	return c
}

var namedColors = map[string]color.RGBA{
	"black": {0, 0, 0, 255},
	"white": {255, 255, 255, 255},
	"gray":  {127, 127, 127, 255},
	"red":   {255, 0, 0, 255},
}

// rasterColor parses the subset of deck colors used by layouts: names,
// #rrggbb, rgb() and hsv().
func rasterColor(c string, opacity float64) color.Color {
	c = strings.TrimSpace(svgcolor(c))
	rgba, ok := namedColors[c]
	switch {
	case ok:
	case strings.HasPrefix(c, "#") && len(c) == 7:
		if v, err := strconv.ParseUint(c[1:], 16, 32); err == nil {
			rgba = color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}
		}
	case strings.HasPrefix(c, "rgb(") && strings.HasSuffix(c, ")"):
		v := colorNumbers(c)
		if len(v) == 3 {
			r, _ := strconv.Atoi(v[0])
			g, _ := strconv.Atoi(v[1])
			b, _ := strconv.Atoi(v[2])
			rgba = color.RGBA{uint8(r), uint8(g), uint8(b), 255}
		}
	default:
		rgba = namedColors["black"]
	}
	return color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: uint8(setop(opacity) * 255)}
}

// textalign returns the SVG text anchor for a deck alignment.
func textalign(s string) string {
	switch s {
	case "center", "middle", "mid", "c":
		return "middle"
	case "right", "end", "e":
		return "end"
	}
	return "start"
}

// anchorX returns the horizontal anchor fraction for a deck alignment.
func anchorX(s string) float64 {
	switch textalign(s) {
	case "middle":
		return 0.5
	case "end":
		return 1
	}
	return 0
}
