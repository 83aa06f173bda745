package capture

import (
	"fmt"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Fonts holds the parsed typefaces used for raster text.
type Fonts struct {
	regular *truetype.Font
	bold    *truetype.Font
}

// LoadFonts parses the Go fonts. A non-empty path replaces the regular face
// with a TrueType file, for scripts the Go fonts do not cover.
func LoadFonts(path string) (*Fonts, error) {
	regularTTF := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		regularTTF = b
	}
	regular, err := truetype.Parse(regularTTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold := regular
	if path == "" {
		if bold, err = truetype.Parse(gobold.TTF); err != nil {
			return nil, fmt.Errorf("parse bold font: %w", err)
		}
	}
	return &Fonts{regular: regular, bold: bold}, nil
}

type faceKey struct {
	bold bool
	size float64
}

// faceCache creates faces on demand. Faces are not safe for concurrent use,
// so each capture gets its own cache.
type faceCache struct {
	fonts *Fonts
	faces map[faceKey]font.Face
}

func (f *Fonts) cache() *faceCache {
	return &faceCache{fonts: f, faces: make(map[faceKey]font.Face)}
}

func (c *faceCache) face(fontName string, size float64) font.Face {
	k := faceKey{bold: fontName == "bold", size: size}
	if face, ok := c.faces[k]; ok {
		return face
	}
	tt := c.fonts.regular
	if k.bold {
		tt = c.fonts.bold
	}
	face := truetype.NewFace(tt, &truetype.Options{Size: size, Hinting: font.HintingFull})
	c.faces[k] = face
	return face
}
