package capture

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/deckgen/pkg/export"
	"github.com/joeblew999/deckgen/pkg/outline"
	"github.com/joeblew999/deckgen/pkg/render"
)

type stubLoader struct {
	img   image.Image
	err   error
	calls []string
}

func (l *stubLoader) Load(_ context.Context, url string) (image.Image, error) {
	l.calls = append(l.calls, url)
	return l.img, l.err
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func surfaceFor(t *testing.T, block string, asset *render.Asset, scale float64) *export.Surface {
	t.Helper()
	r := render.New(render.WithPosition(render.FixedPosition(render.TopRight)))
	node := r.Render(outline.ParseBlock(1, block), asset)
	s, err := export.NewSurface(1, node.HTML(), 320, 180, scale)
	require.NoError(t, err)
	return s
}

func TestLayout(t *testing.T) {
	asset := &render.Asset{URL: "https://img.test/deco.png", Alt: "deco"}
	s := surfaceFor(t, "# Roadmap\n## Q3\n- one\n- two\nclosing words\n![chart](https://img.test/chart.png)", asset, 1)

	scene := Layout(s.Root, s.Width, s.Height)

	require.NotNil(t, scene.Backdrop)
	assert.Equal(t, "https://img.test/deco.png", scene.Backdrop.URL)
	assert.Equal(t, render.TopRight, scene.Backdrop.Anchor)
	assert.InDelta(t, render.DecorationOpacity, scene.Backdrop.Opacity, 1e-9)

	require.Len(t, scene.Slide.Text, 3)
	assert.Equal(t, "Roadmap", scene.Slide.Text[0].Tdata)
	assert.Equal(t, "Q3", scene.Slide.Text[1].Tdata)
	assert.Equal(t, "end", scene.Slide.Text[1].Align)
	assert.Equal(t, "closing words", scene.Slide.Text[2].Tdata)
	assert.Equal(t, "block", scene.Slide.Text[2].Type)

	// Lower on the page means a smaller Yp.
	assert.Greater(t, scene.Slide.Text[0].Yp, scene.Slide.Text[1].Yp)

	require.Len(t, scene.Slide.List, 1)
	require.Len(t, scene.Slide.List[0].Li, 2)
	assert.Equal(t, "two", scene.Slide.List[0].Li[1].ListText)

	require.Len(t, scene.Slide.Image, 1)
	assert.Equal(t, "https://img.test/chart.png", scene.Slide.Image[0].Name)
	assert.Equal(t, "chart", scene.Slide.Image[0].Caption)
}

func TestLayoutWarningAndNotes(t *testing.T) {
	r := render.New()
	node := r.Render(outline.ParseBlock(2, "# Risky\n![x](javascript:alert(1))"), nil)
	r.Annotate(node, "Say this out loud.")
	s, err := export.NewSurface(2, node.HTML(), 320, 180, 1)
	require.NoError(t, err)

	scene := Layout(s.Root, s.Width, s.Height)

	assert.Nil(t, scene.Backdrop)
	assert.Empty(t, scene.Slide.Image)
	assert.Equal(t, "Say this out loud.", scene.Notes)
	require.Len(t, scene.Slide.Text, 2)
	assert.Equal(t, warningColor, scene.Slide.Text[1].Color)
	assert.True(t, strings.HasPrefix(scene.Slide.Text[1].Tdata, "Image blocked: unsafe URL"))
}

func TestLayoutCoverTitle(t *testing.T) {
	node := render.New().Render(outline.ParseBlock(0, "# Deck\n## Acme\n## Jane"), nil)
	s, err := export.NewSurface(0, node.HTML(), 320, 180, 1)
	require.NoError(t, err)
	scene := Layout(s.Root, s.Width, s.Height)
	require.NotEmpty(t, scene.Slide.Text)
	assert.Equal(t, coverTitle.size, scene.Slide.Text[0].Sp)
	assert.Equal(t, "bold", scene.Slide.Text[0].Font)
}

func TestRasterCapture(t *testing.T) {
	fonts, err := LoadFonts("")
	require.NoError(t, err)
	log, _ := test.NewNullLogger()
	loader := &stubLoader{img: solid(40, 20, color.RGBA{0, 0, 255, 255})}
	raster := NewRaster(fonts, loader, log)

	asset := &render.Asset{URL: "https://img.test/deco.png"}
	s := surfaceFor(t, "# Title\n- a point\n![pic](https://img.test/pic.png)", asset, 2)

	img, err := raster.Capture(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 360, img.Bounds().Dy())
	assert.Equal(t, []string{"https://img.test/deco.png", "https://img.test/pic.png"}, loader.calls)

	r, g, b, _ := img.At(0, img.Bounds().Dy()-1).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, g, b}, "background is white")
}

func TestRasterPlaceholderOnLoadFailure(t *testing.T) {
	fonts, err := LoadFonts("")
	require.NoError(t, err)
	log, hook := test.NewNullLogger()
	raster := NewRaster(fonts, &stubLoader{err: errors.New("boom")}, log)

	s := surfaceFor(t, "# Title\n![pic](https://img.test/pic.png)", nil, 1)
	img, err := raster.Capture(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "image placeholder", hook.LastEntry().Message)
}

func TestRasterCanceled(t *testing.T) {
	fonts, err := LoadFonts("")
	require.NoError(t, err)
	raster := NewRaster(fonts, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = raster.Capture(ctx, surfaceFor(t, "# T", nil, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPDFAssembler(t *testing.T) {
	doc, err := NewPDF("deckgen").Begin("Quarterly", 320, 180)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.MIME())
	assert.Equal(t, "pdf", doc.Ext())

	for i := 0; i < 2; i++ {
		require.NoError(t, doc.AddPage(solid(64, 36, color.White)))
	}
	data, err := doc.Finish()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Equal(t, 2, bytes.Count(data, []byte("/Type /Page\n")))
}

func TestPDFEmpty(t *testing.T) {
	doc, err := NewPDF("").Begin("", 320, 180)
	require.NoError(t, err)
	_, err = doc.Finish()
	assert.Error(t, err)

	_, err = NewPDF("").Begin("", 0, 180)
	assert.Error(t, err)
}

func TestWriteSVG(t *testing.T) {
	asset := &render.Asset{URL: "https://img.test/a.png?x=1&y=2"}
	s := surfaceFor(t, "# Fish & Chips\n- crispy <b>\nA long paragraph of words that needs wrapping across the slide width.", asset, 1)

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, Layout(s.Root, s.Width, s.Height)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "Fish &amp; Chips")
	assert.Contains(t, out, "crispy &lt;b&gt;")
	assert.NotContains(t, out, "<b>")
	assert.Contains(t, out, `opacity="0.20"`)
	assert.Contains(t, out, "x=1&amp;y=2")
	assert.Contains(t, out, "</svg>")
}

func TestHTTPLoader(t *testing.T) {
	var pngData bytes.Buffer
	require.NoError(t, png.Encode(&pngData, solid(4, 4, color.Black)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			_, _ = w.Write(pngData.Bytes())
		case "/text":
			_, _ = w.Write([]byte("hello, not an image"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := NewHTTPLoader(true)
	img, err := l.Load(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = l.Load(context.Background(), srv.URL+"/text")
	assert.ErrorContains(t, err, "not an image")

	_, err = l.Load(context.Background(), srv.URL+"/missing")
	assert.ErrorContains(t, err, "status 404")

	_, err = l.Load(context.Background(), "file:///etc/passwd")
	assert.Error(t, err)

	l.MaxBytes = 10
	_, err = l.Load(context.Background(), srv.URL+"/ok.png")
	assert.ErrorContains(t, err, "exceeds")
}

func TestHTTPLoaderRefusesPrivateAddresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached a loopback server")
	}))
	defer srv.Close()

	_, err := NewHTTPLoader(false).Load(context.Background(), srv.URL+"/x.png")
	assert.ErrorIs(t, err, ErrPrivateAddress)

	for addr, public := range map[string]bool{
		"93.184.216.34:80":        true,
		"127.0.0.1:80":            false,
		"10.1.2.3:443":            false,
		"169.254.169.254:80":      false,
		"100.64.0.1:80":           false,
		"[::1]:80":                false,
		"[fe80::1]:80":            false,
		"[::ffff:192.168.1.1]:80": false,
	} {
		err := publicOnly("tcp", addr, nil)
		if public {
			assert.NoError(t, err, addr)
		} else {
			assert.ErrorIs(t, err, ErrPrivateAddress, addr)
		}
	}
}

// pngHeader returns a PNG holding only an IHDR chunk for a w×h RGB image.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 4, 17)
	copy(ihdr, "IHDR")
	ihdr = binary.BigEndian.AppendUint32(ihdr, w)
	ihdr = binary.BigEndian.AppendUint32(ihdr, h)
	ihdr = append(ihdr, 8, 2, 0, 0, 0)

	b := []byte("\x89PNG\r\n\x1a\n")
	b = binary.BigEndian.AppendUint32(b, 13)
	b = append(b, ihdr...)
	return binary.BigEndian.AppendUint32(b, crc32.ChecksumIEEE(ihdr))
}

func TestDecodeImageRejectsHugeDimensions(t *testing.T) {
	_, err := DecodeImage(pngHeader(MaxImageSide+1, 16))
	assert.ErrorIs(t, err, ErrImageTooLarge)
	_, err = DecodeImage(pngHeader(60000, 60000))
	assert.ErrorIs(t, err, ErrImageTooLarge)

	var small bytes.Buffer
	require.NoError(t, png.Encode(&small, solid(8, 8, color.White)))
	img, err := DecodeImage(small.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dy())
}

func TestRasterColor(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 255}, rasterColor("#112233", 0))
	assert.Equal(t, color.NRGBA{R: 185, G: 28, B: 28, A: 255}, rasterColor(warningColor, 0))
	assert.Equal(t, color.NRGBA{A: 127}, rasterColor("nonsense", 50))
	assert.Equal(t, "rgb(255,0,0)", svgcolor("hsv(0,100,100)"))
}

func TestPNGSet(t *testing.T) {
	doc, err := PNGSet{}.Begin("", 10, 10)
	require.NoError(t, err)
	require.NoError(t, doc.AddPage(solid(10, 10, color.White)))
	require.NoError(t, doc.AddPage(solid(10, 10, color.Black)))

	pages := doc.(*PNGPages).Pages()
	require.Len(t, pages, 2)
	img, err := DecodeImage(pages[1])
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())

	data, err := doc.Finish()
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "slide-002.png", zr.File[1].Name)
}
