package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
	"syscall"
	"time"

	"github.com/disintegration/gift"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"

	"github.com/joeblew999/deckgen/pkg/render"
)

// ImageLoader fetches and decodes a remote image.
type ImageLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

const (
	defaultMaxImageBytes = 20 << 20
	// MaxImageSide bounds the decoded width and height of a remote image.
	MaxImageSide = 8192
)

var (
	errNoLoader = errors.New("no image loader configured")

	ErrImageTooLarge  = errors.New("image dimensions too large")
	ErrPrivateAddress = errors.New("address is not public")
)

// sharedAddrs is the carrier-grade NAT range, which netip does not report
// as private.
var sharedAddrs = netip.MustParsePrefix("100.64.0.0/10")

// HTTPLoader downloads images over http(s).
type HTTPLoader struct {
	Client   *http.Client
	MaxBytes int64
}

// NewHTTPLoader returns a loader with a bounded client. Unless allowPrivate
// is set the client refuses to dial loopback, link-local and private
// addresses, redirects included.
func NewHTTPLoader(allowPrivate bool) *HTTPLoader {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !allowPrivate {
		dialer.Control = publicOnly
		transport.Proxy = nil
	}
	transport.DialContext = dialer.DialContext
	return &HTTPLoader{
		Client:   &http.Client{Timeout: 30 * time.Second, Transport: transport},
		MaxBytes: defaultMaxImageBytes,
	}
}

// publicOnly is a net.Dialer Control rejecting non-public addresses.
func publicOnly(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return err
	}
	ip = ip.Unmap()
	if !ip.IsGlobalUnicast() || ip.IsPrivate() || sharedAddrs.Contains(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, ip)
	}
	return nil
}

func (l *HTTPLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if !render.IsSafeURL(url) {
		return nil, fmt.Errorf("refusing to load %q", url)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	limit := l.MaxBytes
	if limit <= 0 {
		limit = defaultMaxImageBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("image exceeds %d bytes", limit)
	}
	return DecodeImage(data)
}

// DecodeImage sniffs data and decodes it when it is a supported image no
// larger than MaxImageSide in either dimension.
func DecodeImage(data []byte) (image.Image, error) {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("not an image: %s", mt.String())
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mt.String(), err)
	}
	if cfg.Width > MaxImageSide || cfg.Height > MaxImageSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", mt.String(), err)
	}
	return img, nil
}

// fit scales img down to fit w×h and applies opacity.
func fit(img image.Image, w, h int, opacity float64) image.Image {
	filters := []gift.Filter{gift.ResizeToFit(w, h, gift.LinearResampling)}
	if opacity < 1 {
		a := float32(opacity)
		filters = append(filters, gift.ColorFunc(func(r0, g0, b0, a0 float32) (r, g, b, alpha float32) {
			return r0, g0, b0, a0 * a
		}))
	}
	g := gift.New(filters...)
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}
