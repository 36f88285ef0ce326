package preview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/qeesung/image2ascii/convert"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decode decodes png, jpeg, gif, webp or bmp bytes and returns the format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// Renderer draws images as ASCII art inside a fixed cell box.
type Renderer struct {
	MaxWidth  int
	MaxHeight int
	Colored   bool

	conv *convert.ImageConverter
}

// NewRenderer creates a renderer bounded by width x height cells.
func NewRenderer(width, height int, colored bool) *Renderer {
	return &Renderer{
		MaxWidth:  width,
		MaxHeight: height,
		Colored:   colored,
		conv:      convert.NewImageConverter(),
	}
}

// Size returns the cell box img is scaled to. Terminal cells are about
// twice as tall as wide, so rows are halved to keep the aspect ratio.
func (r *Renderer) Size(img image.Image) (int, int) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || r.MaxWidth <= 0 || r.MaxHeight <= 0 {
		return 0, 0
	}
	cw := r.MaxWidth
	ch := cw * h / w / 2
	if ch > r.MaxHeight {
		ch = r.MaxHeight
		cw = ch * 2 * w / h
	}
	return max(cw, 1), max(ch, 1)
}

// Render draws img. Lines are separated by newlines with no trailing one.
func (r *Renderer) Render(img image.Image) string {
	w, h := r.Size(img)
	if w == 0 {
		return ""
	}
	if r.conv == nil {
		r.conv = convert.NewImageConverter()
	}
	opts := convert.DefaultOptions
	opts.FitScreen = false
	opts.StretchedScreen = false
	opts.FixedWidth = w
	opts.FixedHeight = h
	opts.Colored = r.Colored
	return strings.TrimRight(r.conv.Image2ASCIIString(img, &opts), "\n")
}

// RenderBytes decodes and draws encoded image bytes.
func (r *Renderer) RenderBytes(data []byte) (string, error) {
	img, _, err := Decode(data)
	if err != nil {
		return "", err
	}
	return r.Render(img), nil
}

// RenderDataURL decodes and draws an inline image.
func (r *Renderer) RenderDataURL(s string) (string, error) {
	_, data, err := ParseDataURL(s)
	if err != nil {
		return "", err
	}
	return r.RenderBytes(data)
}
