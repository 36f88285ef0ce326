package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func checker(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{A: 255}
			if (x/4+y/4)%2 == 0 {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestParseDataURL(t *testing.T) {
	raw := pngBytes(t, checker(8, 8))
	mt, data, err := ParseDataURL(EncodeDataURL("image/png", raw))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)
	assert.Equal(t, raw, data)
}

func TestParseDataURL_Rejects(t *testing.T) {
	cases := map[string]error{
		"/download/abc":                      ErrNotDataURL,
		"data:image/png,plain":               ErrNotDataURL,
		"data:image/png;base64":              ErrNotDataURL,
		"data:text/plain;base64,aGk=":        ErrNotImage,
		"data:application/json;base64,e30=": ErrNotImage,
	}
	for in, want := range cases {
		_, _, err := ParseDataURL(in)
		assert.ErrorIs(t, err, want, in)
	}

	_, _, err := ParseDataURL("data:image/png;base64,!!!")
	assert.Error(t, err)
}

func TestDecode_Formats(t *testing.T) {
	img := checker(16, 8)

	_, format, err := Decode(pngBytes(t, img))
	require.NoError(t, err)
	assert.Equal(t, "png", format)

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))
	_, format, err = Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)

	_, _, err = Decode([]byte("not an image"))
	assert.Error(t, err)
}

func TestRenderer_Size(t *testing.T) {
	r := NewRenderer(40, 10, false)

	w, h := r.Size(checker(80, 40))
	assert.Equal(t, 40, w)
	assert.Equal(t, 10, h)

	w, h = r.Size(checker(100, 400))
	assert.Equal(t, 10, h)
	assert.Equal(t, 5, w)

	w, h = r.Size(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestRenderer_RenderFitsBox(t *testing.T) {
	r := NewRenderer(20, 6, false)
	out, err := r.RenderDataURL(EncodeDataURL("image/png", pngBytes(t, checker(40, 40))))
	require.NoError(t, err)
	require.NotEmpty(t, out)

	lines := strings.Split(out, "\n")
	assert.LessOrEqual(t, len(lines), 6)
	for _, l := range lines {
		assert.LessOrEqual(t, len([]rune(l)), 20)
	}
}

func TestRenderer_ColoredEmitsEscapes(t *testing.T) {
	r := NewRenderer(10, 5, true)
	out := r.Render(checker(20, 20))
	assert.Contains(t, out, "\x1b[")
}
