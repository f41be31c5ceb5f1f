package globe

import (
	"fmt"
	"image"
	_ "image/jpeg" // earth maps ship as JPEG
	_ "image/png"
	"io"
	"math"
	"os"

	"github.com/fogleman/fauxgl"
)

// ImageTexture samples an equirectangular map. u wraps around the globe,
// v is clamped at the poles.
type ImageTexture struct {
	Width  int
	Height int
	Image  image.Image
}

// NewImageTexture wraps an image as a texture.
func NewImageTexture(im image.Image) *ImageTexture {
	size := im.Bounds().Size()
	return &ImageTexture{size.X, size.Y, im}
}

// DecodeTexture reads a PNG or JPEG texture.
func DecodeTexture(r io.Reader) (*ImageTexture, error) {
	im, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode texture: %w", err)
	}
	return NewImageTexture(im), nil
}

// LoadTexture reads a texture from disk.
func LoadTexture(path string) (*ImageTexture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()
	return DecodeTexture(f)
}

func (t *ImageTexture) at(x, y int) fauxgl.Color {
	x %= t.Width
	if x < 0 {
		x += t.Width
	}
	if y < 0 {
		y = 0
	} else if y >= t.Height {
		y = t.Height - 1
	}
	b := t.Image.Bounds()
	return fauxgl.MakeColor(t.Image.At(b.Min.X+x, b.Min.Y+y))
}

// Sample returns the nearest texel.
func (t *ImageTexture) Sample(u, v float64) fauxgl.Color {
	u -= math.Floor(u)
	v = 1 - clamp01(v)
	return t.at(int(u*float64(t.Width)), int(v*float64(t.Height)))
}

// BilinearSample returns the bilinearly filtered texel.
func (t *ImageTexture) BilinearSample(u, v float64) fauxgl.Color {
	u -= math.Floor(u)
	v = 1 - clamp01(v)
	x := u*float64(t.Width) - 0.5
	y := v*float64(t.Height) - 0.5
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x -= float64(x0)
	y -= float64(y0)
	c00 := t.at(x0, y0)
	c01 := t.at(x0, y0+1)
	c10 := t.at(x0+1, y0)
	c11 := t.at(x0+1, y0+1)
	c := fauxgl.Color{}
	c = c.Add(c00.MulScalar((1 - x) * (1 - y)))
	c = c.Add(c10.MulScalar(x * (1 - y)))
	c = c.Add(c01.MulScalar((1 - x) * y))
	c = c.Add(c11.MulScalar(x * y))
	return c
}

// Luminance samples the texture as a greyscale map in [0, 1].
func (t *ImageTexture) Luminance(u, v float64) float64 {
	c := t.BilinearSample(u, v)
	return 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
