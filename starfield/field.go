package starfield

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/fogleman/fauxgl"
)

const (
	DefaultCount   = 2000
	DefaultSize    = 0.2
	DefaultOpacity = 0.8
	spriteSize     = 32
)

// Field is a rigid cloud of stars drawn as textured point sprites.
type Field struct {
	Points   []StarPoint
	Sprite   *image.NRGBA
	Size     float64 // world units, attenuated with distance
	Opacity  float64
	Rotation float64 // yaw in radians
}

// NewField samples count stars and attaches the default sprite.
func NewField(rng *rand.Rand, count int, opts Options) (*Field, error) {
	points, err := GeneratePoints(rng, count, opts)
	if err != nil {
		return nil, err
	}
	return &Field{
		Points:  points,
		Sprite:  CircleSprite(spriteSize),
		Size:    DefaultSize,
		Opacity: DefaultOpacity,
	}, nil
}

// Rotate spins the whole field about the Y axis.
func (f *Field) Rotate(dy float64) {
	f.Rotation += dy
}

// Matrix returns the current model transform of the field.
func (f *Field) Matrix() fauxgl.Matrix {
	return fauxgl.Rotate(fauxgl.V(0, 1, 0), f.Rotation)
}

// Draw splats every visible star onto the colour buffer of ctx. It does
// not touch the depth buffer, so it must run before opaque geometry.
func (f *Field) Draw(ctx *fauxgl.Context, viewProjection fauxgl.Matrix) int {
	dst := ctx.ColorBuffer
	w, h := float64(ctx.Width), float64(ctx.Height)
	m := viewProjection.Mul(f.Matrix())

	drawn := 0
	for _, p := range f.Points {
		clip := m.MulPositionW(p.Position)
		if clip.W <= 0 {
			continue
		}
		ndc := clip.Vector()
		if ndc.X < -1 || ndc.X > 1 || ndc.Y < -1 || ndc.Y > 1 || ndc.Z < -1 || ndc.Z > 1 {
			continue
		}
		// Matches size attenuation of GL point sprites: size * (h/2) / w.
		px := math.Max(1, f.Size*(h/2)/clip.W)
		cx := (ndc.X + 1) / 2 * w
		cy := (1 - ndc.Y) / 2 * h
		f.splat(dst, cx, cy, px, p.Color)
		drawn++
	}
	return drawn
}

func (f *Field) splat(dst *image.NRGBA, cx, cy, size float64, c fauxgl.Color) {
	half := size / 2
	x0 := int(math.Floor(cx - half))
	y0 := int(math.Floor(cy - half))
	x1 := int(math.Ceil(cx + half))
	y1 := int(math.Ceil(cy + half))
	b := dst.Bounds()
	sb := f.Sprite.Bounds()
	for y := y0; y < y1; y++ {
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		for x := x0; x < x1; x++ {
			if x < b.Min.X || x >= b.Max.X {
				continue
			}
			u := (float64(x) + 0.5 - (cx - half)) / size
			v := (float64(y) + 0.5 - (cy - half)) / size
			if u < 0 || u >= 1 || v < 0 || v >= 1 {
				continue
			}
			s := f.Sprite.NRGBAAt(sb.Min.X+int(u*float64(sb.Dx())), sb.Min.Y+int(v*float64(sb.Dy())))
			a := float64(s.A) / 255 * f.Opacity * c.A
			if a <= 0 {
				continue
			}
			blend(dst, x, y, fauxgl.Color{
				R: c.R * float64(s.R) / 255,
				G: c.G * float64(s.G) / 255,
				B: c.B * float64(s.B) / 255,
			}, a)
		}
	}
}

func blend(dst *image.NRGBA, x, y int, src fauxgl.Color, a float64) {
	i := dst.PixOffset(x, y)
	p := dst.Pix[i : i+4 : i+4]
	mix := func(d uint8, s float64) uint8 {
		v := float64(d)/255*(1-a) + s*a
		return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
	}
	p[0] = mix(p[0], src.R)
	p[1] = mix(p[1], src.G)
	p[2] = mix(p[2], src.B)
	da := float64(p[3]) / 255
	p[3] = uint8(math.Round((a + da*(1-a)) * 255))
}

// CircleSprite returns a soft white disc used as the default star sprite.
func CircleSprite(size int) *image.NRGBA {
	if size < 2 {
		size = 2
	}
	im := imaging.New(size, size, color.NRGBA{255, 255, 255, 0})
	r := float64(size) / 2
	inner := r * 0.6
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			d := math.Hypot(float64(x)+0.5-r, float64(y)+0.5-r)
			if d <= inner {
				im.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
			}
		}
	}
	return imaging.Blur(im, float64(size)/10)
}

// LoadSprite loads a sprite image from disk.
func LoadSprite(path string) (*image.NRGBA, error) {
	im, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load sprite %s: %w", path, err)
	}
	return imaging.Clone(im), nil
}
