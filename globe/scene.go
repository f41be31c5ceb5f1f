// Package globe assembles and renders the layered planet scene.
package globe

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/nfnt/resize"

	"github.com/netisu/planet-renderer/fresnel"
	"github.com/netisu/planet-renderer/starfield"
	"github.com/netisu/planet-renderer/sun"
)

const (
	DefaultDimensions  = 512
	DefaultSupersample = 2
	DefaultSegments    = 64
	DefaultAxialTilt   = -23.4 // degrees about Z

	earthSpin  = 0.002
	cloudSpin  = 0.0023
	starSpin   = -0.0002
	lightsLift = 1.0015
	cloudLift  = 1.003
	glowLift   = 1.01
)

// Options configures a new scene.
type Options struct {
	Width       int
	Height      int
	Supersample int
	Segments    int
	Stars       int
	Seed        int64
	StarOptions starfield.Options
	Glow        fresnel.Params
	SunTime     *time.Time // nil keeps the fixed key light
	ShowInfo    bool
}

// DefaultOptions returns a 512x512 scene with 2000 stars.
func DefaultOptions() Options {
	return Options{
		Width:       DefaultDimensions,
		Height:      DefaultDimensions,
		Supersample: DefaultSupersample,
		Segments:    DefaultSegments,
		Stars:       starfield.DefaultCount,
		Seed:        time.Now().UnixNano(),
		StarOptions: starfield.DefaultOptions(),
		Glow:        fresnel.DefaultParams(fresnel.DefaultRim, fresnel.DefaultFace),
	}
}

// Layer is one shell of the planet sharing the sphere mesh.
type Layer struct {
	Name     string
	Scale    float64
	Rotation float64 // yaw in radians
	Spin     float64 // yaw added per frame
	Visible  bool
}

// Scene is the planet, its layers, the starfield and the camera.
type Scene struct {
	Width, Height int
	Supersample   int
	Background    fauxgl.Color

	Camera   *OrbitCamera
	Stars    *starfield.Field
	Textures *TextureSet
	Glow     fresnel.Params
	Tilt     float64 // radians about Z
	SunTime  *time.Time
	ShowInfo bool
	Frame    int

	Earth, Lights, Clouds, Atmosphere *Layer

	sphere *fauxgl.Mesh
}

// NewScene builds a scene around textures. Only the day map is required.
func NewScene(textures *TextureSet, opts Options) (*Scene, error) {
	if textures == nil || textures.Day == nil {
		return nil, fmt.Errorf("scene needs at least a day texture")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", opts.Width, opts.Height)
	}
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	if opts.Segments <= 0 {
		opts.Segments = DefaultSegments
	}

	stars, err := starfield.NewField(rand.New(rand.NewSource(opts.Seed)), opts.Stars, opts.StarOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to build starfield: %w", err)
	}

	return &Scene{
		Width:       opts.Width,
		Height:      opts.Height,
		Supersample: opts.Supersample,
		Background:  fauxgl.Black,
		Camera:      NewOrbitCamera(mgl64.Vec3{0, 0, 5}),
		Stars:       stars,
		Textures:    textures,
		Glow:        opts.Glow,
		Tilt:        DefaultAxialTilt * math.Pi / 180,
		SunTime:     opts.SunTime,
		ShowInfo:    opts.ShowInfo,
		Earth:       &Layer{Name: "earth", Scale: 1, Spin: earthSpin, Visible: true},
		Lights:      &Layer{Name: "lights", Scale: lightsLift, Spin: earthSpin, Visible: textures.Lights != nil},
		Clouds:      &Layer{Name: "clouds", Scale: cloudLift, Spin: cloudSpin, Visible: textures.Clouds != nil},
		Atmosphere:  &Layer{Name: "atmosphere", Scale: glowLift, Spin: earthSpin, Visible: true},
		sphere:      NewUVSphere(opts.Segments, opts.Segments/2),
	}, nil
}

// Layers returns the planet shells in draw order.
func (s *Scene) Layers() []*Layer {
	return []*Layer{s.Earth, s.Lights, s.Clouds, s.Atmosphere}
}

// Step advances the animation by one frame.
func (s *Scene) Step() {
	for _, l := range s.Layers() {
		l.Rotation += l.Spin
	}
	s.Stars.Rotate(starSpin)
	s.Camera.Update()
	s.Frame++
}

// Model returns the object-to-world matrix of a layer.
func (s *Scene) Model(l *Layer) fauxgl.Matrix {
	tilt := fauxgl.Rotate(fauxgl.V(0, 0, 1), s.Tilt)
	spin := fauxgl.Rotate(fauxgl.V(0, 1, 0), l.Rotation)
	return tilt.Mul(spin).Mul(fauxgl.Scale(fauxgl.V(l.Scale, l.Scale, l.Scale)))
}

// SunDirection returns the world space direction towards the sun. With a
// sun time the direction is fixed to the surface, so the terminator falls
// where it does on the real planet.
func (s *Scene) SunDirection() fauxgl.Vector {
	if s.SunTime == nil {
		return sun.DefaultDirection
	}
	return s.Model(s.Earth).MulDirection(sun.Direction(*s.SunTime)).Normalize()
}

// Render draws the current frame.
func (s *Scene) Render() image.Image {
	w, h := s.Width*s.Supersample, s.Height*s.Supersample
	ctx := fauxgl.NewContext(w, h)
	ctx.ClearColorBufferWith(s.Background)
	ctx.ClearDepthBuffer()
	ctx.AlphaBlend = true
	ctx.Cull = fauxgl.CullBack

	vp := s.Camera.Matrix(float64(w) / float64(h))
	eye := s.Camera.Eye()
	light := DefaultLighting(s.SunDirection())
	xf := func(l *Layer) transform {
		return transform{Matrix: vp, Model: s.Model(l), CameraPosition: eye}
	}

	s.Stars.Draw(ctx, vp)

	ctx.ReadDepth, ctx.WriteDepth = true, true
	if s.Earth.Visible {
		ctx.Shader = &SurfaceShader{
			transform: xf(s.Earth),
			Lighting:  light,
			Textures:  s.Textures,
			BumpScale: DefaultBumpScale,
			Specular:  DefaultSpecular,
			Shininess: DefaultShininess,
		}
		ctx.DrawMesh(s.sphere)
	}

	// Translucent shells test against the surface but never occlude.
	ctx.WriteDepth = false
	if s.Lights.Visible && s.Textures.Lights != nil {
		ctx.Shader = &LightsShader{transform: xf(s.Lights), Lighting: light, Lights: s.Textures.Lights}
		ctx.DrawMesh(s.sphere)
	}
	if s.Clouds.Visible && s.Textures.Clouds != nil {
		ctx.Shader = &CloudShader{
			transform: xf(s.Clouds),
			Lighting:  light,
			Clouds:    s.Textures.Clouds,
			Alpha:     s.Textures.CloudAlpha,
			Opacity:   DefaultCloudOpacity,
		}
		ctx.DrawMesh(s.sphere)
	}
	if s.Atmosphere.Visible {
		glow := fauxgl.NewContext(w, h)
		glow.ClearColorBufferWith(fauxgl.Transparent)
		glow.Cull = fauxgl.CullBack
		glow.AlphaBlend = false
		glow.Shader = fresnel.NewShader(vp, s.Model(s.Atmosphere), eye, s.Glow)
		glow.DrawMesh(s.sphere)
		addGlow(ctx.ColorBuffer, glow.ColorBuffer)
	}

	var im image.Image = ctx.Image()
	if s.Supersample > 1 {
		im = resize.Resize(uint(s.Width), uint(s.Height), im, resize.Bilinear)
	}
	if s.ShowInfo {
		im = DrawInfo(im, s.InfoLines())
	}
	return im
}

// addGlow adds the glow layer onto dst weighted by its alpha, so the
// atmosphere only ever brightens what is behind it.
func addGlow(dst, glow *image.NRGBA) {
	add := func(d, g, a uint8) uint8 {
		v := int(d) + int(g)*int(a)/255
		if v > 255 {
			return 255
		}
		return uint8(v)
	}
	for i := 0; i+3 < len(dst.Pix) && i+3 < len(glow.Pix); i += 4 {
		a := glow.Pix[i+3]
		if a == 0 {
			continue
		}
		dst.Pix[i] = add(dst.Pix[i], glow.Pix[i], a)
		dst.Pix[i+1] = add(dst.Pix[i+1], glow.Pix[i+1], a)
		dst.Pix[i+2] = add(dst.Pix[i+2], glow.Pix[i+2], a)
	}
}

// RenderToWriter renders the current frame as PNG.
func (s *Scene) RenderToWriter(w io.Writer) error {
	if err := png.Encode(w, s.Render()); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
