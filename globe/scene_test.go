package globe

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"math"
	"testing"
	"time"

	"github.com/fogleman/fauxgl"
)

func testTextures() *TextureSet {
	return &TextureSet{
		Day:        solidTexture(color.NRGBA{40, 90, 200, 255}),
		Bump:       solidTexture(color.NRGBA{128, 128, 128, 255}),
		Specular:   solidTexture(color.NRGBA{255, 255, 255, 255}),
		Lights:     solidTexture(color.NRGBA{255, 200, 80, 255}),
		Clouds:     solidTexture(color.NRGBA{255, 255, 255, 255}),
		CloudAlpha: solidTexture(color.NRGBA{40, 40, 40, 255}),
	}
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Width, opts.Height = 64, 48
	opts.Supersample = 1
	opts.Segments = 24
	opts.Stars = 300
	opts.Seed = 1
	return opts
}

func brightness(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return float64(r+g+b) / (3 * 0xffff)
}

func TestNewSceneValidation(t *testing.T) {
	if _, err := NewScene(nil, testOptions()); err == nil {
		t.Error("expected error without textures")
	}
	if _, err := NewScene(&TextureSet{}, testOptions()); err == nil {
		t.Error("expected error without day map")
	}
	opts := testOptions()
	opts.Width = 0
	if _, err := NewScene(testTextures(), opts); err == nil {
		t.Error("expected error for zero width")
	}
	opts = testOptions()
	opts.Stars = -5
	if _, err := NewScene(testTextures(), opts); err == nil {
		t.Error("expected error for negative star count")
	}
}

func TestNewSceneOptionalLayers(t *testing.T) {
	s, err := NewScene(&TextureSet{Day: solidTexture(color.White)}, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if s.Lights.Visible || s.Clouds.Visible {
		t.Error("layers without textures should start hidden")
	}
	if !s.Earth.Visible || !s.Atmosphere.Visible {
		t.Error("earth and atmosphere should be visible")
	}
}

func TestSceneRender(t *testing.T) {
	s, err := NewScene(testTextures(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	im := s.Render()
	if im.Bounds() != image.Rect(0, 0, 64, 48) {
		t.Fatalf("bounds %v, want 64x48", im.Bounds())
	}
	// The planet fills the centre and the sun faces the camera side.
	if b := brightness(im.At(32, 24)); b < 0.05 {
		t.Errorf("centre brightness %f, want a lit planet", b)
	}
}

func TestSceneGlowOnlyBrightens(t *testing.T) {
	render := func(glow bool) image.Image {
		s, err := NewScene(testTextures(), testOptions())
		if err != nil {
			t.Fatal(err)
		}
		s.Atmosphere.Visible = glow
		return s.Render()
	}
	plain, lit := render(false), render(true)

	brighter := false
	b := plain.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			pr, pg, pb, _ := plain.At(x, y).RGBA()
			lr, lg, lb, _ := lit.At(x, y).RGBA()
			// parallel rasterization may reorder blends along shared edges
			const slack = 3 * 0x101
			if lr+slack < pr || lg+slack < pg || lb+slack < pb {
				t.Fatalf("glow darkened (%d, %d): %v -> %v", x, y, plain.At(x, y), lit.At(x, y))
			}
			if lb > pb+slack {
				brighter = true
			}
		}
	}
	if !brighter {
		t.Error("glow added no blue anywhere")
	}
}

func TestAddGlow(t *testing.T) {
	dst := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	glow := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	dst.SetNRGBA(0, 0, color.NRGBA{100, 100, 100, 255})
	dst.SetNRGBA(1, 0, color.NRGBA{100, 100, 100, 255})
	dst.SetNRGBA(2, 0, color.NRGBA{250, 10, 10, 255})
	glow.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 0})
	glow.SetNRGBA(1, 0, color.NRGBA{0, 136, 255, 51})
	glow.SetNRGBA(2, 0, color.NRGBA{255, 0, 0, 255})
	addGlow(dst, glow)

	tests := []struct {
		x    int
		want color.NRGBA
	}{
		{0, color.NRGBA{100, 100, 100, 255}},
		{1, color.NRGBA{100, 127, 151, 255}},
		{2, color.NRGBA{255, 10, 10, 255}},
	}
	for _, tt := range tests {
		if got := dst.NRGBAAt(tt.x, 0); got != tt.want {
			t.Errorf("pixel %d: got %v, want %v", tt.x, got, tt.want)
		}
	}
}

func TestSceneRenderSupersampled(t *testing.T) {
	opts := testOptions()
	opts.Supersample = 2
	s, err := NewScene(testTextures(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if b := s.Render().Bounds(); b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("supersampled output %v, want 64x48", b)
	}
}

func TestSceneRenderToWriter(t *testing.T) {
	s, err := NewScene(testTextures(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := s.RenderToWriter(&buf); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
}

func TestSceneStep(t *testing.T) {
	s, err := NewScene(testTextures(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		s.Step()
	}
	if s.Frame != 10 {
		t.Errorf("frame %d, want 10", s.Frame)
	}
	if !near(s.Earth.Rotation, 10*earthSpin) {
		t.Errorf("earth rotation %f", s.Earth.Rotation)
	}
	if !near(s.Clouds.Rotation, 10*cloudSpin) {
		t.Errorf("cloud rotation %f", s.Clouds.Rotation)
	}
	if s.Clouds.Rotation <= s.Earth.Rotation {
		t.Error("clouds should drift ahead of the surface")
	}
	if !near(s.Stars.Rotation, 10*starSpin) {
		t.Errorf("star rotation %f", s.Stars.Rotation)
	}
}

func TestSceneModelTilt(t *testing.T) {
	s, err := NewScene(testTextures(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	pole := s.Model(s.Earth).MulDirection(fauxglY())
	tilt := math.Acos(pole.Normalize().Y) * 180 / math.Pi
	if math.Abs(tilt-23.4) > 1e-6 {
		t.Errorf("axis tilt %f deg, want 23.4", tilt)
	}
}

func TestSceneSunDirection(t *testing.T) {
	s, err := NewScene(testTextures(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if d := s.SunDirection(); !near(d.Length(), 1) {
		t.Errorf("default sun not unit: %v", d)
	}
	when := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	s.SunTime = &when
	if d := s.SunDirection(); math.Abs(d.Length()-1) > 1e-9 {
		t.Errorf("timed sun not unit: %v", d)
	}
}

func TestSceneTurntable(t *testing.T) {
	s, err := NewScene(testTextures(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := s.Turntable(context.Background(), &buf, 3, 2, 5); err != nil {
		t.Fatal(err)
	}
	g, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("output is not a gif: %v", err)
	}
	if len(g.Image) != 3 {
		t.Errorf("got %d frames, want 3", len(g.Image))
	}
	if s.Frame != 6 {
		t.Errorf("frame counter %d, want 6", s.Frame)
	}
	if s.Camera.AutoRotate {
		t.Error("turntable left auto-rotate on")
	}
	if err := s.Turntable(context.Background(), &buf, 0, 1, 5); err == nil {
		t.Error("expected error for zero frames")
	}
}

func TestSceneTurntableCancelled(t *testing.T) {
	s, err := NewScene(testTextures(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	if err := s.Turntable(ctx, &buf, 5, 1, 5); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if s.Frame != 0 || buf.Len() != 0 {
		t.Errorf("rendered after cancel: frame %d, %d bytes", s.Frame, buf.Len())
	}
}

func TestSceneInfo(t *testing.T) {
	opts := testOptions()
	when := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)
	opts.SunTime = &when
	s, err := NewScene(testTextures(), opts)
	if err != nil {
		t.Fatal(err)
	}
	lines := s.InfoLines()
	if len(lines) < 7 {
		t.Fatalf("info lines %q missing sun details", lines)
	}
	if lines[0] != "Earth" {
		t.Errorf("first line %q", lines[0])
	}
}

func TestDrawInfo(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	out := DrawInfo(src, []string{"Earth", "Radius: 6,371 km"})
	if brightness(out.At(2, 2)) > 0.9 {
		t.Error("panel background not drawn")
	}
	if brightness(out.At(199, 99)) != 1 {
		t.Error("pixels outside the panel changed")
	}
	if brightness(src.At(2, 2)) != 1 {
		t.Error("source image was modified")
	}
}

func fauxglY() fauxgl.Vector { return fauxgl.V(0, 1, 0) }

func TestSceneLayerShells(t *testing.T) {
	s, err := NewScene(testTextures(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	prev := 0.0
	for _, l := range s.Layers() {
		if l.Scale <= prev {
			t.Errorf("layer %s scale %v not above %v", l.Name, l.Scale, prev)
		}
		prev = l.Scale
	}
	if s.Earth.Scale != 1 || s.Lights.Scale-1 > 0.01 {
		t.Errorf("earth %v, lights %v", s.Earth.Scale, s.Lights.Scale)
	}
}
