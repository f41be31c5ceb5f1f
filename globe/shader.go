package globe

import (
	"math"

	"github.com/fogleman/fauxgl"
)

const (
	DefaultSunIntensity = 2.0
	DefaultBumpScale    = 0.04
	DefaultShininess    = 30.0
	DefaultCloudOpacity = 0.8
)

var (
	// DefaultAmbient is 0x404040 at half intensity.
	DefaultAmbient  = fauxgl.HexColor("404040").MulScalar(0.5)
	DefaultSpecular = fauxgl.HexColor("111111")
)

// Lighting is shared by the lit layers.
type Lighting struct {
	SunDirection fauxgl.Vector // world space, towards the sun
	SunColor     fauxgl.Color
	SunIntensity float64
	Ambient      fauxgl.Color
}

// DefaultLighting returns a white sun of intensity 2 shining along dir.
func DefaultLighting(dir fauxgl.Vector) Lighting {
	return Lighting{
		SunDirection: dir.Normalize(),
		SunColor:     fauxgl.White,
		SunIntensity: DefaultSunIntensity,
		Ambient:      DefaultAmbient,
	}
}

func (l Lighting) diffuse(n fauxgl.Vector) fauxgl.Color {
	d := math.Max(n.Dot(l.SunDirection), 0)
	return l.Ambient.Add(l.SunColor.MulScalar(d * l.SunIntensity))
}

// transform carries what every layer's vertex stage needs.
type transform struct {
	Matrix         fauxgl.Matrix // view-projection
	Model          fauxgl.Matrix
	CameraPosition fauxgl.Vector
}

func (t transform) vertex(v fauxgl.Vertex) fauxgl.Vertex {
	world := t.Model.MulPosition(v.Position)
	v.Output = t.Matrix.MulPositionW(world)
	v.Position = world
	v.Normal = t.Model.MulDirection(v.Normal).Normalize()
	return v
}

// SurfaceShader is the Phong-lit day side with bump and specular maps.
type SurfaceShader struct {
	transform
	Lighting
	Textures  *TextureSet
	BumpScale float64
	Specular  fauxgl.Color
	Shininess float64
}

// Vertex implements fauxgl.Shader.
func (s *SurfaceShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex { return s.vertex(v) }

// Fragment implements fauxgl.Shader.
func (s *SurfaceShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	u, t := v.Texture.X, v.Texture.Y
	base := s.Textures.Day.BilinearSample(u, t)
	n := v.Normal.Normalize()
	if s.Textures.Bump != nil && s.BumpScale != 0 {
		n = s.bumpNormal(n, u, t)
	}

	color := base.Mul(s.diffuse(n))
	if d := n.Dot(s.SunDirection); d > 0 && s.Shininess > 0 {
		view := s.CameraPosition.Sub(v.Position).Normalize()
		reflected := n.MulScalar(2 * d).Sub(s.SunDirection)
		if r := reflected.Dot(view); r > 0 {
			strength := 1.0
			if s.Textures.Specular != nil {
				strength = s.Textures.Specular.Luminance(u, t)
			}
			k := math.Pow(r, s.Shininess) * strength * s.SunIntensity
			color = color.Add(s.Specular.Mul(s.SunColor).MulScalar(k))
		}
	}
	return ToneMap(color).Alpha(1)
}

// bumpNormal tilts n by the height gradient of the bump map. Gradients are
// taken per radian of longitude and latitude.
func (s *SurfaceShader) bumpNormal(n fauxgl.Vector, u, v float64) fauxgl.Vector {
	bump := s.Textures.Bump
	du := 1 / float64(bump.Width)
	dv := 1 / float64(bump.Height)
	dhdu := (bump.Luminance(u+du, v) - bump.Luminance(u-du, v)) / (2 * du * 2 * math.Pi)
	dhdv := (bump.Luminance(u, v+dv) - bump.Luminance(u, v-dv)) / (2 * dv * math.Pi)

	lon := 2*math.Pi*u - math.Pi
	lat := math.Pi * (v - 0.5)
	east := s.Model.MulDirection(fauxgl.V(math.Cos(lon), 0, -math.Sin(lon))).Normalize()
	north := s.Model.MulDirection(fauxgl.V(-math.Sin(lat)*math.Sin(lon), math.Cos(lat), -math.Sin(lat)*math.Cos(lon))).Normalize()

	return n.Sub(east.MulScalar(dhdu * s.BumpScale)).Sub(north.MulScalar(dhdv * s.BumpScale)).Normalize()
}

// LightsShader draws city lights on the night hemisphere.
type LightsShader struct {
	transform
	Lighting
	Lights *ImageTexture
}

// Vertex implements fauxgl.Shader.
func (s *LightsShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex { return s.vertex(v) }

// Fragment implements fauxgl.Shader.
func (s *LightsShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	c := s.Lights.BilinearSample(v.Texture.X, v.Texture.Y)
	night := 1 - smoothstep(-0.2, 0.1, v.Normal.Normalize().Dot(s.SunDirection))
	a := math.Max(c.R, math.Max(c.G, c.B)) * night
	return ToneMap(c).Alpha(clamp01(a))
}

// CloudShader is a Lambert-lit translucent cloud shell.
type CloudShader struct {
	transform
	Lighting
	Clouds      *ImageTexture
	Alpha       *ImageTexture // nil uses cloud luminance
	InvertAlpha bool
	Opacity     float64
}

// Vertex implements fauxgl.Shader.
func (s *CloudShader) Vertex(v fauxgl.Vertex) fauxgl.Vertex { return s.vertex(v) }

// Fragment implements fauxgl.Shader.
func (s *CloudShader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	u, t := v.Texture.X, v.Texture.Y
	c := s.Clouds.BilinearSample(u, t)
	var a float64
	if s.Alpha != nil {
		a = s.Alpha.Luminance(u, t)
	} else {
		a = s.Clouds.Luminance(u, t)
	}
	if s.InvertAlpha {
		a = 1 - a
	}
	lit := c.Mul(s.diffuse(v.Normal.Normalize()))
	return ToneMap(lit).Alpha(clamp01(a * s.Opacity))
}

// ToneMap applies a filmic ACES curve to the RGB channels.
func ToneMap(c fauxgl.Color) fauxgl.Color {
	aces := func(x float64) float64 {
		x = math.Max(x, 0)
		return clamp01((x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14))
	}
	return fauxgl.Color{R: aces(c.R), G: aces(c.G), B: aces(c.B), A: c.A}
}

func smoothstep(e0, e1, x float64) float64 {
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}
