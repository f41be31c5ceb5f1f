package fresnel

import (
	"github.com/fogleman/fauxgl"
)

// Shader renders a mesh as an additive-looking glow shell.
//
// The factor is evaluated per vertex and interpolated, the same split a GPU
// implementation uses. The factor travels to the fragment stage in the
// vertex colour alpha.
type Shader struct {
	Matrix         fauxgl.Matrix // view-projection
	Model          fauxgl.Matrix // object to world
	CameraPosition fauxgl.Vector
	Params         Params
}

// NewShader returns a glow shader for the given transforms.
func NewShader(viewProjection, model fauxgl.Matrix, camera fauxgl.Vector, p Params) *Shader {
	return &Shader{
		Matrix:         viewProjection,
		Model:          model,
		CameraPosition: camera,
		Params:         p,
	}
}

// Vertex implements fauxgl.Shader.
func (s *Shader) Vertex(v fauxgl.Vertex) fauxgl.Vertex {
	world := s.Model.MulPosition(v.Position)
	normal := s.Model.MulDirection(v.Normal).Normalize()
	factor := RimFactor(normal, world.Sub(s.CameraPosition), s.Params)

	v.Output = s.Matrix.MulPositionW(world)
	v.Position = world
	v.Normal = normal
	v.Color = fauxgl.Color{A: factor}
	return v
}

// Fragment implements fauxgl.Shader.
func (s *Shader) Fragment(v fauxgl.Vertex) fauxgl.Color {
	return RimColor(clamp(v.Color.A, 0, 1), s.Params)
}
