package globe

import (
	"math"

	"github.com/fogleman/fauxgl"
)

// NewUVSphere returns a unit sphere with equirectangular texture
// coordinates. Seam vertices are duplicated so u runs cleanly from 0 to 1.
//
// The frame matches package sun: +Y north, +Z at longitude 0.
func NewUVSphere(widthSegments, heightSegments int) *fauxgl.Mesh {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	vertex := func(i, j int) fauxgl.Vertex {
		u := float64(i) / float64(widthSegments)
		v := float64(j) / float64(heightSegments)
		lon := 2*math.Pi*u - math.Pi
		lat := math.Pi * (v - 0.5)
		p := fauxgl.V(math.Cos(lat)*math.Sin(lon), math.Sin(lat), math.Cos(lat)*math.Cos(lon))
		return fauxgl.Vertex{
			Position: p,
			Normal:   p,
			Texture:  fauxgl.V(u, v, 0),
			Color:    fauxgl.White,
		}
	}

	var triangles []*fauxgl.Triangle
	for j := 0; j < heightSegments; j++ {
		for i := 0; i < widthSegments; i++ {
			v00 := vertex(i, j)
			v10 := vertex(i+1, j)
			v01 := vertex(i, j+1)
			v11 := vertex(i+1, j+1)
			// Skip the degenerate halves of the polar quads.
			if j != 0 {
				triangles = append(triangles, fauxgl.NewTriangle(v00, v10, v11))
			}
			if j != heightSegments-1 {
				triangles = append(triangles, fauxgl.NewTriangle(v00, v11, v01))
			}
		}
	}
	return fauxgl.NewTriangleMesh(triangles)
}
