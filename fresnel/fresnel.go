// Package fresnel implements the rim glow used for the atmosphere layer.
package fresnel

import (
	"math"

	"github.com/fogleman/fauxgl"
)

const (
	DefaultBias  = 0.1
	DefaultScale = 1.0
	DefaultPower = 4.0
)

var (
	// DefaultRim is the blue atmosphere tint seen edge-on.
	DefaultRim = fauxgl.HexColor("0088ff")
	// DefaultFace is the colour seen face-on, black meaning no glow.
	DefaultFace = fauxgl.Black
)

// Params holds the rim glow configuration. It is a value type and is
// never modified while rendering.
type Params struct {
	RimColor  fauxgl.Color
	FaceColor fauxgl.Color
	Bias      float64
	Scale     float64
	Power     float64
}

// DefaultParams returns params with the default bias, scale and power.
func DefaultParams(rim, face fauxgl.Color) Params {
	return Params{
		RimColor:  rim,
		FaceColor: face,
		Bias:      DefaultBias,
		Scale:     DefaultScale,
		Power:     DefaultPower,
	}
}

// RimFactor returns the glow factor in [0, 1].
//
// worldNormal must already be unit length. viewDirection points from the
// camera towards the surface and is normalized here. With Power == 0 the
// factor is the constant Bias+Scale (clamped).
func RimFactor(worldNormal, viewDirection fauxgl.Vector, p Params) float64 {
	i := viewDirection.Normalize()
	// rounding can push 1+dot just below zero when viewing face-on
	base := math.Max(0, 1+i.Dot(worldNormal))
	raw := p.Bias + p.Scale*math.Pow(base, p.Power)
	return clamp(raw, 0, 1)
}

// RimColor mixes FaceColor towards RimColor by factor. The alpha of the
// result is the factor itself.
func RimColor(factor float64, p Params) fauxgl.Color {
	c := p.FaceColor.MulScalar(1 - factor).Add(p.RimColor.MulScalar(factor))
	c.A = factor
	return c
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
