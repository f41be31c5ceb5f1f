// Package starfield generates and draws the background star cloud.
package starfield

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/fogleman/fauxgl"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidArgument is returned for negative counts and bad radius ranges.
var ErrInvalidArgument = errors.New("invalid argument")

// StarPoint is one sampled star.
type StarPoint struct {
	Position fauxgl.Vector
	Color    fauxgl.Color
	Radius   float64
}

// Options controls the shell the stars are sampled in and their tint.
// Hue and Saturation are in [0, 1].
type Options struct {
	MinRadius  float64
	MaxRadius  float64
	Hue        float64
	Saturation float64
}

// DefaultOptions returns the blueish [25, 50] shell.
func DefaultOptions() Options {
	return Options{
		MinRadius:  25,
		MaxRadius:  50,
		Hue:        0.6,
		Saturation: 0.2,
	}
}

func (o Options) validate() error {
	if o.MinRadius < 0 || o.MaxRadius < o.MinRadius {
		return fmt.Errorf("radius range [%g, %g]: %w", o.MinRadius, o.MaxRadius, ErrInvalidArgument)
	}
	return nil
}

// GeneratePoints draws count independent stars uniformly over the shell.
//
// Each star consumes four draws from rng, in order: radius, azimuth, polar
// angle, lightness. A nil rng falls back to a time seeded source.
func GeneratePoints(rng *rand.Rand, count int, opts Options) ([]StarPoint, error) {
	if count < 0 {
		return nil, fmt.Errorf("star count %d: %w", count, ErrInvalidArgument)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	points := make([]StarPoint, 0, count)
	for i := 0; i < count; i++ {
		radius := opts.MinRadius + rng.Float64()*(opts.MaxRadius-opts.MinRadius)
		u := rng.Float64()
		v := rng.Float64()
		theta := 2 * math.Pi * u
		// acos keeps the density uniform over the surface; phi = pi*v
		// would bunch stars at the poles.
		phi := math.Acos(2*v - 1)

		sinPhi := math.Sin(phi)
		pos := fauxgl.V(
			radius*sinPhi*math.Cos(theta),
			radius*sinPhi*math.Sin(theta),
			radius*math.Cos(phi),
		)
		points = append(points, StarPoint{
			Position: pos,
			Color:    hslColor(opts.Hue, opts.Saturation, rng.Float64()),
			Radius:   radius,
		})
	}
	return points, nil
}

func hslColor(h, s, l float64) fauxgl.Color {
	c := colorful.Hsl(h*360, s, l).Clamped()
	return fauxgl.Color{R: c.R, G: c.G, B: c.B, A: 1}
}
