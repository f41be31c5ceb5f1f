package globe

import (
	"math"

	"github.com/fogleman/fauxgl"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultFovY            = 75
	DefaultNear            = 0.1
	DefaultFar             = 1000.0
	DefaultMinDistance     = 2
	DefaultMaxDistance     = 15
	DefaultDamping         = 0.05
	DefaultAutoRotateSpeed = 0.5

	polarEpsilon = 1e-6
)

// OrbitCamera orbits a target on a sphere, with damped rotation, clamped
// zoom and optional auto-rotation. Angles follow the Y-up convention: the
// polar angle is measured from +Y and azimuth 0 looks down -Z.
type OrbitCamera struct {
	Target      mgl64.Vec3
	Up          mgl64.Vec3
	FovY        float64
	Near, Far   float64
	MinDistance float64
	MaxDistance float64

	EnableDamping   bool
	DampingFactor   float64
	AutoRotate      bool
	AutoRotateSpeed float64

	radius, azimuth, polar float64
	deltaAzimuth           float64
	deltaPolar             float64

	saved [3]float64
}

// NewOrbitCamera returns a camera at position looking at the origin.
func NewOrbitCamera(position mgl64.Vec3) *OrbitCamera {
	c := &OrbitCamera{
		Up:              mgl64.Vec3{0, 1, 0},
		FovY:            DefaultFovY,
		Near:            DefaultNear,
		Far:             DefaultFar,
		MinDistance:     DefaultMinDistance,
		MaxDistance:     DefaultMaxDistance,
		EnableDamping:   true,
		DampingFactor:   DefaultDamping,
		AutoRotateSpeed: DefaultAutoRotateSpeed,
	}
	c.SetPosition(position)
	c.SaveState()
	return c
}

// SetPosition moves the camera, keeping it within the distance limits.
func (c *OrbitCamera) SetPosition(p mgl64.Vec3) {
	off := p.Sub(c.Target)
	// mgl64 is Z-up: swizzle so its inclination is our polar angle.
	r, incl, az := mgl64.CartesianToSpherical(mgl64.Vec3{off[2], off[0], off[1]})
	c.radius = mgl64.Clamp(r, c.MinDistance, c.MaxDistance)
	c.polar = mgl64.Clamp(incl, polarEpsilon, math.Pi-polarEpsilon)
	c.azimuth = az
	c.deltaAzimuth, c.deltaPolar = 0, 0
}

// SetOrbit places the camera by angles in degrees and distance.
func (c *OrbitCamera) SetOrbit(azimuthDeg, polarDeg, distance float64) {
	c.radius = mgl64.Clamp(distance, c.MinDistance, c.MaxDistance)
	c.polar = mgl64.Clamp(mgl64.DegToRad(polarDeg), polarEpsilon, math.Pi-polarEpsilon)
	c.azimuth = mgl64.DegToRad(azimuthDeg)
	c.deltaAzimuth, c.deltaPolar = 0, 0
}

// Rotate queues an orbit by the given angles in radians. It takes effect
// over the following Update calls.
func (c *OrbitCamera) Rotate(dAzimuth, dPolar float64) {
	c.deltaAzimuth += dAzimuth
	c.deltaPolar += dPolar
}

// Zoom scales the distance to the target; factors below 1 move closer.
func (c *OrbitCamera) Zoom(factor float64) {
	if factor <= 0 {
		return
	}
	c.radius = mgl64.Clamp(c.radius*factor, c.MinDistance, c.MaxDistance)
}

// Update advances the camera by one frame.
func (c *OrbitCamera) Update() {
	if c.AutoRotate {
		c.deltaAzimuth -= 2 * math.Pi / 60 / 60 * c.AutoRotateSpeed
	}
	if c.EnableDamping {
		c.azimuth += c.deltaAzimuth * c.DampingFactor
		c.polar += c.deltaPolar * c.DampingFactor
		c.deltaAzimuth *= 1 - c.DampingFactor
		c.deltaPolar *= 1 - c.DampingFactor
	} else {
		c.azimuth += c.deltaAzimuth
		c.polar += c.deltaPolar
		c.deltaAzimuth, c.deltaPolar = 0, 0
	}
	c.polar = mgl64.Clamp(c.polar, polarEpsilon, math.Pi-polarEpsilon)
	c.radius = mgl64.Clamp(c.radius, c.MinDistance, c.MaxDistance)
}

// SaveState records the current orbit as the Reset target.
func (c *OrbitCamera) SaveState() {
	c.saved = [3]float64{c.radius, c.azimuth, c.polar}
}

// Reset returns to the saved orbit and drops pending motion.
func (c *OrbitCamera) Reset() {
	c.radius, c.azimuth, c.polar = c.saved[0], c.saved[1], c.saved[2]
	c.deltaAzimuth, c.deltaPolar = 0, 0
}

// Distance returns the distance to the target.
func (c *OrbitCamera) Distance() float64 { return c.radius }

// Angles returns azimuth and polar angle in radians.
func (c *OrbitCamera) Angles() (azimuth, polar float64) { return c.azimuth, c.polar }

// Eye returns the camera position.
func (c *OrbitCamera) Eye() fauxgl.Vector {
	s := mgl64.SphericalToCartesian(c.radius, c.polar, c.azimuth)
	p := c.Target.Add(mgl64.Vec3{s[1], s[2], s[0]})
	return fauxgl.V(p[0], p[1], p[2])
}

// Matrix returns the view-projection matrix for the given aspect ratio.
func (c *OrbitCamera) Matrix(aspect float64) fauxgl.Matrix {
	target := fauxgl.V(c.Target[0], c.Target[1], c.Target[2])
	up := fauxgl.V(c.Up[0], c.Up[1], c.Up[2])
	return fauxgl.LookAt(c.Eye(), target, up).Perspective(c.FovY, aspect, c.Near, c.Far)
}
