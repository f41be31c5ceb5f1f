// Package sun computes the direction of sunlight in the planet frame.
//
// The planet frame is Y-up: +Y is the north pole, +Z points at latitude 0,
// longitude 0 and +X at longitude 90E.
package sun

import (
	"math"
	"time"

	"github.com/fogleman/fauxgl"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/meeus/v3/solar"
)

// DefaultDirection is the fixed key light used when no time is given.
var DefaultDirection = fauxgl.V(-2, 0.5, 1.5).Normalize()

// Direction returns the unit vector from the planet centre towards the sun
// at t, expressed in the planet frame.
func Direction(t time.Time) fauxgl.Vector {
	jd := julian.TimeToJD(t.UTC())

	ra, dec := solar.ApparentEquatorial(jd)
	x := math.Cos(dec.Rad()) * math.Cos(ra.Rad())
	y := math.Cos(dec.Rad()) * math.Sin(ra.Rad())
	z := math.Sin(dec.Rad())

	// Inertial to Earth fixed.
	gst := sidereal.Apparent(jd).Angle()
	c, s := gst.Cos(), gst.Sin()
	xe := x*c + y*s
	ye := -x*s + y*c

	return fromECEF(xe, ye, z).Normalize()
}

// SubsolarPoint returns the latitude and longitude, in degrees, where the
// sun is overhead at t.
func SubsolarPoint(t time.Time) (lat, lon float64) {
	d := Direction(t)
	lat = math.Asin(d.Y) * 180 / math.Pi
	lon = math.Atan2(d.X, d.Z) * 180 / math.Pi
	return lat, lon
}

func fromECEF(x, y, z float64) fauxgl.Vector {
	return fauxgl.V(y, z, x)
}
