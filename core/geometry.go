package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SphericalToCartesian converts a point given as radius, azimuth angle
// theta (radians) and cosine of the polar angle into Cartesian
// coordinates. Working with cos(phi) directly avoids an acos/cos round
// trip when sampling uniformly over a sphere.
func SphericalToCartesian(r, theta, cosPhi float64) mgl64.Vec3 {
	sinPhi := math.Sqrt(1 - cosPhi*cosPhi)
	return mgl64.Vec3{
		r * sinPhi * math.Cos(theta),
		r * sinPhi * math.Sin(theta),
		r * cosPhi,
	}
}

// CircularOrbitSpeed returns the speed of a circular orbit of radius r
// (metres) around a body with gravitational parameter mu (m³/s²).
func CircularOrbitSpeed(mu, r float64) float64 {
	return math.Sqrt(mu / r)
}

// Perpendicular returns a unit vector orthogonal to v, built by crossing
// v with a fixed reference axis. The Z axis is used unless v is (close
// to) parallel to it, in which case X is used instead.
func Perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	ref := mgl64.Vec3{0, 0, 1}
	if math.Abs(v.X()) < 1e-6 && math.Abs(v.Y()) < 1e-6 {
		ref = mgl64.Vec3{1, 0, 0}
	}
	return v.Cross(ref).Normalize()
}

// DistanceSq returns the squared straight-line distance between two
// points. Proximity checks compare squared distances to avoid a sqrt
// per candidate pair.
func DistanceSq(a, b mgl64.Vec3) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

// finite reports whether every component of v is a finite number.
func finite(v mgl64.Vec3) bool {
	for i := 0; i < 3; i++ {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			return false
		}
	}
	return true
}
