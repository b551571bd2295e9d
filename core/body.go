package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Earth constants in SI units.
const (
	// EarthMu is Earth's gravitational parameter (m³/s²).
	EarthMu = 3.986004418e14
	// EarthRadius is the mean Earth radius (metres).
	EarthRadius = 6.371e6
)

// CentralBody is the massive object at the origin whose gravity governs
// every satellite. It is immutable for the lifetime of a simulation.
type CentralBody struct {
	// Mu is the gravitational parameter, G times mass (m³/s²).
	Mu float64
	// Radius is the surface radius (metres). A satellite whose distance
	// from the origin falls to Radius or below has hit the ground.
	Radius float64
}

// Earth returns a central body with Earth's parameters.
func Earth() CentralBody {
	return CentralBody{Mu: EarthMu, Radius: EarthRadius}
}

// AccelerationAt returns the gravitational acceleration at pos: inverse
// square in magnitude (mu/|r|²), directed toward the origin.
//
// pos must not coincide with the origin. A satellite at the body centre
// is an upstream modelling bug (the propagator clamps satellites at the
// surface before they can get there), so this panics rather than
// returning an error.
func (b CentralBody) AccelerationAt(pos mgl64.Vec3) mgl64.Vec3 {
	r2 := pos.Dot(pos)
	if r2 == 0 {
		panic("core: gravitational acceleration requested at the central body origin")
	}
	r := math.Sqrt(r2)
	// -mu/r² along pos/r, folded into a single scale factor.
	return pos.Mul(-b.Mu / (r2 * r))
}

// CircularSpeedAt returns the circular-orbit speed at distance r from
// the body centre.
func (b CentralBody) CircularSpeedAt(r float64) float64 {
	return CircularOrbitSpeed(b.Mu, r)
}
