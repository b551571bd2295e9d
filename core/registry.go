package core

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"
)

// Distribution selects how a registry's initial orbits are generated.
type Distribution int

const (
	// DistributionShell scatters satellites over a thin spherical shell
	// at LEO altitude on near-circular orbits with randomised planes.
	// This is the default and is what the browser visualizer shows.
	DistributionShell Distribution = iota
	// DistributionRing spaces satellites evenly in true anomaly on a
	// single circular equatorial orbit. Analytically predictable, used
	// for orbit-closure verification.
	DistributionRing
)

// Shell distribution parameters. The shell is deliberately thin so a
// dense constellation produces occasional proximity events without
// immediate collisions.
const (
	shellRadiusMin    = 7.6e6   // metres from body centre
	shellRadiusMax    = 7.601e6 // metres from body centre
	shellMaxEccentric = 0.001
	ringOrbitRadius   = 7.0e6 // metres from body centre
)

// Satellite is a single propagated body. The ID equals the construction
// index and never changes; external consumers index their render arrays
// by it.
type Satellite struct {
	ID       int
	Position mgl64.Vec3 // metres, origin at the central body centre
	Velocity mgl64.Vec3 // metres/second
	// Inert marks a satellite that hit the surface (or blew up
	// numerically). Its state is frozen and no longer integrated.
	Inert bool
}

// Registry owns the fixed-size satellite collection. Satellites are
// created once at construction and never added or removed.
type Registry struct {
	body CentralBody
	sats []Satellite
}

// NewRegistry deterministically generates count satellites around body
// using the given distribution. Equal seeds produce bit-identical
// registries; the global RNG is never touched.
func NewRegistry(body CentralBody, count int, dist Distribution, seed int64) *Registry {
	r := &Registry{
		body: body,
		sats: make([]Satellite, count),
	}
	for i := range r.sats {
		r.sats[i].ID = i
	}

	switch dist {
	case DistributionRing:
		r.seedRing()
	default:
		r.seedShell(rand.New(rand.NewSource(seed)))
	}
	return r
}

// Count returns the number of satellites, fixed for the registry's
// lifetime.
func (r *Registry) Count() int { return len(r.sats) }

// At returns a copy of the satellite at index i.
func (r *Registry) At(i int) Satellite { return r.sats[i] }

// SetState overwrites position and velocity of satellite i. Used by the
// propagator and by scenario setup; identity and inert flag are
// untouched.
func (r *Registry) SetState(i int, pos, vel mgl64.Vec3) {
	r.sats[i].Position = pos
	r.sats[i].Velocity = vel
}

// Body returns the central body the registry was built around.
func (r *Registry) Body() CentralBody { return r.body }

// seedRing places satellites on one circular equatorial orbit, evenly
// spread in true anomaly, with exact circular-orbit speed. Under a
// stable integrator each satellite retraces the ring indefinitely.
func (r *Registry) seedRing() {
	n := len(r.sats)
	speed := r.body.CircularSpeedAt(ringOrbitRadius)
	for i := range r.sats {
		anomaly := 2 * math.Pi * float64(i) / float64(n)
		sin, cos := math.Sincos(anomaly)
		r.sats[i].Position = mgl64.Vec3{ringOrbitRadius * cos, ringOrbitRadius * sin, 0}
		// Prograde tangent: perpendicular to the radius, in-plane.
		r.sats[i].Velocity = mgl64.Vec3{-speed * sin, speed * cos, 0}
	}
}

// seedShell scatters satellites uniformly over a thin spherical shell.
// Velocities follow the vis-viva construction for an ellipse with
// eccentricity at most shellMaxEccentric: a radial component
// √(mu/p)·e·sin(nu) plus a tangential component √(mu/p)·(1+e·cos(nu)),
// in a randomly oriented orbital plane.
func (r *Registry) seedShell(rng *rand.Rand) {
	for i := range r.sats {
		radius := shellRadiusMin + rng.Float64()*(shellRadiusMax-shellRadiusMin)
		theta := rng.Float64() * 2 * math.Pi
		// Uniform cos(polar angle) gives a uniform distribution over the
		// sphere rather than clustering at the poles.
		u := -1 + 2*rng.Float64()
		pos := SphericalToCartesian(radius, theta, u)

		ecc := rng.Float64() * shellMaxEccentric
		nu := rng.Float64() * 2 * math.Pi
		p := radius * (1 + ecc*math.Cos(nu))
		sqrtMuP := math.Sqrt(r.body.Mu / p)
		radialSpeed := sqrtMuP * ecc * math.Sin(nu)
		tangentSpeed := sqrtMuP * (1 + ecc*math.Cos(nu))

		radial := pos.Mul(1 / radius)
		normal := randomPlaneNormal(rng, radial)
		tangent := normal.Cross(radial)

		r.sats[i].Position = pos
		r.sats[i].Velocity = radial.Mul(radialSpeed).Add(tangent.Mul(tangentSpeed))
	}
}

// randomPlaneNormal returns a unit vector orthogonal to radial with a
// rng-chosen orientation, i.e. the normal of a random orbital plane
// containing the satellite.
func randomPlaneNormal(rng *rand.Rand, radial mgl64.Vec3) mgl64.Vec3 {
	for {
		candidate := mgl64.Vec3{
			-1 + 2*rng.Float64(),
			-1 + 2*rng.Float64(),
			-1 + 2*rng.Float64(),
		}
		cross := radial.Cross(candidate)
		if cross.Len() > 1e-6 {
			return cross.Normalize()
		}
	}
}
