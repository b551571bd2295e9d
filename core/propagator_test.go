package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// orbitalPeriod returns the Keplerian period for a circular orbit of
// radius r.
func orbitalPeriod(body CentralBody, r float64) float64 {
	return 2 * math.Pi * math.Sqrt(r*r*r/body.Mu)
}

// Satellites on the ring distribution must come back to (nearly) where
// they started after one full period. This is the property that rules
// out explicit Euler, which spirals orbits outward.
func TestAdvanceAll_CircularOrbitCloses(t *testing.T) {
	body := Earth()
	reg := NewRegistry(body, 4, DistributionRing, 0)
	prop := &Propagator{Body: body}

	start := make([]mgl64.Vec3, reg.Count())
	startVel := make([]mgl64.Vec3, reg.Count())
	for i := range start {
		start[i] = reg.At(i).Position
		startVel[i] = reg.At(i).Velocity
	}

	const dt = 1.0
	steps := int(math.Round(orbitalPeriod(body, ringOrbitRadius) / dt))
	for s := 0; s < steps; s++ {
		if grounded := prop.AdvanceAll(reg, dt); grounded != 0 {
			t.Fatalf("step %d grounded %d satellites", s, grounded)
		}
	}

	// First-order symplectic integration plus rounding the period to a
	// whole number of steps leaves a small phase error; 2% of the
	// radius is far tighter than explicit Euler's secular drift.
	tolerance := 0.02 * ringOrbitRadius
	for i := range start {
		if err := reg.At(i).Position.Sub(start[i]).Len(); err > tolerance {
			t.Errorf("satellite %d missed closure by %v m (tolerance %v)", i, err, tolerance)
		}
		speed := reg.At(i).Velocity.Len()
		if want := startVel[i].Len(); math.Abs(speed-want) > 0.01*want {
			t.Errorf("satellite %d speed drifted to %v, started %v", i, speed, want)
		}
	}
}

// Orbital radius must stay bounded over many periods: the symplectic
// scheme oscillates around the true orbit instead of pumping energy.
func TestAdvanceAll_RadiusStableOverManyOrbits(t *testing.T) {
	body := Earth()
	reg := NewRegistry(body, 1, DistributionRing, 0)
	prop := &Propagator{Body: body}

	const dt = 5.0
	steps := int(10 * orbitalPeriod(body, ringOrbitRadius) / dt)
	for s := 0; s < steps; s++ {
		prop.AdvanceAll(reg, dt)
		r := reg.At(0).Position.Len()
		if math.Abs(r-ringOrbitRadius) > 0.01*ringOrbitRadius {
			t.Fatalf("step %d: radius %v drifted more than 1%% from %v", s, r, ringOrbitRadius)
		}
	}
}

func TestAdvanceAll_SemiImplicitUpdateOrder(t *testing.T) {
	// One hand-checkable step: the position update must use the *new*
	// velocity (semi-implicit), not the old one.
	body := Earth()
	reg := NewRegistry(body, 1, DistributionRing, 0)
	pos := mgl64.Vec3{7.0e6, 0, 0}
	vel := mgl64.Vec3{0, 7.5e3, 0}
	reg.SetState(0, pos, vel)

	const dt = 10.0
	acc := body.AccelerationAt(pos)
	wantVel := vel.Add(acc.Mul(dt))
	wantPos := pos.Add(wantVel.Mul(dt))

	(&Propagator{Body: body}).AdvanceAll(reg, dt)

	if got := reg.At(0).Velocity; got != wantVel {
		t.Fatalf("velocity = %v, want %v", got, wantVel)
	}
	if got := reg.At(0).Position; got != wantPos {
		t.Fatalf("position = %v, want %v (semi-implicit order)", got, wantPos)
	}
}

func TestAdvanceAll_GroundsSatelliteAtSurface(t *testing.T) {
	body := Earth()
	reg := NewRegistry(body, 2, DistributionRing, 0)
	prop := &Propagator{Body: body}

	// Satellite 0 dropped just above the surface with no velocity: it
	// must be clamped to the surface, not fall through toward r = 0.
	reg.SetState(0, mgl64.Vec3{body.Radius + 10, 0, 0}, mgl64.Vec3{})

	grounded := prop.AdvanceAll(reg, 10.0)
	if grounded != 1 {
		t.Fatalf("AdvanceAll grounded %d satellites, want 1", grounded)
	}

	sat := reg.At(0)
	if !sat.Inert {
		t.Fatal("collided satellite not marked inert")
	}
	if r := sat.Position.Len(); math.Abs(r-body.Radius) > 1e-6*body.Radius {
		t.Fatalf("grounded satellite at radius %v, want surface %v", r, body.Radius)
	}
	if sat.Velocity != (mgl64.Vec3{}) {
		t.Fatalf("grounded satellite still moving: %v", sat.Velocity)
	}

	// Frozen from now on: further steps change nothing and report no
	// new groundings.
	frozen := sat
	if grounded := prop.AdvanceAll(reg, 10.0); grounded != 0 {
		t.Fatalf("second AdvanceAll grounded %d satellites, want 0", grounded)
	}
	if reg.At(0) != frozen {
		t.Fatalf("inert satellite state changed: %+v", reg.At(0))
	}
}

func TestAdvanceAll_NonFiniteStateIsGrounded(t *testing.T) {
	body := Earth()
	reg := NewRegistry(body, 1, DistributionRing, 0)
	prop := &Propagator{Body: body}

	reg.SetState(0, reg.At(0).Position, mgl64.Vec3{math.NaN(), 0, 0})

	if grounded := prop.AdvanceAll(reg, 10.0); grounded != 1 {
		t.Fatalf("AdvanceAll grounded %d satellites, want 1", grounded)
	}
	sat := reg.At(0)
	if !sat.Inert {
		t.Fatal("blown-up satellite not marked inert")
	}
	if !finite(sat.Position) || math.Abs(sat.Position.Len()-body.Radius) > 1e-6*body.Radius {
		t.Fatalf("blown-up satellite left at %v, want a finite surface point", sat.Position)
	}
}

func TestAdvanceAll_ParallelMatchesSerial(t *testing.T) {
	body := Earth()
	serial := NewRegistry(body, 500, DistributionShell, 99)
	parallel := NewRegistry(body, 500, DistributionShell, 99)

	serialProp := &Propagator{Body: body}
	parallelProp := &Propagator{Body: body, Workers: 4}

	const dt = 10.0
	for s := 0; s < 50; s++ {
		serialProp.AdvanceAll(serial, dt)
		parallelProp.AdvanceAll(parallel, dt)
	}

	for i := 0; i < serial.Count(); i++ {
		if serial.At(i) != parallel.At(i) {
			t.Fatalf("satellite %d diverged between serial and parallel propagation:\n serial  %+v\n parallel %+v",
				i, serial.At(i), parallel.At(i))
		}
	}
}
