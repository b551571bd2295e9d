package core

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Propagator advances satellite states under central-body gravity with
// a fixed-step semi-implicit (symplectic) Euler scheme: the velocity is
// updated from the acceleration at the current position, then the
// position is updated with the *new* velocity. Unlike explicit Euler,
// this keeps orbital energy bounded over arbitrarily many steps instead
// of secularly pumping it, so orbits neither spiral out nor decay.
//
// Propagators are stateless between calls and hold no satellite data.
type Propagator struct {
	// Body supplies the gravity field and the surface boundary.
	Body CentralBody
	// Workers > 1 splits AdvanceAll into that many contiguous index
	// ranges integrated concurrently. Each satellite is touched by
	// exactly one worker and all workers join before AdvanceAll
	// returns, so results are identical to the serial path.
	Workers int
}

// AdvanceAll advances every non-inert satellite by one timestep of dt
// seconds and returns the number of satellites newly marked inert
// (surface hits or non-finite states).
func (p *Propagator) AdvanceAll(reg *Registry, dt float64) int {
	n := reg.Count()
	if p.Workers <= 1 || n < 2*p.Workers {
		return p.advanceRange(reg, 0, n, dt)
	}

	counts := make([]int, p.Workers)
	chunk := (n + p.Workers - 1) / p.Workers

	var wg sync.WaitGroup
	for w := 0; w < p.Workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			counts[w] = p.advanceRange(reg, lo, hi, dt)
		}(w, lo, hi)
	}
	wg.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

func (p *Propagator) advanceRange(reg *Registry, lo, hi int, dt float64) int {
	flagged := 0
	for i := lo; i < hi; i++ {
		s := &reg.sats[i]
		if s.Inert {
			continue
		}

		acc := p.Body.AccelerationAt(s.Position)
		vel := s.Velocity.Add(acc.Mul(dt))
		pos := s.Position.Add(vel.Mul(dt))

		if !finite(pos) || !finite(vel) || pos.Dot(pos) <= p.Body.Radius*p.Body.Radius {
			p.ground(s, pos)
			flagged++
			continue
		}

		s.Position = pos
		s.Velocity = vel
	}
	return flagged
}

// ground parks a satellite on the surface and freezes it. Clamping at
// Radius (never below) keeps the distance-to-origin strictly positive,
// which AccelerationAt requires on every subsequent step.
func (p *Propagator) ground(s *Satellite, candidate mgl64.Vec3) {
	dir := candidate
	if !finite(dir) || dir.Dot(dir) == 0 {
		// The attempted position is unusable; fall back to the last
		// known good radial direction, which is finite and above the
		// surface by the loop invariant.
		dir = s.Position
	}
	s.Position = dir.Normalize().Mul(p.Body.Radius)
	s.Velocity = mgl64.Vec3{}
	s.Inert = true
}
