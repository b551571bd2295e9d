package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/constellation-propagator/internal/logging"
)

// Simulation defaults. The timestep and warning threshold match the
// values the browser visualizer was tuned for: a 10 s step keeps LEO
// motion visibly smooth at interactive frame rates, and 100 km is a
// conservative conjunction-screening distance.
const (
	DefaultTimestepSeconds    = 10.0
	DefaultProximityThreshold = 100e3 // metres

	// MaxSatellites bounds construction. Beyond this the per-frame cost
	// stops being interactive and the caller almost certainly passed a
	// wrong count.
	MaxSatellites = 100000
)

// ErrInvalidConfiguration is returned (wrapped) by NewSimulation when a
// parameter is out of range. Nothing is clamped; construction fails.
var ErrInvalidConfiguration = errors.New("invalid simulation configuration")

// StepRecorder receives per-step measurements. Implemented by
// observability.SimCollector; a nil recorder disables recording.
type StepRecorder interface {
	ObserveStep(d time.Duration)
	SetSatellites(n int)
	SetProximityWarnings(n int)
	AddCollisions(n int)
}

// Simulation is the engine behind the visualizer contract: a fixed-step
// propagator plus proximity detector over a fixed set of satellites,
// driven by Step and queried with Positions / ProximityWarnings.
//
// A Simulation assumes exclusive single-caller access: Step must not
// overlap itself or the query methods. The frame loop lives outside.
type Simulation struct {
	body CentralBody
	reg  *Registry
	prop *Propagator
	det  *Detector

	log      logging.Logger
	recorder StepRecorder
	tracer   trace.Tracer

	dt      float64
	perStep time.Duration
	elapsed time.Duration
	steps   uint64
	inert   int

	positions [][3]float64
	warnings  []int
}

type simOptions struct {
	body      CentralBody
	timestep  float64
	threshold float64
	dist      Distribution
	seed      int64
	workers   int
	log       logging.Logger
	recorder  StepRecorder
}

// Option customises NewSimulation.
type Option func(*simOptions)

// WithTimestep sets the simulated seconds advanced per Step.
func WithTimestep(seconds float64) Option {
	return func(o *simOptions) { o.timestep = seconds }
}

// WithProximityThreshold sets the warning distance in metres.
func WithProximityThreshold(meters float64) Option {
	return func(o *simOptions) { o.threshold = meters }
}

// WithDistribution selects the initial-orbit distribution.
func WithDistribution(d Distribution) Option {
	return func(o *simOptions) { o.dist = d }
}

// WithSeed sets the seed for the initial-orbit RNG. The default is 0;
// equal seeds give bit-identical simulations.
func WithSeed(seed int64) Option {
	return func(o *simOptions) { o.seed = seed }
}

// WithWorkers enables parallel propagation across that many goroutines.
func WithWorkers(n int) Option {
	return func(o *simOptions) { o.workers = n }
}

// WithCentralBody replaces the default Earth model.
func WithCentralBody(b CentralBody) Option {
	return func(o *simOptions) { o.body = b }
}

// WithLogger attaches a structured logger; the default drops all logs.
func WithLogger(l logging.Logger) Option {
	return func(o *simOptions) { o.log = l }
}

// WithRecorder attaches a per-step metrics recorder.
func WithRecorder(r StepRecorder) Option {
	return func(o *simOptions) { o.recorder = r }
}

// NewSimulation builds the central body, registry, propagator, detector
// and clock for count satellites. It fails fast with a wrapped
// ErrInvalidConfiguration on any out-of-range parameter.
func NewSimulation(count int, opts ...Option) (*Simulation, error) {
	o := simOptions{
		body:      Earth(),
		timestep:  DefaultTimestepSeconds,
		threshold: DefaultProximityThreshold,
		dist:      DistributionShell,
		log:       logging.Noop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if count < 1 || count > MaxSatellites {
		return nil, fmt.Errorf("%w: satellite count %d outside [1, %d]",
			ErrInvalidConfiguration, count, MaxSatellites)
	}
	if o.timestep <= 0 {
		return nil, fmt.Errorf("%w: timestep %v s must be positive",
			ErrInvalidConfiguration, o.timestep)
	}
	if o.threshold <= 0 {
		return nil, fmt.Errorf("%w: proximity threshold %v m must be positive",
			ErrInvalidConfiguration, o.threshold)
	}
	if o.workers < 0 {
		return nil, fmt.Errorf("%w: worker count %d must not be negative",
			ErrInvalidConfiguration, o.workers)
	}
	if o.body.Mu <= 0 || o.body.Radius <= 0 {
		return nil, fmt.Errorf("%w: central body needs positive mu and radius",
			ErrInvalidConfiguration)
	}

	s := &Simulation{
		body:      o.body,
		reg:       NewRegistry(o.body, count, o.dist, o.seed),
		prop:      &Propagator{Body: o.body, Workers: o.workers},
		det:       NewDetector(o.threshold),
		log:       o.log,
		recorder:  o.recorder,
		tracer:    otel.Tracer("constellation-propagator/core"),
		dt:        o.timestep,
		perStep:   time.Duration(o.timestep * float64(time.Second)),
		positions: make([][3]float64, count),
	}
	s.snapshotPositions()
	if s.recorder != nil {
		s.recorder.SetSatellites(count)
	}
	s.log.Info(context.Background(), "simulation constructed",
		logging.Int("satellites", count),
		logging.Any("timestep_s", s.dt),
		logging.Any("threshold_m", s.det.Threshold),
	)
	return s, nil
}

// Step advances the clock by exactly one timestep, propagates every
// satellite and rescans for proximity warnings. The results are cached
// for Positions and ProximityWarnings. Side effect only; no return.
func (s *Simulation) Step() {
	ctx, span := s.tracer.Start(context.Background(), "Simulation.Step",
		trace.WithAttributes(attribute.Int("satellites", s.reg.Count())))
	defer span.End()
	start := time.Now()

	_, propSpan := s.tracer.Start(ctx, "Propagator.AdvanceAll")
	collided := s.prop.AdvanceAll(s.reg, s.dt)
	propSpan.End()

	_, scanSpan := s.tracer.Start(ctx, "Detector.Scan")
	s.warnings = s.det.Scan(s.reg)
	scanSpan.End()

	s.snapshotPositions()
	s.elapsed += s.perStep
	s.steps++
	s.inert += collided

	if collided > 0 {
		s.log.Warn(ctx, "satellites hit the surface",
			logging.Int("collided", collided),
			logging.Int("inert_total", s.inert),
		)
	}
	if s.recorder != nil {
		s.recorder.ObserveStep(time.Since(start))
		s.recorder.SetProximityWarnings(len(s.warnings))
		if collided > 0 {
			s.recorder.AddCollisions(collided)
		}
	}
}

// Positions returns one (x, y, z) triple per satellite in metres,
// ordered by satellite identity, reflecting the most recent Step (or
// the initial state before any Step). The slice is reused across Steps;
// callers must not retain it.
func (s *Simulation) Positions() [][3]float64 { return s.positions }

// ProximityWarnings returns the identities flagged by the most recent
// Step's scan (empty before any Step unless satellites start within
// threshold). Sorted ascending, no duplicates. The slice is reused
// across Steps; callers must not retain it.
func (s *Simulation) ProximityWarnings() []int {
	if s.warnings == nil {
		return []int{}
	}
	return s.warnings
}

// Elapsed returns the simulated time advanced so far: exactly one
// timestep per Step call, monotonically non-decreasing.
func (s *Simulation) Elapsed() time.Duration { return s.elapsed }

// Steps returns how many times Step has been called.
func (s *Simulation) Steps() uint64 { return s.steps }

// InertCount returns how many satellites have been frozen by the
// collision policy so far.
func (s *Simulation) InertCount() int { return s.inert }

// Registry exposes the satellite registry, e.g. for TLE seeding between
// construction and the first Step.
func (s *Simulation) Registry() *Registry { return s.reg }

func (s *Simulation) snapshotPositions() {
	for i := range s.positions {
		p := s.reg.sats[i].Position
		s.positions[i] = [3]float64{p.X(), p.Y(), p.Z()}
	}
}
