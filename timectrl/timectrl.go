// Package timectrl drives a simulation's frame loop. The engine itself
// is synchronous and clockless beyond its fixed timestep; this package
// is the external driver that decides when each frame happens.
package timectrl

import (
	"context"
	"time"
)

// Mode describes how the Driver paces frames.
type Mode int

const (
	// RealTime paces one frame per Tick of wall-clock time.
	RealTime Mode = iota
	// Accelerated runs frames as fast as the loop allows.
	Accelerated
)

// Driver invokes registered listeners once per frame, in registration
// order, until the requested frame count is reached or the context is
// cancelled. Listeners run on the driver's goroutine, so a frame
// completes fully before the next begins.
type Driver struct {
	Tick time.Duration
	Mode Mode

	listeners []func(frame int)
}

// NewDriver constructs a driver. Tick is only consulted in RealTime
// mode.
func NewDriver(tick time.Duration, mode Mode) *Driver {
	return &Driver{Tick: tick, Mode: mode}
}

// AddListener registers a callback invoked on every frame with the
// zero-based frame number. Not safe to call once Run has started.
func (d *Driver) AddListener(fn func(frame int)) {
	d.listeners = append(d.listeners, fn)
}

// Run executes up to frames frames and returns the number actually run,
// which is lower than frames only when ctx is cancelled first.
func (d *Driver) Run(ctx context.Context, frames int) int {
	var ticker *time.Ticker
	if d.Mode == RealTime {
		ticker = time.NewTicker(d.Tick)
		defer ticker.Stop()
	}

	for frame := 0; frame < frames; frame++ {
		if d.Mode == RealTime {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return frame
			}
		} else if ctx.Err() != nil {
			return frame
		}

		for _, fn := range d.listeners {
			fn(frame)
		}
	}
	return frames
}
