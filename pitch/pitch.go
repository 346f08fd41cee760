// Package pitch tracks the instantaneous playback rate observed from
// a timecode decoder's zero-crossing events, smoothing it with an
// exponential moving average so scratches and sample-level jitter
// don't make the reported pitch unusable.
package pitch

import "github.com/edorfaus/dvs-timecode/filter"

// pitchRC is the EMA smoothing factor (alpha) applied to the observed
// pitch once per Update; it is not a time in seconds. Ambient tuning
// value, not a spec constant.
const pitchRC = 1.0 / 8

// Pitch accumulates per-sample displacement observations between
// updates, and exposes a smoothed instantaneous rate. A Pitch value's
// state (dx, dt, and the EMA it wraps) belongs to exactly one decoder;
// it is never shared.
type Pitch struct {
	dx    float64
	dt    float64
	n     int
	ema   filter.EMA
	value float64
}

// Init resets p to a stopped state, ready to observe displacements at
// the given per-sample time step.
func (p *Pitch) Init(dt float64) {
	p.dx = 0
	p.dt = dt
	p.n = 0
	p.ema = filter.EMA{Alpha: pitchRC}
	p.value = 0
}

// Observe accumulates one sample's worth of displacement, in seconds
// of medium time, i.e. chips divided by the format's resolution
// (positive forwards, negative reverse, zero if no crossing occurred
// this sample). Call once per sample submitted to the decoder.
func (p *Pitch) Observe(dx float64) {
	p.dx += dx
	p.n++
}

// Update turns the displacement accumulated since the last Update
// into an instantaneous rate, with one second of medium time per
// second of real time being nominal unit speed, smooths it through the
// EMA, and resets the
// accumulator. Call once per submitted block.
func (p *Pitch) Update() {
	if p.n == 0 || p.dt <= 0 {
		p.value = p.ema.Step(0)
		return
	}
	rate := p.dx / (float64(p.n) * p.dt)
	p.value = p.ema.Step(rate)
	p.dx = 0
	p.n = 0
}

// Value returns the current smoothed pitch. Units are chips/second
// divided by the format's own chip rate, so 1.0 means nominal forward
// playback speed, -1.0 full-speed reverse, and 0 stopped.
func (p *Pitch) Value() float64 {
	return p.value
}
