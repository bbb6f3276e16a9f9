// Package metrics measures fluid frames and folds them into run summaries.
package metrics

import "math"

// Metric accumulates one summary value over the frames of a run.
type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

// Energy is the mean kinetic energy per frame.
type Energy struct {
	sum     float64
	samples int
}

func NewEnergy() *Energy { return &Energy{} }

func (e *Energy) Name() string { return "energy" }

func (e *Energy) Observe(f Frame) {
	e.sum += f.KineticEnergy
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *Energy) Reset() {
	e.sum = 0
	e.samples = 0
}

// PeakSpeed is the fastest particle seen over the run.
type PeakSpeed struct {
	peak float64
}

func NewPeakSpeed() *PeakSpeed { return &PeakSpeed{} }

func (p *PeakSpeed) Name() string { return "peak_speed" }
func (p *PeakSpeed) Observe(f Frame) { p.peak = math.Max(p.peak, f.MaxSpeed) }
func (p *PeakSpeed) Value() float64 { return p.peak }
func (p *PeakSpeed) Reset() { p.peak = 0 }

// Compression is the mean relative deviation of density from rest density,
// a measure of how incompressible the fluid behaved.
type Compression struct {
	rest    float64
	sum     float64
	samples int
}

func NewCompression(restDensity float64) *Compression {
	return &Compression{rest: restDensity}
}

func (c *Compression) Name() string { return "compression" }

func (c *Compression) Observe(f Frame) {
	if c.rest <= 0 || f.Particles == 0 {
		return
	}
	c.sum += math.Abs(f.MeanDensity/c.rest - 1)
	c.samples++
}

func (c *Compression) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Compression) Reset() {
	c.sum = 0
	c.samples = 0
}

// Stability is the fraction of frames with every particle inside the box
// and no particle faster than threshold.
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(f Frame) {
	s.samples++
	if f.OutOfBounds > 0 || f.MaxSpeed > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Standard returns the metrics recorded for every run.
func Standard(restDensity, maxVelocity float64) []Metric {
	return []Metric{
		NewEnergy(),
		NewPeakSpeed(),
		NewCompression(restDensity),
		// allow rounding at the speed limit
		NewStability(maxVelocity * (1 + 1e-9)),
	}
}
