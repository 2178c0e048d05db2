// Package metrics summarizes snapshots of the simulation set. Every body has unit
// mass.
package metrics

import (
	"math"
	"time"

	"github.com/san-kum/ballpit/internal/physics"
)

// Metric accumulates over a sequence of snapshots taken at elapsed time t.
type Metric interface {
	Name() string
	Observe(frame []physics.BodyState, t time.Duration)
	Value() float64
	Reset()
}

func TotalKineticEnergy(frame []physics.BodyState) float64 {
	var ke float64
	for _, st := range frame {
		ke += 0.5 * st.Velocity.Dot(st.Velocity)
	}
	return ke
}

func TotalMomentum(frame []physics.BodyState) physics.Vector {
	var p physics.Vector
	for _, st := range frame {
		p = p.Add(st.Velocity)
	}
	return p
}

func MeanSpeed(frame []physics.BodyState) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, st := range frame {
		sum += st.Velocity.Norm()
	}
	return sum / float64(len(frame))
}

// overlapTolerance absorbs rounding when two bodies rest exactly in contact.
const overlapTolerance = 1e-9

// CountOverlaps counts pairs whose discs intersect.
func CountOverlaps(frame []physics.BodyState) int {
	n := 0
	for i := range frame {
		for j := i + 1; j < len(frame); j++ {
			if frame[i].Position.Dist(frame[j].Position) < frame[i].Radius+frame[j].Radius-overlapTolerance {
				n++
			}
		}
	}
	return n
}

// CountOutside counts bodies that are not fully inside the arena.
func CountOutside(frame []physics.BodyState, arena physics.Arena) int {
	n := 0
	for _, st := range frame {
		if !arena.Contains(st.Position, st.Radius) {
			n++
		}
	}
	return n
}

// Default returns the metrics recorded for every run.
func Default(arena physics.Arena) []Metric {
	return []Metric{
		NewKineticEnergy(),
		NewEnergyDrift(),
		NewMomentum(),
		NewMaxSpeed(),
		NewOverlaps(),
		NewContainment(arena),
	}
}

// Evaluate resets ms, feeds every frame through them and returns the final values
// by name.
func Evaluate(frames [][]physics.BodyState, times []time.Duration, ms ...Metric) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}
	for i, frame := range frames {
		var t time.Duration
		if i < len(times) {
			t = times[i]
		}
		for _, m := range ms {
			m.Observe(frame, t)
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

type KineticEnergy struct {
	name    string
	samples int
	total   float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(frame []physics.BodyState, _ time.Duration) {
	k.total += TotalKineticEnergy(frame)
	k.samples++
}

// Value is the mean total kinetic energy across samples.
func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.total = 0
	k.samples = 0
}

// EnergyDrift is the largest relative change in total kinetic energy from the
// first sample. Wall reflection and pair impulses are both elastic, so it stays
// near zero for a healthy run.
type EnergyDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(frame []physics.BodyState, _ time.Duration) {
	energy := TotalKineticEnergy(frame)
	if e.samples == 0 {
		e.initial = energy
	}
	e.samples++

	if e.initial != 0 {
		drift := math.Abs(energy-e.initial) / e.initial
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initial = 0
	e.maxDrift = 0
	e.samples = 0
}

// Momentum reports the magnitude of the total momentum in the latest sample.
type Momentum struct {
	name string
	last float64
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(frame []physics.BodyState, _ time.Duration) {
	m.last = TotalMomentum(frame).Norm()
}

func (m *Momentum) Value() float64 { return m.last }
func (m *Momentum) Reset()         { m.last = 0 }

type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(frame []physics.BodyState, _ time.Duration) {
	for _, st := range frame {
		m.max = math.Max(m.max, st.Velocity.Norm())
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }
func (m *MaxSpeed) Reset()         { m.max = 0 }

// Overlaps is the largest number of intersecting pairs seen in one sample.
type Overlaps struct {
	name string
	max  int
}

func NewOverlaps() *Overlaps {
	return &Overlaps{name: "overlaps"}
}

func (o *Overlaps) Name() string { return o.name }

func (o *Overlaps) Observe(frame []physics.BodyState, _ time.Duration) {
	o.max = max(o.max, CountOverlaps(frame))
}

func (o *Overlaps) Value() float64 { return float64(o.max) }
func (o *Overlaps) Reset()         { o.max = 0 }

// Containment is the fraction of samples in which every body was inside the
// arena.
type Containment struct {
	name       string
	arena      physics.Arena
	violations int
	samples    int
}

func NewContainment(arena physics.Arena) *Containment {
	return &Containment{name: "containment", arena: arena}
}

func (c *Containment) Name() string { return c.name }

func (c *Containment) Observe(frame []physics.BodyState, _ time.Duration) {
	c.samples++
	if CountOutside(frame, c.arena) > 0 {
		c.violations++
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}
