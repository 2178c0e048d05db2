package analysis

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/ballpit/internal/physics"
)

// bouncing records one body moving along x between the walls of a 100 wide
// arena, reflecting the way the motion step does.
func bouncing(n int) [][]physics.BodyState {
	frames := make([][]physics.BodyState, n)
	pos := physics.Vec(50, 50)
	vel := physics.Vec(5, 0)
	for i := range frames {
		frames[i] = []physics.BodyState{{ID: 0, Radius: 10, Position: pos, Velocity: vel}}
		pos, vel = physics.Step(pos, vel, 10, physics.Vec(100, 100))
	}
	return frames
}

func TestDominantPeriod(t *testing.T) {
	const n = 256
	sine := make([]float64, n)
	for i := range sine {
		sine[i] = 3 + math.Sin(2*math.Pi*float64(i)/32)
	}
	assert.Equal(t, 320*time.Millisecond, DominantPeriod(sine, 10*time.Millisecond))

	// 80 units of travel each way at 5 per step
	xs := Track(bouncing(n), 0, AxisX)
	require.Len(t, xs, n)
	period := DominantPeriod(xs, time.Millisecond)
	assert.InDelta(t, float64(32*time.Millisecond), float64(period), float64(2*time.Millisecond))

	assert.Zero(t, DominantPeriod(make([]float64, 64), time.Millisecond))
	assert.Zero(t, DominantPeriod([]float64{1}, time.Millisecond))
}

func TestPowerSpectrumIgnoresOffset(t *testing.T) {
	ps := PowerSpectrum([]float64{5, 5, 5, 5})
	for _, v := range ps {
		assert.InDelta(t, 0, v, 1e-12)
	}
}

func TestSpeedDistribution(t *testing.T) {
	frames := [][]physics.BodyState{
		{{Velocity: physics.Vec(3, 4)}, {Velocity: physics.Vec(0, 1)}},
		{{Velocity: physics.Vec(0, 5)}, {Velocity: physics.Vec(1, 0)}},
	}
	d, err := SpeedDistribution(frames, 2)
	require.NoError(t, err)
	assert.Equal(t, 1.0, d.Min)
	assert.Equal(t, 5.0, d.Max)
	assert.Equal(t, 3.0, d.Mean)
	assert.Equal(t, []float64{2, 2}, d.Counts)
	assert.Len(t, d.Dividers, 3)
	assert.Equal(t, 2, strings.Count(d.Bars(10), "\n"))

	still, err := SpeedDistribution([][]physics.BodyState{{{}, {}}}, 4)
	require.NoError(t, err)
	assert.Equal(t, 2.0, still.Counts[0])

	_, err = SpeedDistribution(nil, 4)
	assert.ErrorIs(t, err, ErrNoSamples)
	_, err = SpeedDistribution(frames, 0)
	assert.Error(t, err)
}

func TestOccupancy(t *testing.T) {
	arena := physics.Arena{Width: 100, Height: 100}
	frames := [][]physics.BodyState{
		{{Position: physics.Vec(10, 10)}, {Position: physics.Vec(90, 90)}},
		{{Position: physics.Vec(20, 20)}, {Position: physics.Vec(100, 100)}},
	}
	o := NewOccupancy(frames, arena, 2, 2)
	assert.Equal(t, 2.0, o.At(0, 0))
	assert.Equal(t, 2.0, o.At(1, 1))
	assert.Zero(t, o.At(1, 0))
	assert.Equal(t, "█ \n █\n", o.ASCII())
}

func TestPhasePortrait(t *testing.T) {
	p := NewPhasePortrait(bouncing(40), 0, AxisX)
	require.Len(t, p.Points, 40)
	assert.Equal(t, Point{X: 50, Y: 5}, p.Points[0])

	var pos, neg bool
	for _, pt := range p.Points {
		pos = pos || pt.Y > 0
		neg = neg || pt.Y < 0
	}
	assert.True(t, pos && neg)

	art := p.ASCII(40, 10)
	assert.Equal(t, 10, strings.Count(art, "\n"))
	assert.Contains(t, art, "•")
	assert.Contains(t, art, "─")

	assert.Empty(t, NewPhasePortrait(bouncing(3), 7, AxisY).ASCII(10, 10))
}
