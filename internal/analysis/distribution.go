package analysis

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/ballpit/internal/physics"
)

var ErrNoSamples = errors.New("analysis: no samples")

// Distribution is a histogram of body speeds over every body in every frame.
type Distribution struct {
	Dividers []float64
	Counts   []float64
	Mean     float64
	StdDev   float64
	Min      float64
	Max      float64
}

// SpeedDistribution bins the speeds into the given number of equal-width bins.
func SpeedDistribution(frames [][]physics.BodyState, bins int) (*Distribution, error) {
	if bins < 1 {
		return nil, fmt.Errorf("analysis: bins must be positive, got %d", bins)
	}
	var speeds []float64
	for _, frame := range frames {
		for _, st := range frame {
			speeds = append(speeds, st.Velocity.Norm())
		}
	}
	if len(speeds) == 0 {
		return nil, ErrNoSamples
	}
	sort.Float64s(speeds)

	d := &Distribution{
		Min: speeds[0],
		Max: speeds[len(speeds)-1],
	}
	d.Mean, d.StdDev = stat.MeanStdDev(speeds, nil)

	// the top divider must exceed the largest sample
	upper := d.Max
	if upper == d.Min {
		upper = d.Min + 1
	}
	d.Dividers = make([]float64, bins+1)
	floats.Span(d.Dividers, d.Min, upper)
	d.Dividers[bins] = upper + 1e-9*(upper-d.Min)
	d.Counts = stat.Histogram(nil, d.Dividers, speeds, nil)
	return d, nil
}

// Bars renders the histogram as one text bar per bin.
func (d *Distribution) Bars(width int) string {
	peak := floats.Max(d.Counts)
	var sb strings.Builder
	for i, c := range d.Counts {
		n := 0
		if peak > 0 {
			n = int(c / peak * float64(width))
		}
		fmt.Fprintf(&sb, "%8.3f  %s %g\n", d.Dividers[i], strings.Repeat("█", n), c)
	}
	return sb.String()
}

// Occupancy counts body centers per cell of a cols x rows grid laid over the
// arena.
type Occupancy struct {
	Cols, Rows int
	Cells      []float64
}

func NewOccupancy(frames [][]physics.BodyState, arena physics.Arena, cols, rows int) *Occupancy {
	o := &Occupancy{Cols: cols, Rows: rows, Cells: make([]float64, cols*rows)}
	if cols < 1 || rows < 1 || arena.Width <= 0 || arena.Height <= 0 {
		return o
	}
	for _, frame := range frames {
		for _, st := range frame {
			c := int(st.Position.X / arena.Width * float64(cols))
			r := int(st.Position.Y / arena.Height * float64(rows))
			c = min(max(c, 0), cols-1)
			r = min(max(r, 0), rows-1)
			o.Cells[r*cols+c]++
		}
	}
	return o
}

func (o *Occupancy) At(col, row int) float64 { return o.Cells[row*o.Cols+col] }

var shades = []rune(" ░▒▓█")

// ASCII shades each cell relative to the busiest one.
func (o *Occupancy) ASCII() string {
	peak := 0.0
	if len(o.Cells) > 0 {
		peak = floats.Max(o.Cells)
	}
	var sb strings.Builder
	for r := 0; r < o.Rows; r++ {
		for c := 0; c < o.Cols; c++ {
			i := 0
			if peak > 0 {
				i = int(o.At(c, r) / peak * float64(len(shades)-1))
			}
			sb.WriteRune(shades[i])
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
