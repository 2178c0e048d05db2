package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/ballpit/internal/physics"
)

type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

type Point struct{ X, Y float64 }

// PhasePortrait holds position against velocity along one axis for one body.
type PhasePortrait struct {
	BodyID int
	Axis   Axis
	Points []Point
}

// Track extracts one coordinate of body id from every frame that contains it.
func Track(frames [][]physics.BodyState, id int, axis Axis) []float64 {
	out := make([]float64, 0, len(frames))
	for _, frame := range frames {
		if st, ok := find(frame, id); ok {
			out = append(out, component(st.Position, axis))
		}
	}
	return out
}

func NewPhasePortrait(frames [][]physics.BodyState, id int, axis Axis) *PhasePortrait {
	portrait := &PhasePortrait{
		BodyID: id,
		Axis:   axis,
		Points: make([]Point, 0, len(frames)),
	}
	for _, frame := range frames {
		st, ok := find(frame, id)
		if !ok {
			continue
		}
		portrait.Points = append(portrait.Points, Point{
			X: component(st.Position, axis),
			Y: component(st.Velocity, axis),
		})
	}
	return portrait
}

func find(frame []physics.BodyState, id int) (physics.BodyState, bool) {
	// frames are ordered by id, but a partial frame may skip some
	if id < len(frame) && frame[id].ID == id {
		return frame[id], true
	}
	for _, st := range frame {
		if st.ID == id {
			return st, true
		}
	}
	return physics.BodyState{}, false
}

func component(v physics.Vector, axis Axis) float64 {
	if axis == AxisY {
		return v.Y
	}
	return v.X
}

// ASCII plots the portrait on a width x height grid with a velocity zero line.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
