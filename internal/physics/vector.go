package physics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vector is an immutable 2-D coordinate or velocity. Arithmetic returns new values.
type Vector r2.Vec

func Vec(x, y float64) Vector { return Vector{X: x, Y: y} }

func (v Vector) Add(o Vector) Vector    { return Vector(r2.Add(r2.Vec(v), r2.Vec(o))) }
func (v Vector) Sub(o Vector) Vector    { return Vector(r2.Sub(r2.Vec(v), r2.Vec(o))) }
func (v Vector) Scale(f float64) Vector { return Vector(r2.Scale(f, r2.Vec(v))) }
func (v Vector) Dot(o Vector) float64   { return r2.Dot(r2.Vec(v), r2.Vec(o)) }
func (v Vector) Norm() float64          { return r2.Norm(r2.Vec(v)) }
func (v Vector) Dist(o Vector) float64  { return v.Sub(o).Norm() }
func (v Vector) Neg() Vector            { return Vector{X: -v.X, Y: -v.Y} }
func (v Vector) String() string         { return fmt.Sprintf("(%.3f, %.3f)", v.X, v.Y) }
func (v Vector) Equal(o Vector) bool    { return v.X == o.X && v.Y == o.Y }
func (v Vector) IsZero() bool           { return v.X == 0 && v.Y == 0 }

func (v Vector) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
