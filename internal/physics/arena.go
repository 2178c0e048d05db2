package physics

import (
	"errors"
	"fmt"
)

var ErrBadParams = errors.New("physics: invalid parameters")

// Arena is the constant bounding box. The playfield spans [0, Width-WallMargin] on x
// and [0, Height-WallMargin] on y; the margin absorbs the border drawn by a viewer.
type Arena struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	WallMargin float64 `json:"wall_margin"`
}

// Bounds returns the far corner of the playfield.
func (a Arena) Bounds() Vector {
	return Vector{X: a.Width - a.WallMargin, Y: a.Height - a.WallMargin}
}

// Contains reports whether a body of the given radius centered at p lies fully inside
// the playfield, touching the wall included.
func (a Arena) Contains(p Vector, radius float64) bool {
	b := a.Bounds()
	return p.X >= radius && p.X <= b.X-radius && p.Y >= radius && p.Y <= b.Y-radius
}

// Validate checks that a body of the given radius fits inside the playfield.
func (a Arena) Validate(radius float64) error {
	if radius <= 0 {
		return fmt.Errorf("%w: radius must be positive, got %g", ErrBadParams, radius)
	}
	if a.WallMargin < 0 {
		return fmt.Errorf("%w: wall margin must not be negative, got %g", ErrBadParams, a.WallMargin)
	}
	b := a.Bounds()
	if b.X < 2*radius || b.Y < 2*radius {
		return fmt.Errorf("%w: playfield %s too small for radius %g", ErrBadParams, b, radius)
	}
	return nil
}
