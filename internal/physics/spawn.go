package physics

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var ErrSpawnInfeasible = errors.New("physics: cannot place body with the required separation")

const DefaultMaxAttempts = 1000

// Color is cosmetic and has no effect on physics.
type Color uint8

const (
	Red Color = iota
	Blue
	Yellow
	numColors
)

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Blue:
		return "blue"
	case Yellow:
		return "yellow"
	default:
		return fmt.Sprintf("color(%d)", uint8(c))
	}
}

// ParseColor is the inverse of Color.String for the named colors.
func ParseColor(s string) (Color, error) {
	for c := Red; c < numColors; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown color %q", ErrBadParams, s)
}

// BodyState is a read-only copy of one body at a consistent instant.
type BodyState struct {
	ID       int
	Color    Color
	Radius   float64
	Position Vector
	Velocity Vector
}

type SpawnParams struct {
	Count         int
	Arena         Arena
	Radius        float64
	MinSeparation float64
	// Inset shrinks the sampling rectangle on every side of the playfield.
	Inset       float64
	MaxSpeed    float64
	MaxAttempts int
}

func (p SpawnParams) Validate() error {
	if p.Count < 0 {
		return fmt.Errorf("%w: count must not be negative, got %d", ErrBadParams, p.Count)
	}
	if err := p.Arena.Validate(p.Radius); err != nil {
		return err
	}
	if p.MinSeparation < 0 || p.MaxSpeed < 0 {
		return fmt.Errorf("%w: separation and speed must not be negative", ErrBadParams)
	}
	b := p.Arena.Bounds()
	if p.Inset < p.Radius || 2*p.Inset >= b.X || 2*p.Inset >= b.Y {
		return fmt.Errorf("%w: inset %g must be in [radius, half the playfield)", ErrBadParams, p.Inset)
	}
	return nil
}

// Placement is the initial state chosen for one body.
type Placement struct {
	Position Vector
	Velocity Vector
	Color    Color
}

// Spawn places Count bodies by rejection sampling inside the inset rectangle so that
// every new position is at least MinSeparation from the existing positions and from
// every position accepted before it. Each body gets up to MaxAttempts samples; if one
// runs out the whole call fails with ErrSpawnInfeasible and nothing is returned.
// Velocity components are drawn independently from [-MaxSpeed, MaxSpeed).
//
// rng is owned by the caller for the duration of the call; spawning is single-threaded.
func Spawn(p SpawnParams, rng *rand.Rand, existing []Vector) ([]Placement, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}

	b := p.Arena.Bounds()
	spanX, spanY := b.X-2*p.Inset, b.Y-2*p.Inset

	taken := make([]Vector, len(existing), len(existing)+p.Count)
	copy(taken, existing)
	out := make([]Placement, 0, p.Count)

	for i := 0; i < p.Count; i++ {
		pos, ok := sample(attempts, taken, p.MinSeparation, func() Vector {
			return Vector{X: p.Inset + rng.Float64()*spanX, Y: p.Inset + rng.Float64()*spanY}
		})
		if !ok {
			return nil, fmt.Errorf("%w: body %d of %d after %d attempts (separation %g)",
				ErrSpawnInfeasible, i+1, p.Count, attempts, p.MinSeparation)
		}
		taken = append(taken, pos)
		out = append(out, Placement{
			Position: pos,
			Velocity: Vector{X: symmetric(rng, p.MaxSpeed), Y: symmetric(rng, p.MaxSpeed)},
			Color:    Color(rng.IntN(int(numColors))),
		})
	}
	return out, nil
}

func sample(attempts int, taken []Vector, minSep float64, next func() Vector) (Vector, bool) {
	for a := 0; a < attempts; a++ {
		cand := next()
		if farEnough(cand, taken, minSep) {
			return cand, true
		}
	}
	return Vector{}, false
}

func farEnough(cand Vector, taken []Vector, minSep float64) bool {
	for _, t := range taken {
		if cand.Dist(t) < minSep {
			return false
		}
	}
	return true
}

func symmetric(rng *rand.Rand, limit float64) float64 {
	return (rng.Float64()*2 - 1) * limit
}
