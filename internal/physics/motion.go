package physics

// Step advances a body by one tick of its velocity. Each axis is handled on its own:
// when the candidate touches or crosses a wall the velocity component is inverted and
// the coordinate is clamped into [radius, bound-radius]; otherwise the candidate is kept.
// Reflection is perfectly elastic.
func Step(pos, vel Vector, radius float64, bounds Vector) (Vector, Vector) {
	cand := pos.Add(vel)
	x, vx := reflectAxis(cand.X, vel.X, radius, bounds.X)
	y, vy := reflectAxis(cand.Y, vel.Y, radius, bounds.Y)
	return Vector{X: x, Y: y}, Vector{X: vx, Y: vy}
}

func reflectAxis(c, v, radius, bound float64) (float64, float64) {
	if c-radius <= 0 || c+radius >= bound {
		return clamp(c, radius, bound-radius), -v
	}
	return c, v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
