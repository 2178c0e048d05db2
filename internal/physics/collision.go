package physics

// Contact classifies a pair of bodies for one resolution attempt.
type Contact int

const (
	// Apart means the centers are farther than the contact distance.
	Apart Contact = iota
	// Touching means the bodies overlap but no impulse applies: they are already
	// separating, moving in parallel, or share a center so no normal exists.
	Touching
	// Impact means the bodies overlap while approaching; new velocities were computed.
	Impact
)

func (c Contact) String() string {
	switch c {
	case Apart:
		return "apart"
	case Touching:
		return "touching"
	case Impact:
		return "impact"
	default:
		return "unknown"
	}
}

// Collide resolves an equal-mass elastic collision projected onto the collision
// normal. contactDist is the center distance at which the bodies touch (the sum
// of their radii). The normal components of the two velocities are exchanged and
// the tangential components are kept, which conserves momentum and kinetic energy.
// On anything but Impact the input velocities are returned unchanged.
func Collide(p1, v1, p2, v2 Vector, contactDist float64) (Vector, Vector, Contact) {
	d := p2.Sub(p1)
	dist := d.Norm()
	if dist > contactDist {
		return v1, v2, Apart
	}
	if dist == 0 {
		return v1, v2, Touching
	}
	n := d.Scale(1 / dist)
	rel := v1.Sub(v2).Dot(n)
	if rel <= 0 {
		return v1, v2, Touching
	}
	return v1.Sub(n.Scale(rel)), v2.Add(n.Scale(rel)), Impact
}

// Overlapping reports whether two centers are within contactDist of each other.
func Overlapping(p1, p2 Vector, contactDist float64) bool {
	return p1.Dist(p2) <= contactDist
}
