package sim

import "github.com/san-kum/ballpit/internal/physics"

// resolvePair runs one collision check for a and b with both bodies locked in
// ascending id order. It reports whether an impulse was applied.
func resolvePair(a, b *Body, contacts *contactTracker) bool {
	if a == b {
		return false
	}
	lo, hi := a, b
	if hi.id < lo.id {
		lo, hi = hi, lo
	}
	lo.mu.Lock()
	defer lo.mu.Unlock()
	hi.mu.Lock()
	defer hi.mu.Unlock()

	key := makePairKey(lo.id, hi.id)
	v1, v2, contact := physics.Collide(lo.position, lo.velocity, hi.position, hi.velocity, lo.radius+hi.radius)
	switch contact {
	case physics.Apart:
		contacts.end(key)
		return false
	case physics.Impact:
		if !contacts.begin(key) {
			return false
		}
		lo.velocity, hi.velocity = v1, v2
		return true
	default:
		return false
	}
}

// lockAll locks every body in ascending id order and returns the unlock func.
// bodies must already be sorted by id, which Set.All guarantees.
func lockAll(bodies []*Body) func() {
	for _, b := range bodies {
		b.mu.Lock()
	}
	return func() {
		for i := len(bodies) - 1; i >= 0; i-- {
			bodies[i].mu.Unlock()
		}
	}
}
