// Package physics provides the pure kinematics of the ball pit.
//
// Nothing in this package holds locks or goroutines; every function takes
// values and returns values so the scheduler in package sim can decide
// which critical section a computation runs under:
//
//   - [Vector]: immutable 2-D position or velocity
//   - [Arena]: the bounding box bodies move in
//   - [Step]: one tick of motion with wall reflection and clamping
//   - [Collide]: equal-mass elastic impact along the contact normal
//   - [Spawn]: rejection sampling of non-overlapping start positions
//
// # Accepted Approximation
//
// [Collide] only changes velocities. Two bodies may still overlap after an
// impact; no positional correction is applied beyond the wall clamp in [Step].
package physics
