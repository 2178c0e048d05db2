// Package analysis inspects recorded frames after a run.
//
//   - [SpeedDistribution]: histogram and moments of body speeds across frames
//   - [Occupancy]: where in the arena bodies spent their time
//   - [NewPhasePortrait]: one coordinate of one body against its velocity
//   - [DominantPeriod]: the strongest oscillation in a sampled signal
//
// A body crossing the arena at constant speed bounces between two walls, so its
// position along either axis is a triangle wave whose period the spectrum finds:
//
//	xs := analysis.Track(frames, 0, analysis.AxisX)
//	period := analysis.DominantPeriod(xs, sample)
package analysis
