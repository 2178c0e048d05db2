// Package sim runs the concurrent ball pit.
//
// An [Engine] owns the simulation set, spawns bodies on [Engine.Start] and
// drives them with one of two schedulers until [Engine.Dispose]:
//
//   - [SharedClock]: one ticker steps every body and resolves every pair
//     inside a single critical section.
//   - [PerBody]: one goroutine per body with its own timer. Motion touches
//     only the driver's own body; pair resolution locks both bodies.
//
// # Locking
//
// Each [Body] guards its position and velocity with its own mutex. Body locks
// are always acquired in ascending body id order: a pair check takes two, a
// snapshot under [PerBody] takes all of them. The contact tracker's shard
// locks are leaves and nothing else is acquired while one is held.
//
// Position subscribers run on the driving goroutine after the body lock is
// released and receive a copy of the completed position. They sit on the
// simulation's critical path and must return promptly; use [ChannelObserver]
// to hand updates to another goroutine.
package sim
