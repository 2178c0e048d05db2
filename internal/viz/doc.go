// Package viz renders a running simulation in the terminal.
//
// [Model] is a Bubble Tea model that polls the engine for consistent snapshots
// and consumes position notifications from a [sim.ChannelObserver]. Bodies are
// drawn as filled discs on a braille [Canvas], colored per body.
//
// # Key Bindings
//
//	Space - Freeze/resume the view (the engine keeps running)
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
