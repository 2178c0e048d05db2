package sim

import (
	"errors"
	"sync"

	"github.com/san-kum/ballpit/internal/physics"
)

var errNonFinite = errors.New("non-finite position or velocity")

// PositionFunc receives a body's position after each completed motion step.
type PositionFunc func(b *Body, pos physics.Vector)

// Body is one simulated disc. Identity, radius and color never change; position
// and velocity are only reachable through methods that hold the body's lock.
type Body struct {
	id     int
	radius float64
	color  physics.Color

	mu       sync.Mutex
	position physics.Vector
	velocity physics.Vector
	ticks    uint64

	subMu   sync.RWMutex
	subs    map[uint64]PositionFunc
	nextSub uint64
}

func NewBody(id int, radius float64, color physics.Color, pos, vel physics.Vector) *Body {
	return &Body{
		id:       id,
		radius:   radius,
		color:    color,
		position: pos,
		velocity: vel,
		subs:     make(map[uint64]PositionFunc),
	}
}

func (b *Body) ID() int              { return b.id }
func (b *Body) Radius() float64      { return b.radius }
func (b *Body) Color() physics.Color { return b.color }

func (b *Body) Position() physics.Vector {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.position
}

func (b *Body) Velocity() physics.Vector {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.velocity
}

// Ticks returns how many motion steps the body has completed.
func (b *Body) Ticks() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ticks
}

// State returns position and velocity read under one lock acquisition.
func (b *Body) State() physics.BodyState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Body) stateLocked() physics.BodyState {
	return physics.BodyState{
		ID:       b.id,
		Color:    b.color,
		Radius:   b.radius,
		Position: b.position,
		Velocity: b.velocity,
	}
}

// Subscribe registers fn for position notifications and returns a func that
// removes it.
func (b *Body) Subscribe(fn PositionFunc) (unsubscribe func()) {
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subs, id)
			b.subMu.Unlock()
		})
	}
}

// step advances the body by one tick and returns the completed state.
func (b *Body) step(bounds physics.Vector) (physics.BodyState, uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pos, vel := physics.Step(b.position, b.velocity, b.radius, bounds)
	if !pos.IsFinite() || !vel.IsFinite() {
		return b.stateLocked(), b.ticks, errNonFinite
	}
	b.position, b.velocity = pos, vel
	b.ticks++
	return b.stateLocked(), b.ticks, nil
}

func (b *Body) notify(pos physics.Vector) {
	b.subMu.RLock()
	fns := make([]PositionFunc, 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.RUnlock()

	for _, fn := range fns {
		fn(b, pos)
	}
}
