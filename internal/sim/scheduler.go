package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/ballpit/internal/diag"
	"github.com/san-kum/ballpit/internal/physics"
)

type scheduler interface {
	// attach registers freshly spawned bodies. Their creation callbacks have
	// already run.
	attach(bodies []*Body)
	// stop cancels every loop, waits for it to exit and returns the first fault.
	stop() error
	snapshot() []physics.BodyState
}

// world is the state shared by every driver.
type world struct {
	set      *Set
	contacts *contactTracker
	bounds   physics.Vector
	log      *zap.Logger
	diag     *diag.Sink

	steps      atomic.Uint64
	collisions atomic.Uint64
}

func (w *world) emitStep(st physics.BodyState, tick uint64) {
	if w.diag == nil {
		return
	}
	w.diag.Emitf("tick=%d body=%d color=%s pos=%s vel=%s", tick, st.ID, st.Color, st.Position, st.Velocity)
}

// sharedClock steps every body and resolves every pair under one lock per tick.
type sharedClock struct {
	w      *world
	period time.Duration

	mu   sync.RWMutex
	tick uint64

	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

func newSharedClock(w *world, period time.Duration) *sharedClock {
	ctx, cancel := context.WithCancel(context.Background())
	return &sharedClock{
		w:      w,
		period: period,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

func (c *sharedClock) attach([]*Body) {
	c.once.Do(func() { go c.run() })
}

func (c *sharedClock) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.period)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.advance(); err != nil {
				c.err = err
				c.w.log.Error("shared clock stopped", zap.Error(err))
				return
			}
		}
	}
}

// advance runs one tick. Notifications go out after the critical section.
func (c *sharedClock) advance() (err error) {
	tick, bodies, states, err := c.critical()
	if err != nil {
		return err
	}
	defer recoverFault(-1, &tick, &err)

	for i, b := range bodies {
		b.notify(states[i].Position)
		c.w.emitStep(states[i], tick)
	}
	c.w.steps.Add(uint64(len(bodies)))
	return nil
}

func (c *sharedClock) critical() (tick uint64, bodies []*Body, states []physics.BodyState, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tick++
	tick = c.tick
	defer recoverFault(-1, &tick, &err)

	bodies = c.w.set.All()
	states = make([]physics.BodyState, len(bodies))
	for i, b := range bodies {
		st, _, serr := b.step(c.w.bounds)
		if serr != nil {
			return tick, nil, nil, &FaultError{BodyID: b.id, Tick: tick, Wrapped: serr}
		}
		states[i] = st
	}
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			if resolvePair(bodies[i], bodies[j], c.w.contacts) {
				c.w.collisions.Add(1)
			}
		}
	}
	return tick, bodies, states, nil
}

func (c *sharedClock) stop() error {
	c.cancel()
	c.once.Do(func() { close(c.done) })
	<-c.done
	return c.err
}

// snapshot reads every body between two ticks.
func (c *sharedClock) snapshot() []physics.BodyState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	bodies := c.w.set.All()
	out := make([]physics.BodyState, len(bodies))
	for i, b := range bodies {
		out[i] = b.State()
	}
	return out
}
