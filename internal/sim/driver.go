package sim

import (
	"context"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/ballpit/internal/physics"
)

// perBody runs one driver goroutine per body. A driver owns its body's motion and
// shares pair resolution with every other driver through the pair locks.
type perBody struct {
	w      *world
	period time.Duration
	jitter time.Duration
	seed   uint64

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

func newPerBody(w *world, period, jitter time.Duration, seed uint64) *perBody {
	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	return &perBody{
		w:      w,
		period: period,
		jitter: jitter,
		seed:   seed,
		group:  g,
		ctx:    gctx,
		cancel: cancel,
	}
}

func (p *perBody) attach(bodies []*Body) {
	for _, b := range bodies {
		interval := p.interval(b.id)
		p.group.Go(func() error { return p.drive(b, interval) })
	}
}

func (p *perBody) interval(id int) time.Duration {
	if p.jitter <= 0 {
		return p.period
	}
	rng := rand.New(rand.NewPCG(p.seed, uint64(id)))
	return p.period + time.Duration(rng.Int64N(int64(p.jitter)+1))
}

// drive loops until the group context is canceled. A returned error cancels the
// group, stopping every other driver.
func (p *perBody) drive(b *Body, interval time.Duration) (err error) {
	var tick uint64
	defer recoverFault(b.id, &tick, &err)

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return nil
		case <-timer.C:
		}

		st, n, serr := b.step(p.w.bounds)
		tick = n
		if serr != nil {
			return &FaultError{BodyID: b.id, Tick: n, Wrapped: serr}
		}
		for _, other := range p.w.set.All() {
			if other != b && resolvePair(b, other, p.w.contacts) {
				p.w.collisions.Add(1)
			}
		}
		b.notify(st.Position)
		p.w.emitStep(st, n)
		p.w.steps.Add(1)

		timer.Reset(interval)
	}
}

func (p *perBody) stop() error {
	p.cancel()
	return p.group.Wait()
}

// snapshot locks every body in id order so no driver is mid-update.
func (p *perBody) snapshot() []physics.BodyState {
	bodies := p.w.set.All()
	unlock := lockAll(bodies)
	defer unlock()
	out := make([]physics.BodyState, len(bodies))
	for i, b := range bodies {
		out[i] = b.stateLocked()
	}
	return out
}
