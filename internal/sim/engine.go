package sim

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/ballpit/internal/diag"
	"github.com/san-kum/ballpit/internal/physics"
)

// CreatedFunc is told about each body before any driver can move it.
type CreatedFunc func(pos physics.Vector, b *Body)

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDiagnostics hands the sink to the engine, which closes it on Dispose after
// every driver has stopped.
func WithDiagnostics(s *diag.Sink) Option {
	return func(e *Engine) { e.diag = s }
}

// WithPositionObserver subscribes fn to every body the engine spawns.
func WithPositionObserver(fn PositionFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

type Stats struct {
	Bodies         int    `json:"bodies"`
	Steps          uint64 `json:"steps"`
	Collisions     uint64 `json:"collisions"`
	ActiveContacts int    `json:"active_contacts"`
	DiagWritten    uint64 `json:"diag_written"`
	DiagDropped    uint64 `json:"diag_dropped"`
}

// Engine owns the simulation set and its scheduler.
type Engine struct {
	cfg       Config
	log       *zap.Logger
	diag      *diag.Sink
	observers []PositionFunc
	world     *world
	sched     scheduler

	// mu serializes Start and Dispose. Readers use the atomics so a creation
	// callback may inspect the engine.
	mu       sync.Mutex
	disposed atomic.Bool
	final    atomic.Pointer[Stats]
	spawns   uint64
}

// New validates cfg and prepares an idle engine. No goroutine runs until the first
// successful Start.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Strategy == "" {
		cfg.Strategy = SharedClock
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	e := &Engine{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}

	e.world = &world{
		set:      &Set{},
		contacts: newContactTracker(),
		bounds:   cfg.Arena.Bounds(),
		log:      e.log,
		diag:     e.diag,
	}
	switch cfg.Strategy {
	case PerBody:
		e.sched = newPerBody(e.world, cfg.Tick, cfg.Jitter, cfg.Seed)
	default:
		e.sched = newSharedClock(e.world, cfg.Tick)
	}

	e.log.Info("engine created",
		zap.String("strategy", string(cfg.Strategy)),
		zap.Duration("tick", cfg.Tick),
		zap.Uint64("seed", cfg.Seed),
		zap.Float64("width", cfg.Arena.Width),
		zap.Float64("height", cfg.Arena.Height),
	)
	return e, nil
}

func (e *Engine) Config() Config { return e.cfg }

// Start spawns count more bodies and sets them moving. Placement happens first
// and either succeeds for every body or fails with ErrSpawnInfeasible before any
// callback runs. onCreated then sees each body before it joins the set.
// onCreated may call Snapshot, Stats or Disposed but must not call Start or
// Dispose.
func (e *Engine) Start(count int, onCreated CreatedFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed.Load() {
		return ErrAlreadyDisposed
	}
	if onCreated == nil {
		return fmt.Errorf("%w: nil creation callback", ErrInvalidArgument)
	}
	if count < 0 {
		return fmt.Errorf("%w: negative body count %d", ErrInvalidArgument, count)
	}
	if count == 0 {
		return nil
	}

	current := e.world.set.All()
	existing := make([]physics.Vector, len(current))
	for i, b := range current {
		existing[i] = b.Position()
	}

	rng := rand.New(rand.NewPCG(e.cfg.Seed, e.spawns))
	e.spawns++
	placed, err := physics.Spawn(e.cfg.spawnParams(count), rng, existing)
	if err != nil {
		e.log.Warn("spawn failed", zap.Int("count", count), zap.Int("existing", len(existing)), zap.Error(err))
		return fmt.Errorf("start %d bodies: %w", count, err)
	}

	bodies := make([]*Body, 0, count)
	for i, p := range placed {
		b := NewBody(len(current)+i, e.cfg.Radius, p.Color, p.Position, p.Velocity)
		for _, fn := range e.observers {
			b.Subscribe(fn)
		}
		onCreated(p.Position, b)
		e.world.set.add(b)
		bodies = append(bodies, b)
	}
	e.sched.attach(bodies)

	e.log.Info("bodies spawned", zap.Int("count", count), zap.Int("total", e.world.set.Len()))
	return nil
}

// Dispose stops every driver, waits for them, releases the simulation set and then
// closes the diagnostics sink. A second call returns ErrAlreadyDisposed. A driver
// fault recorded during the run is returned wrapped in ErrSimulationFault.
func (e *Engine) Dispose() error {
	e.mu.Lock()
	if e.disposed.Load() {
		e.mu.Unlock()
		return ErrAlreadyDisposed
	}
	e.disposed.Store(true)
	e.mu.Unlock()

	err := e.sched.stop()
	st := e.Stats()
	e.world.set.release()

	if e.diag != nil {
		if cerr := e.diag.Close(); cerr != nil {
			e.log.Warn("diagnostics close failed", zap.Error(cerr))
		}
		st.DiagWritten, st.DiagDropped = e.diag.Written(), e.diag.Dropped()
	}
	e.final.Store(&st)

	e.log.Info("engine disposed",
		zap.Int("bodies", st.Bodies),
		zap.Uint64("steps", st.Steps),
		zap.Uint64("collisions", st.Collisions),
		zap.Uint64("diag_written", st.DiagWritten),
		zap.Uint64("diag_dropped", st.DiagDropped),
	)
	if err != nil {
		e.log.Error("simulation fault", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSimulationFault, err)
	}
	return nil
}

// Snapshot returns a consistent copy of every body.
func (e *Engine) Snapshot() ([]physics.BodyState, error) {
	if e.Disposed() {
		return nil, ErrAlreadyDisposed
	}
	return e.sched.snapshot(), nil
}

// Stats reports live counters. After Dispose it returns the counters taken as
// the engine stopped, including the body count before the set was released.
func (e *Engine) Stats() Stats {
	if final := e.final.Load(); final != nil {
		return *final
	}
	st := Stats{
		Bodies:         e.world.set.Len(),
		Steps:          e.world.steps.Load(),
		Collisions:     e.world.collisions.Load(),
		ActiveContacts: e.world.contacts.len(),
	}
	if e.diag != nil {
		st.DiagWritten, st.DiagDropped = e.diag.Written(), e.diag.Dropped()
	}
	return st
}

// Bodies returns the live simulation set; empty after Dispose.
func (e *Engine) Bodies() []*Body { return e.world.set.All() }

func (e *Engine) Len() int { return e.world.set.Len() }

func (e *Engine) Disposed() bool { return e.disposed.Load() }
