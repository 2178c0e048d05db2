// Package experiment runs the engine headless for a fixed time and summarizes the
// result. On top of a single run it offers seed ensembles, parameter grid searches
// and YAML scenarios.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/ballpit/internal/metrics"
	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/sim"
)

var ErrInvalidConfig = errors.New("experiment: invalid config")

type Config struct {
	Engine   sim.Config
	Count    int
	Duration time.Duration
	// Sample is the snapshot interval.
	Sample time.Duration
}

func (c Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("%w: negative body count %d", ErrInvalidConfig, c.Count)
	}
	if c.Duration <= 0 || c.Sample <= 0 {
		return fmt.Errorf("%w: duration and sample interval must be positive", ErrInvalidConfig)
	}
	return c.Engine.Validate()
}

type Result struct {
	Seed    uint64             `json:"seed"`
	Samples int                `json:"samples"`
	Elapsed time.Duration      `json:"elapsed"`
	Stats   sim.Stats          `json:"stats"`
	Metrics map[string]float64 `json:"metrics"`
}

// FrameFunc receives every sampled snapshot. Returning an error ends the run.
type FrameFunc func(elapsed time.Duration, frame []physics.BodyState) error

type Experiment struct {
	cfg       Config
	opts      []sim.Option
	metrics   []metrics.Metric
	onFrame   FrameFunc
	onCreated sim.CreatedFunc
}

func New(cfg Config, opts ...sim.Option) *Experiment {
	return &Experiment{
		cfg:       cfg,
		opts:      opts,
		metrics:   metrics.Default(cfg.Engine.Arena),
		onCreated: func(physics.Vector, *sim.Body) {},
	}
}

func (e *Experiment) OnFrame(fn FrameFunc) { e.onFrame = fn }

func (e *Experiment) OnCreated(fn sim.CreatedFunc) {
	if fn != nil {
		e.onCreated = fn
	}
}

// AddMetric records m alongside the default metrics.
func (e *Experiment) AddMetric(m metrics.Metric) { e.metrics = append(e.metrics, m) }

// Run spawns the bodies, samples snapshots until the duration elapses or ctx ends,
// then disposes the engine. A partial Result is returned together with any
// sampling or simulation fault.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	eng, err := sim.New(e.cfg.Engine, e.opts...)
	if err != nil {
		return nil, err
	}
	if err := eng.Start(e.cfg.Count, e.onCreated); err != nil {
		return nil, errors.Join(err, eng.Dispose())
	}

	for _, m := range e.metrics {
		m.Reset()
	}
	res := &Result{Seed: eng.Config().Seed}
	sampleErr := e.sample(ctx, eng, res)

	runErr := eng.Dispose()
	res.Stats = eng.Stats()
	res.Metrics = make(map[string]float64, len(e.metrics))
	for _, m := range e.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	return res, errors.Join(sampleErr, runErr)
}

func (e *Experiment) sample(ctx context.Context, eng *sim.Engine, res *Result) error {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Duration)
	defer cancel()

	ticker := time.NewTicker(e.cfg.Sample)
	defer ticker.Stop()

	start := time.Now()
	capture := func() error {
		frame, err := eng.Snapshot()
		if err != nil {
			return err
		}
		t := time.Since(start)
		res.Samples++
		res.Elapsed = t
		for _, m := range e.metrics {
			m.Observe(frame, t)
		}
		if e.onFrame != nil {
			return e.onFrame(t, frame)
		}
		return nil
	}

	if err := capture(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return capture()
		case <-ticker.C:
			if err := capture(); err != nil {
				return err
			}
		}
	}
}
