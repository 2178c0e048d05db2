package experiment

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/ballpit/internal/sim"
)

// Ensemble repeats one configuration over consecutive seeds. Options are shared by
// every run, so they must not carry a diagnostics sink.
type Ensemble struct {
	base      Config
	numRuns   int
	seedStart uint64
	parallel  int
	opts      []sim.Option
}

func NewEnsemble(base Config, numRuns int, seedStart uint64, opts ...sim.Option) *Ensemble {
	if seedStart == 0 {
		seedStart = 1
	}
	return &Ensemble{
		base:      base,
		numRuns:   numRuns,
		seedStart: seedStart,
		parallel:  runtime.GOMAXPROCS(0),
		opts:      opts,
	}
}

// SetParallelism caps how many runs execute at once.
func (e *Ensemble) SetParallelism(n int) {
	if n > 0 {
		e.parallel = n
	}
}

// Run executes every run and returns results in seed order. The first failure
// cancels the runs still in flight.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfg := e.base
			cfg.Engine.Seed = e.seedStart + uint64(i)
			res, err := New(cfg, e.opts...).Run(gctx)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summary is the mean and spread of each metric across results.
type Summary struct {
	Mean map[string]float64
	Min  map[string]float64
	Max  map[string]float64
}

func Summarize(results []*Result) Summary {
	s := Summary{
		Mean: map[string]float64{},
		Min:  map[string]float64{},
		Max:  map[string]float64{},
	}
	n := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		n++
		for name, v := range r.Metrics {
			s.Mean[name] += v
			if cur, ok := s.Min[name]; !ok || v < cur {
				s.Min[name] = v
			}
			if cur, ok := s.Max[name]; !ok || v > cur {
				s.Max[name] = v
			}
		}
	}
	for name := range s.Mean {
		s.Mean[name] /= float64(n)
	}
	return s
}
