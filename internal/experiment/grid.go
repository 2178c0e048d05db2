package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/ballpit/internal/sim"
)

// Params lists the names a grid or scenario may set.
var Params = []string{"bodies", "radius", "max_speed", "min_separation", "inset", "tick_ms", "jitter_ms"}

// Apply returns cfg with the named parameters overridden.
func Apply(cfg Config, params map[string]float64) (Config, error) {
	for name, v := range params {
		switch name {
		case "bodies":
			if v != math.Trunc(v) {
				return cfg, fmt.Errorf("%w: bodies must be a whole number, got %g", ErrInvalidConfig, v)
			}
			cfg.Count = int(v)
		case "radius":
			cfg.Engine.Radius = v
		case "max_speed":
			cfg.Engine.MaxSpeed = v
		case "min_separation":
			cfg.Engine.MinSeparation = v
		case "inset":
			cfg.Engine.Inset = v
		case "tick_ms":
			cfg.Engine.Tick = time.Duration(v * float64(time.Millisecond))
		case "jitter_ms":
			cfg.Engine.Jitter = time.Duration(v * float64(time.Millisecond))
		default:
			return cfg, fmt.Errorf("%w: unknown parameter %q (known: %s)", ErrInvalidConfig, name, strings.Join(Params, ", "))
		}
	}
	return cfg, nil
}

// ParseGrid reads entries of the form "name=v1,v2,...".
func ParseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		name, list, ok := strings.Cut(entry, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("%w: grid entry %q, want name=v1,v2", ErrInvalidConfig, entry)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: grid entry %q: %w", ErrInvalidConfig, entry, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Point is one evaluated grid cell. Err is set when the cell could not run, for
// example because its bodies did not fit the arena.
type Point struct {
	Params map[string]float64
	Result *Result
	Err    error
}

// Search runs every combination in order and returns them all along with the one
// minimizing metricName. Cells that fail are kept with their error and never win.
// A simulation fault or a canceled ctx stops the search.
func (g *GridSearch) Search(ctx context.Context, base Config, metricName string, opts ...sim.Option) (Point, []Point, error) {
	var all []Point
	best := -1
	bestVal := math.Inf(1)

	var walk func(depth int, current map[string]float64) error
	walk = func(depth int, current map[string]float64) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if depth == len(g.paramNames) {
			p := Point{Params: current}
			cfg, err := Apply(base, current)
			if err == nil {
				p.Result, err = New(cfg, opts...).Run(ctx)
			}
			p.Err = err
			all = append(all, p)
			if err != nil {
				if isFatal(err) {
					return err
				}
				return nil
			}
			if v, ok := p.Result.Metrics[metricName]; ok && v < bestVal {
				bestVal, best = v, len(all)-1
			}
			return nil
		}

		name := g.paramNames[depth]
		for _, val := range g.ranges[depth] {
			next := make(map[string]float64, len(current)+1)
			for k, v := range current {
				next[k] = v
			}
			next[name] = val
			if err := walk(depth+1, next); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(0, map[string]float64{}); err != nil {
		return Point{}, all, err
	}
	if best < 0 {
		return Point{}, all, fmt.Errorf("experiment: no grid cell produced metric %q", metricName)
	}
	return all[best], all, nil
}

func isFatal(err error) bool {
	return errors.Is(err, sim.ErrSimulationFault) || errors.Is(err, context.Canceled)
}

// SortedKeys returns the parameter names of p in a stable order for display.
func (p Point) SortedKeys() []string {
	keys := make([]string, 0, len(p.Params))
	for k := range p.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
