package experiment

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ballpit/internal/config"
	"github.com/san-kum/ballpit/internal/sim"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step starts from a preset (or the defaults), applies Params and runs Runs seeds.
type Step struct {
	Name     string             `yaml:"name"`
	Preset   string             `yaml:"preset"`
	Strategy string             `yaml:"strategy"`
	Duration time.Duration      `yaml:"duration"`
	Sample   time.Duration      `yaml:"sample"`
	Runs     int                `yaml:"runs"`
	Seed     uint64             `yaml:"seed"`
	Params   map[string]float64 `yaml:"params"`
}

type StepResult struct {
	Step    Step
	Results []*Result
	Summary Summary
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("experiment: parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %q has no steps", ErrInvalidConfig, scenario.Name)
	}
	return &scenario, nil
}

// Config resolves the step into a run configuration.
func (s Step) Config() (Config, error) {
	base := config.DefaultConfig()
	if s.Preset != "" {
		base = config.GetPreset(s.Preset)
		if base == nil {
			return Config{}, fmt.Errorf("%w: unknown preset %q", ErrInvalidConfig, s.Preset)
		}
	}
	if s.Strategy != "" {
		base.Schedule.Strategy = s.Strategy
	}
	cfg := Config{
		Engine:   base.Engine(),
		Count:    base.Spawn.Count,
		Duration: s.Duration,
		Sample:   s.Sample,
	}
	if cfg.Duration == 0 {
		cfg.Duration = 2 * time.Second
	}
	if cfg.Sample == 0 {
		cfg.Sample = 100 * time.Millisecond
	}
	cfg, err := Apply(cfg, s.Params)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// RunScenario executes the steps in order and stops at the first failing step.
func RunScenario(ctx context.Context, scenario *Scenario, log *zap.Logger, opts ...sim.Option) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.Info("scenario step",
			zap.String("scenario", scenario.Name),
			zap.Int("step", i+1),
			zap.Int("of", len(scenario.Steps)),
			zap.String("name", step.Name),
		)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		runs := max(step.Runs, 1)
		res, err := NewEnsemble(cfg, runs, step.Seed, opts...).Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, StepResult{Step: step, Results: res, Summary: Summarize(res)})
	}

	return results, nil
}
