package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/ballpit/internal/diag"
	"github.com/san-kum/ballpit/internal/logging"
	"github.com/san-kum/ballpit/internal/physics"
	"github.com/san-kum/ballpit/internal/sim"
)

const (
	DefaultWidth         = 400.0
	DefaultHeight        = 400.0
	DefaultRadius        = 10.0
	DefaultMaxSpeed      = 3.0
	DefaultCount         = 10
	DefaultMinSeparation = 20.0
	DefaultInset         = 100.0
	DefaultTick          = 100 * time.Millisecond
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Arena    ArenaConfig     `yaml:"arena" toml:"arena"`
	Body     BodyConfig      `yaml:"body" toml:"body"`
	Spawn    SpawnConfig     `yaml:"spawn" toml:"spawn"`
	Schedule ScheduleConfig  `yaml:"schedule" toml:"schedule"`
	Diag     DiagConfig      `yaml:"diag" toml:"diag"`
	Log      logging.Options `yaml:"log" toml:"log"`
}

type ArenaConfig struct {
	Width      float64 `yaml:"width" toml:"width"`
	Height     float64 `yaml:"height" toml:"height"`
	WallMargin float64 `yaml:"wall_margin" toml:"wall_margin"`
}

type BodyConfig struct {
	Radius   float64 `yaml:"radius" toml:"radius"`
	MaxSpeed float64 `yaml:"max_speed" toml:"max_speed"`
}

type SpawnConfig struct {
	Count         int     `yaml:"count" toml:"count"`
	MinSeparation float64 `yaml:"min_separation" toml:"min_separation"`
	Inset         float64 `yaml:"inset" toml:"inset"`
	MaxAttempts   int     `yaml:"max_attempts" toml:"max_attempts"`
	Seed          uint64  `yaml:"seed" toml:"seed"`
}

type ScheduleConfig struct {
	Strategy string        `yaml:"strategy" toml:"strategy"`
	Tick     time.Duration `yaml:"tick" toml:"tick"`
	Jitter   time.Duration `yaml:"jitter" toml:"jitter"`
}

type DiagConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Path      string `yaml:"path" toml:"path"`
	QueueSize int    `yaml:"queue_size" toml:"queue_size"`
}

func DefaultConfig() *Config {
	return &Config{
		Arena: ArenaConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
		},
		Body: BodyConfig{
			Radius:   DefaultRadius,
			MaxSpeed: DefaultMaxSpeed,
		},
		Spawn: SpawnConfig{
			Count:         DefaultCount,
			MinSeparation: DefaultMinSeparation,
			Inset:         DefaultInset,
			MaxAttempts:   physics.DefaultMaxAttempts,
		},
		Schedule: ScheduleConfig{
			Strategy: string(sim.SharedClock),
			Tick:     DefaultTick,
		},
		Diag: DiagConfig{
			QueueSize: diag.DefaultQueueSize,
		},
		Log: logging.DefaultOptions(),
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML (or, by extension, TOML) file over the defaults, so a file
// only needs the keys it changes.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if isTOML(path) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Spawn.Count < 0 {
		return fmt.Errorf("%w: spawn count must not be negative, got %d", ErrInvalid, c.Spawn.Count)
	}
	if c.Spawn.MaxAttempts < 0 {
		return fmt.Errorf("%w: max attempts must not be negative, got %d", ErrInvalid, c.Spawn.MaxAttempts)
	}
	if c.Diag.QueueSize < 0 {
		return fmt.Errorf("%w: diag queue size must not be negative, got %d", ErrInvalid, c.Diag.QueueSize)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Engine().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Engine converts the file layout into the engine's configuration.
func (c *Config) Engine() sim.Config {
	return sim.Config{
		Arena: physics.Arena{
			Width:      c.Arena.Width,
			Height:     c.Arena.Height,
			WallMargin: c.Arena.WallMargin,
		},
		Radius:        c.Body.Radius,
		MinSeparation: c.Spawn.MinSeparation,
		Inset:         c.Spawn.Inset,
		MaxSpeed:      c.Body.MaxSpeed,
		MaxAttempts:   c.Spawn.MaxAttempts,
		Strategy:      sim.Strategy(c.Schedule.Strategy),
		Tick:          c.Schedule.Tick,
		Jitter:        c.Schedule.Jitter,
		Seed:          c.Spawn.Seed,
	}
}

// DiagPath returns where diagnostics go, or "" when they are off.
func (c *Config) DiagPath(dir string) string {
	if !c.Diag.Enabled {
		return ""
	}
	if c.Diag.Path != "" {
		return c.Diag.Path
	}
	return filepath.Join(dir, "diag.log")
}
