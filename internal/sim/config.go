package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/ballpit/internal/physics"
)

// Strategy selects how bodies are driven.
type Strategy string

const (
	SharedClock Strategy = "shared"
	PerBody     Strategy = "per_body"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case SharedClock, PerBody:
		return Strategy(s), nil
	case "":
		return SharedClock, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q (want %q or %q)", ErrInvalidArgument, s, SharedClock, PerBody)
	}
}

type Config struct {
	Arena         physics.Arena
	Radius        float64
	MinSeparation float64
	Inset         float64
	MaxSpeed      float64
	MaxAttempts   int
	Strategy      Strategy
	Tick          time.Duration
	// Jitter adds up to this much to each per-body driver's interval.
	Jitter time.Duration
	// Seed feeds spawning and jitter. Zero picks one from the clock.
	Seed uint64
}

func DefaultConfig() Config {
	return Config{
		Arena:         physics.Arena{Width: 400, Height: 400},
		Radius:        10,
		MinSeparation: 20,
		Inset:         100,
		MaxSpeed:      3,
		MaxAttempts:   physics.DefaultMaxAttempts,
		Strategy:      SharedClock,
		Tick:          100 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	if _, err := ParseStrategy(string(c.Strategy)); err != nil {
		return err
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive, got %s", ErrInvalidArgument, c.Tick)
	}
	if c.Jitter < 0 {
		return fmt.Errorf("%w: jitter must not be negative, got %s", ErrInvalidArgument, c.Jitter)
	}
	if err := c.spawnParams(0).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return nil
}

func (c Config) spawnParams(count int) physics.SpawnParams {
	return physics.SpawnParams{
		Count:         count,
		Arena:         c.Arena,
		Radius:        c.Radius,
		MinSeparation: c.MinSeparation,
		Inset:         c.Inset,
		MaxSpeed:      c.MaxSpeed,
		MaxAttempts:   c.MaxAttempts,
	}
}
