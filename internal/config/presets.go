package config

import (
	"sort"
	"time"

	"github.com/san-kum/ballpit/internal/sim"
)

var Presets = map[string]func(*Config){
	"sparse": func(c *Config) {
		c.Spawn.Count = 5
		c.Body.MaxSpeed = 2
	},
	"crowded": func(c *Config) {
		c.Spawn.Count = 60
		c.Spawn.Inset = 20
		c.Body.MaxSpeed = 2
	},
	"gas": func(c *Config) {
		c.Spawn.Count = 30
		c.Spawn.Inset = 20
		c.Body.Radius = 5
		c.Spawn.MinSeparation = 12
		c.Body.MaxSpeed = 8
		c.Schedule.Strategy = string(sim.PerBody)
		c.Schedule.Tick = 20 * time.Millisecond
		c.Schedule.Jitter = 5 * time.Millisecond
	},
	"still": func(c *Config) {
		c.Body.MaxSpeed = 0
	},
}

// GetPreset returns a fresh config with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
