package config

import (
	"sort"

	"github.com/san-kum/partsim/internal/mutators"
)

var Presets = map[string]func() *Config{
	"default": func() *Config {
		cfg := DefaultConfig()
		cfg.Mutators = []MutatorConfig{
			Mutator(string(mutators.KindFixedBodyAttractor), mutators.FixedBodyOptions{
				Mass: 500, Gravity: 0.05, DistanceRange: mutators.Range{10000, 20000},
			}),
			Mutator(string(mutators.KindGravity), mutators.GravityOptions{
				Gravity: 0.05, DistanceRange: mutators.Range{10000, 20000},
			}),
			Mutator(string(mutators.KindVelocityAlpha), mutators.DefaultVelocityAlphaOptions()),
		}
		return cfg
	},
	"galaxy": func() *Config {
		cfg := DefaultConfig()
		cfg.Entities.Amount = 200
		cfg.Entities.PositionMagnitude = [2]float64{50, 300}
		cfg.Entities.VelocityMagnitude = [2]float64{0.5, 1.5}
		cfg.Entities.MassRange = [2]float64{4, 40}
		cfg.Entities.Drag = Drag{0, 0}
		cfg.Entities.Palette = []string{"#ffffff", "#9ad1ff", "#ffd29a"}
		cfg.Mutators = []MutatorConfig{
			Mutator(string(mutators.KindFixedBodyAttractor), mutators.FixedBodyOptions{
				Mass: 2000, Gravity: 0.05, DistanceRange: mutators.Range{2500, 90000},
			}),
			Mutator(string(mutators.KindGravity), mutators.GravityOptions{
				Gravity: 0.01, DistanceRange: mutators.Range{25, 2500},
			}),
			Mutator(string(mutators.KindVelocityAlpha), mutators.VelocityAlphaOptions{
				Multiplier: 0.5, Range: mutators.Range{0.2, 1},
			}),
		}
		return cfg
	},
	"drift": func() *Config {
		cfg := DefaultConfig()
		cfg.Entities.Amount = 120
		cfg.Entities.PositionMagnitude = [2]float64{0, 400}
		cfg.Entities.MassRange = [2]float64{4, 25}
		cfg.Entities.Drag = Drag{0.05, 0.05}
		nd := mutators.DefaultNoiseDriftOptions()
		nd.Level = 4
		nd.TimeScale = 0.002
		cfg.Mutators = []MutatorConfig{
			Mutator(string(mutators.KindNoiseDrift), nd),
			Mutator(string(mutators.KindEdgeWrap), mutators.DefaultEdgeWrapOptions()),
			Mutator(string(mutators.KindVelocityAlpha), mutators.DefaultVelocityAlphaOptions()),
		}
		return cfg
	},
	"repulse": func() *Config {
		cfg := DefaultConfig()
		cfg.Entities.Amount = 80
		cfg.Entities.PositionMagnitude = [2]float64{0, 50}
		cfg.Entities.MassRange = [2]float64{9, 36}
		cfg.Mutators = []MutatorConfig{
			Mutator(string(mutators.KindGravity), mutators.GravityOptions{
				Gravity: -0.05, DistanceRange: mutators.Range{100, 10000},
			}),
			Mutator(string(mutators.KindEdgeWrap), mutators.DefaultEdgeWrapOptions()),
		}
		return cfg
	},
	"calm": func() *Config {
		cfg := DefaultConfig()
		cfg.Entities.VelocityMagnitude = [2]float64{0, 0}
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := fn()
	cfg.Name = name
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
