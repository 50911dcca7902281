package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSteps    = 600
	DefaultWidth    = 1280.0
	DefaultHeight   = 720.0
	DefaultAmount   = 20
	DefaultDrag     = 0.01
	DefaultAlpha    = 0.4
	DefaultCapacity = 4
	DefaultMaxDepth = 16
)

type Config struct {
	Name          string          `yaml:"name,omitempty"`
	Seed          int64           `yaml:"seed"`
	Steps         int             `yaml:"steps"`
	Workers       int             `yaml:"workers"`
	ValidateState bool            `yaml:"validate_state"`
	World         WorldConfig     `yaml:"world"`
	Entities      EntitiesConfig  `yaml:"entities"`
	Index         IndexConfig     `yaml:"index"`
	Mutators      []MutatorConfig `yaml:"mutators"`
}

type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type EntitiesConfig struct {
	Amount            int        `yaml:"amount"`
	VelocityMagnitude [2]float64 `yaml:"velocity_magnitude"`
	PositionMagnitude [2]float64 `yaml:"position_magnitude"`
	MassRange         [2]float64 `yaml:"mass_range"`
	Drag              Drag       `yaml:"drag"`
	Palette           []string   `yaml:"palette"`
	Alpha             float64    `yaml:"alpha"`
}

type IndexConfig struct {
	Capacity int `yaml:"capacity"`
	MaxDepth int `yaml:"max_depth"`
}

// MutatorConfig names a mutator kind; Params is decoded by that kind's
// constructor on top of its defaults.
type MutatorConfig struct {
	Kind   string    `yaml:"kind"`
	Params yaml.Node `yaml:"params,omitempty"`
}

// Drag is written either as a scalar applied to both axes or as [x, y].
type Drag [2]float64

func (d *Drag) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s float64
		if err := value.Decode(&s); err != nil {
			return err
		}
		*d = Drag{s, s}
		return nil
	}
	var v [2]float64
	if err := value.Decode(&v); err != nil {
		return fmt.Errorf("drag: expected scalar or [x, y]: %w", err)
	}
	*d = Drag(v)
	return nil
}

func (d Drag) MarshalYAML() (interface{}, error) {
	if d[0] == d[1] {
		return d[0], nil
	}
	return [2]float64(d), nil
}

func DefaultConfig() *Config {
	return &Config{
		Name:  "default",
		Steps: DefaultSteps,
		World: WorldConfig{Width: DefaultWidth, Height: DefaultHeight},
		Entities: EntitiesConfig{
			Amount:            DefaultAmount,
			VelocityMagnitude: [2]float64{0.1, 0.5},
			PositionMagnitude: [2]float64{100, 150},
			MassRange:         [2]float64{100, 300},
			Drag:              Drag{DefaultDrag, DefaultDrag},
			Palette:           []string{"#ffffff"},
			Alpha:             DefaultAlpha,
		},
		Index: IndexConfig{Capacity: DefaultCapacity, MaxDepth: DefaultMaxDepth},
	}
}

// Parse decodes YAML on top of DefaultConfig and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Name = ""
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Save(path string, cfg *Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Clone returns a deep copy via a YAML round trip.
func (c *Config) Clone() *Config {
	data, err := yaml.Marshal(c)
	if err != nil {
		panic(fmt.Sprintf("config: marshal: %v", err))
	}
	out := &Config{}
	if err := yaml.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("config: unmarshal: %v", err))
	}
	return out
}

// Mutator builds a MutatorConfig from a typed options value.
func Mutator(kind string, params interface{}) MutatorConfig {
	mc := MutatorConfig{Kind: kind}
	if params != nil {
		if err := mc.Params.Encode(params); err != nil {
			panic(fmt.Sprintf("config: encode %s params: %v", kind, err))
		}
	}
	return mc
}

// DecodeParams decodes m.Params into out; out should hold the defaults.
func (m MutatorConfig) DecodeParams(out interface{}) error {
	if m.Params.Kind == 0 {
		return nil
	}
	return m.Params.Decode(out)
}
