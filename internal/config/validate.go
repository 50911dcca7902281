package config

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is wrapped by every ConfigError.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// ConfigError reports a malformed or out-of-range configuration value. It is
// fatal: a simulation is never started from a config that produced one.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

func finite(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func invalid(field, format string, args ...interface{}) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func (c *Config) Validate() error {
	if c.Steps < 0 {
		return invalid("steps", "must not be negative, got %d", c.Steps)
	}
	if c.Workers < 0 {
		return invalid("workers", "must not be negative, got %d", c.Workers)
	}
	if !(c.World.Width > 0 && c.World.Height > 0) || !finite(c.World.Width, c.World.Height) {
		return invalid("world", "extents must be positive, got %gx%g", c.World.Width, c.World.Height)
	}
	if c.Index.Capacity < 1 {
		return invalid("index.capacity", "must be at least 1, got %d", c.Index.Capacity)
	}
	if c.Index.MaxDepth < 0 {
		return invalid("index.max_depth", "must not be negative, got %d", c.Index.MaxDepth)
	}
	if err := c.Entities.validate(); err != nil {
		return err
	}
	for i, m := range c.Mutators {
		if m.Kind == "" {
			return invalid(fmt.Sprintf("mutators[%d].kind", i), "missing")
		}
	}
	return nil
}

func (e *EntitiesConfig) validate() error {
	if e.Amount < 0 {
		return invalid("entities.amount", "must not be negative, got %d", e.Amount)
	}
	ranges := []struct {
		name string
		r    [2]float64
		min  float64
		open bool
	}{
		{"entities.velocity_magnitude", e.VelocityMagnitude, 0, false},
		{"entities.position_magnitude", e.PositionMagnitude, 0, false},
		{"entities.mass_range", e.MassRange, 0, true},
	}
	for _, rr := range ranges {
		if !finite(rr.r[0], rr.r[1]) {
			return invalid(rr.name, "must be finite, got [%g, %g]", rr.r[0], rr.r[1])
		}
		if rr.r[0] > rr.r[1] {
			return invalid(rr.name, "min %g greater than max %g", rr.r[0], rr.r[1])
		}
		if rr.open && rr.r[0] <= rr.min {
			return invalid(rr.name, "min must be greater than %g, got %g", rr.min, rr.r[0])
		}
		if !rr.open && rr.r[0] < rr.min {
			return invalid(rr.name, "min must be at least %g, got %g", rr.min, rr.r[0])
		}
	}
	for axis, d := range e.Drag {
		if !(d >= 0 && d < 1) {
			return invalid("entities.drag", "axis %d must lie in [0, 1), got %g", axis, d)
		}
	}
	if len(e.Palette) == 0 {
		return invalid("entities.palette", "must contain at least one colour")
	}
	if !(e.Alpha >= 0 && e.Alpha <= 1) {
		return invalid("entities.alpha", "must lie in [0, 1], got %g", e.Alpha)
	}
	return nil
}

// WrapMutatorError attaches the mutator's position in the list to err.
func WrapMutatorError(i int, kind string, err error) error {
	return &ConfigError{
		Field:  fmt.Sprintf("mutators[%d](%s)", i, kind),
		Reason: err.Error(),
	}
}
