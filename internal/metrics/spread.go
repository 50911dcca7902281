package metrics

import (
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/vec"
)

// Spread is the mean distance of the entities from the origin.
type Spread struct {
	name  string
	value float64
}

func NewSpread() *Spread {
	return &Spread{name: "spread"}
}

func (s *Spread) Name() string { return s.name }

func (s *Spread) Observe(f sim.Frame) {
	if len(f.Entities) == 0 {
		s.value = 0
		return
	}
	sum := 0.0
	for _, e := range f.Entities {
		sum += e.Position.Distance(vec.Zero)
	}
	s.value = sum / float64(len(f.Entities))
}

func (s *Spread) Value() float64 { return s.value }

func (s *Spread) Reset() { s.value = 0 }

// Dropped counts entities left out of the index at the last step.
type Dropped struct {
	name  string
	value float64
}

func NewDropped() *Dropped {
	return &Dropped{name: "dropped"}
}

func (d *Dropped) Name() string { return d.name }

func (d *Dropped) Observe(f sim.Frame) { d.value = float64(f.Dropped) }

func (d *Dropped) Value() float64 { return d.value }

func (d *Dropped) Reset() { d.value = 0 }

// Default returns a fresh set of the standard metrics.
func Default() []sim.Metric {
	return []sim.Metric{
		NewKineticEnergy(),
		NewMeanSpeed(),
		NewSpread(),
		NewDropped(),
	}
}
