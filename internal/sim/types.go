package sim

import "github.com/san-kum/partsim/internal/body"

// State is the lifecycle phase of a Simulation.
type State int

const (
	// Constructed: entities and mutators exist, no index has been built.
	Constructed State = iota
	// Stepping: at least one step has started.
	Stepping
)

func (s State) String() string {
	switch s {
	case Constructed:
		return "constructed"
	case Stepping:
		return "stepping"
	}
	return "unknown"
}

// Frame is the post-step view handed to metrics and observers. Entities is
// the live collection and must be treated as read-only.
type Frame struct {
	Step     int
	Entities []*body.Entity
	Indexed  int
	Dropped  int
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(f Frame)
}
