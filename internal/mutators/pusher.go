package mutators

import (
	"math"
	"sync"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/quadtree"
	"github.com/san-kum/partsim/internal/vec"
)

type PointerPusherOptions struct {
	Gravity       float64 `yaml:"gravity"`
	Mass          float64 `yaml:"mass"`
	DistanceRange Range   `yaml:"distance_range"`
}

func DefaultPointerPusherOptions() PointerPusherOptions {
	return PointerPusherOptions{
		Gravity:       -0.03,
		Mass:          1,
		DistanceRange: Range{1, 25},
	}
}

// PointerPusher is a body the host moves around, typically following a
// pointer. With negative gravity it pushes entities away. It does nothing
// until a position is set.
type PointerPusher struct {
	lifecycle
	law  Law
	mass float64

	mu       sync.RWMutex
	position vec.Vec2
	active   bool
}

func NewPointerPusher(opts PointerPusherOptions) (*PointerPusher, error) {
	law := Law{Gravity: opts.Gravity, DistanceRange: opts.DistanceRange}
	if err := law.validate(); err != nil {
		return nil, err
	}
	if err := positive("mass", opts.Mass); err != nil {
		return nil, err
	}
	return &PointerPusher{law: law, mass: opts.Mass}, nil
}

func (p *PointerPusher) Kind() Kind { return KindPointerPusher }

func (p *PointerPusher) SetPosition(pos vec.Vec2) {
	p.mu.Lock()
	p.position = pos
	p.active = true
	p.mu.Unlock()
}

func (p *PointerPusher) Clear() {
	p.mu.Lock()
	p.active = false
	p.mu.Unlock()
}

func (p *PointerPusher) current() (vec.Vec2, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.position, p.active
}

func (p *PointerPusher) ApplyEntity(e *body.Entity, idx *quadtree.Tree) {
	if p.destroyed {
		return
	}
	pos, ok := p.current()
	if !ok {
		return
	}
	p.law.Attract(pos, p.mass, e)
}

func (p *PointerPusher) Debug(sink DebugSink) {
	if pos, ok := p.current(); ok {
		sink.Circle(pos, math.Sqrt(p.law.DistanceRange.Max()), string(KindPointerPusher))
	}
}

func (p *PointerPusher) Destroy() {
	p.Clear()
	p.lifecycle.Destroy()
}
