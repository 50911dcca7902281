package sim

import (
	"math"
	"math/rand/v2"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/quadtree"
	"github.com/san-kum/partsim/internal/vec"
)

// NewRand returns the generator used for entity setup. The same seed always
// yields the same sequence.
func NewRand(seed int64) *rand.Rand {
	s := uint64(seed)
	return rand.New(rand.NewPCG(s, s^0x9e3779b97f4a7c15))
}

// World returns the world box for cfg, centred on the origin.
func World(cfg config.WorldConfig) quadtree.Box {
	return quadtree.NewBox(vec.Zero, cfg.Width, cfg.Height)
}

// Populate creates the initial entity set. Each entity starts on a random
// heading at a distance drawn from PositionMagnitude, moving tangentially at a
// speed drawn from VelocityMagnitude.
func Populate(cfg config.EntitiesConfig, r *rand.Rand) []*body.Entity {
	entities := make([]*body.Entity, cfg.Amount)
	for i := range entities {
		dir := heading(r)
		e := &body.Entity{
			Position:    dir.Scale(uniform(r, cfg.PositionMagnitude)),
			Velocity:    dir.Scale(uniform(r, cfg.VelocityMagnitude)).Rotate(math.Pi / 2),
			Mass:        uniform(r, cfg.MassRange),
			Drag:        body.Drag{X: cfg.Drag[0], Y: cfg.Drag[1]},
			Tag:         cfg.Palette[r.IntN(len(cfg.Palette))],
			Opacity:     cfg.Alpha,
			BaseOpacity: cfg.Alpha,
		}
		entities[i] = e
	}
	return entities
}

func heading(r *rand.Rand) vec.Vec2 {
	for {
		d, err := vec.Random(r).Normalize()
		if err == nil {
			return d
		}
	}
}

func uniform(r *rand.Rand, rng [2]float64) float64 {
	return rng[0] + r.Float64()*(rng[1]-rng[0])
}
