package metrics

import "github.com/san-kum/partsim/internal/sim"

// KineticEnergy is the total 1/2 m v^2 over all entities at the last
// observed step.
type KineticEnergy struct {
	name  string
	value float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(f sim.Frame) {
	total := 0.0
	for _, e := range f.Entities {
		total += e.KineticEnergy()
	}
	k.value = total
}

func (k *KineticEnergy) Value() float64 { return k.value }

func (k *KineticEnergy) Reset() { k.value = 0 }

type MeanSpeed struct {
	name  string
	value float64
}

func NewMeanSpeed() *MeanSpeed {
	return &MeanSpeed{name: "mean_speed"}
}

func (m *MeanSpeed) Name() string { return m.name }

func (m *MeanSpeed) Observe(f sim.Frame) {
	if len(f.Entities) == 0 {
		m.value = 0
		return
	}
	sum := 0.0
	for _, e := range f.Entities {
		sum += e.Speed()
	}
	m.value = sum / float64(len(f.Entities))
}

func (m *MeanSpeed) Value() float64 { return m.value }

func (m *MeanSpeed) Reset() { m.value = 0 }
