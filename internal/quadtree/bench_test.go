package quadtree

import (
	"math/rand/v2"
	"testing"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/vec"
)

func randomEntities(n int) []body.Entity {
	r := rand.New(rand.NewPCG(42, 0))
	es := make([]body.Entity, n)
	for i := range es {
		es[i] = body.Entity{Position: vec.Random(r).Scale(500), Mass: 1}
	}
	return es
}

func BenchmarkRebuild500(b *testing.B) {
	es := randomEntities(500)
	box := NewBox(vec.Zero, 1000, 1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		t := New(box, DefaultCapacity)
		for j := range es {
			t.Insert(&es[j])
		}
	}
}

func BenchmarkQuery500(b *testing.B) {
	es := randomEntities(500)
	t := New(NewBox(vec.Zero, 1000, 1000), DefaultCapacity)
	for j := range es {
		t.Insert(&es[j])
	}
	buf := make([]Item, 0, 64)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf = t.QueryInto(Around(es[i%len(es)].Position, 50), buf[:0])
	}
}
