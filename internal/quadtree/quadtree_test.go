package quadtree_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/quadtree"
	"github.com/san-kum/partsim/internal/vec"
)

func entityAt(x, y float64) *body.Entity {
	return &body.Entity{Position: vec.New(x, y), Mass: 1}
}

func rootOf(t *quadtree.Tree) quadtree.NodeInfo {
	var info quadtree.NodeInfo
	t.Walk(func(n quadtree.NodeInfo) bool {
		info = n
		return false
	})
	return info
}

var _ = Describe("Box", func() {
	box := quadtree.NewBox(vec.Zero, 100, 50)

	DescribeTable("Contains",
		func(x, y float64, inside bool) {
			Expect(box.Contains(vec.New(x, y))).To(Equal(inside))
		},
		Entry("center", 0.0, 0.0, true),
		Entry("corner is inclusive", 50.0, 25.0, true),
		Entry("right of box", 50.1, 0.0, false),
		Entry("below box", 0.0, -25.1, false),
	)

	DescribeTable("Intersects",
		func(other quadtree.Box, overlap bool) {
			Expect(box.Intersects(other)).To(Equal(overlap))
			Expect(other.Intersects(box)).To(Equal(overlap))
		},
		Entry("overlapping", quadtree.NewBox(vec.New(40, 0), 40, 40), true),
		Entry("touching edge", quadtree.NewBox(vec.New(60, 0), 20, 20), true),
		Entry("disjoint", quadtree.NewBox(vec.New(100, 100), 10, 10), false),
		Entry("enclosed", quadtree.NewBox(vec.New(1, 1), 2, 2), true),
	)

	It("converts to corner bounds and back", func() {
		bb := box.Bounds()
		Expect(bb.Min.X).To(Equal(-50.0))
		Expect(bb.Max.Y).To(Equal(25.0))
		Expect(quadtree.FromBounds(bb)).To(Equal(box))
	})
})

var _ = Describe("Tree", func() {
	var tree *quadtree.Tree

	BeforeEach(func() {
		tree = quadtree.New(quadtree.NewBox(vec.Zero, 200, 200), 4)
	})

	Describe("Insert", func() {
		It("accepts points inside the boundary", func() {
			Expect(tree.Insert(entityAt(10, -20))).To(BeTrue())
			Expect(tree.Insert(entityAt(100, 100))).To(BeTrue())
			Expect(tree.Len()).To(Equal(2))
		})

		It("rejects points outside the boundary without changing the tree", func() {
			Expect(tree.Insert(entityAt(1, 1))).To(BeTrue())
			Expect(tree.Insert(entityAt(101, 0))).To(BeFalse())
			Expect(tree.Len()).To(Equal(1))
		})

		It("subdivides once capacity is exceeded", func() {
			points := [][2]float64{{-50, -50}, {50, -50}, {-50, 50}, {50, 50}, {10, 10}}
			for _, p := range points {
				Expect(tree.Insert(entityAt(p[0], p[1]))).To(BeTrue())
			}

			root := rootOf(tree)
			Expect(root.Leaf).To(BeFalse())
			Expect(root.Items).To(BeZero())

			children := 0
			held := 0
			tree.Walk(func(n quadtree.NodeInfo) bool {
				if n.Depth == 1 {
					children++
				}
				held += n.Items
				return true
			})
			Expect(children).To(Equal(4))
			Expect(held).To(Equal(5))
		})

		It("stays a leaf at capacity", func() {
			for i := 0; i < 4; i++ {
				tree.Insert(entityAt(float64(i), 0))
			}
			root := rootOf(tree)
			Expect(root.Leaf).To(BeTrue())
			Expect(root.Items).To(Equal(4))
		})

		It("splits into four equal quadrants", func() {
			for _, p := range [][2]float64{{-50, -50}, {50, -50}, {-50, 50}, {50, 50}, {10, 10}} {
				tree.Insert(entityAt(p[0], p[1]))
			}

			var quads []quadtree.Box
			tree.Walk(func(n quadtree.NodeInfo) bool {
				if n.Depth == 1 {
					quads = append(quads, n.Box)
				}
				return true
			})
			Expect(quads).To(HaveLen(4))
			Expect(quads[0].Center).To(Equal(vec.New(-50, -50)))
			Expect(quads[1].Center).To(Equal(vec.New(50, -50)))
			Expect(quads[2].Center).To(Equal(vec.New(-50, 50)))
			Expect(quads[3].Center).To(Equal(vec.New(50, 50)))
			for _, q := range quads {
				Expect(q.Width).To(Equal(100.0))
				Expect(q.Height).To(Equal(100.0))
			}
		})

		DescribeTable("keeps every corner and edge point of awkward boundaries",
			func(cx, cy, w, h float64) {
				b := quadtree.NewBox(vec.New(cx, cy), w, h)
				small := quadtree.New(b, 1)
				lo, hi := b.Min(), b.Max()
				points := []vec.Vec2{
					lo, hi,
					vec.New(lo.X, hi.Y), vec.New(hi.X, lo.Y),
					b.Center,
					vec.New(b.Center.X, lo.Y), vec.New(b.Center.X, hi.Y),
					vec.New(lo.X, b.Center.Y), vec.New(hi.X, b.Center.Y),
				}
				for _, p := range points {
					Expect(b.Contains(p)).To(BeTrue())
					Expect(small.Insert(entityAt(p.X, p.Y))).To(BeTrue(), "insert %v", p)
				}
				Expect(small.Len()).To(Equal(len(points)))
				Expect(small.All()).To(HaveLen(len(points)))
				for _, p := range points {
					Expect(small.Query(quadtree.Around(p, 0))).NotTo(BeEmpty(), "query %v", p)
				}
			},
			Entry("width 0.3", 0.1, 0.7, 0.3, 0.3),
			Entry("width 1.1", 0.1, 0.7, 1.1, 1.1),
			Entry("width 0.7", 0.1, 0.7, 0.7, 0.7),
			Entry("width 3.3 height 0.9", -2.3, 0.1, 3.3, 0.9),
			Entry("tiny offset box", 1e9+0.1, -0.3, 0.1, 0.7),
		)

		It("keeps a dense grid with non-binary extents", func() {
			b := quadtree.NewBox(vec.New(0.1, 0.7), 0.3, 0.3)
			dense := quadtree.New(b, 1)
			lo := b.Min()
			n := 0
			for i := 0; i <= 30; i++ {
				for j := 0; j <= 30; j++ {
					p := vec.New(lo.X+float64(i)*b.Width/30, lo.Y+float64(j)*b.Height/30)
					if !b.Contains(p) {
						continue
					}
					Expect(dense.Insert(entityAt(p.X, p.Y))).To(BeTrue())
					n++
				}
			}
			Expect(dense.Len()).To(Equal(n))
			Expect(dense.All()).To(HaveLen(n))
		})

		It("stops splitting at max depth when positions coincide", func() {
			shallow := quadtree.New(quadtree.NewBox(vec.Zero, 200, 200), 2, quadtree.WithMaxDepth(5))
			for i := 0; i < 50; i++ {
				Expect(shallow.Insert(entityAt(7, 7))).To(BeTrue())
			}
			Expect(shallow.Len()).To(Equal(50))

			deepest := 0
			overfull := false
			shallow.Walk(func(n quadtree.NodeInfo) bool {
				if n.Depth > deepest {
					deepest = n.Depth
				}
				if n.Items > 2 {
					overfull = true
				}
				return true
			})
			Expect(deepest).To(Equal(5))
			Expect(overfull).To(BeTrue())
		})
	})

	Describe("Query", func() {
		It("returns exactly the points inside the window", func() {
			inside := [][2]float64{{1, 1}, {-3, 4}, {5, -5}, {0, 0}, {9, 9}}
			outside := [][2]float64{{50, 50}, {-80, 20}, {99, -99}, {30, 0}, {0, -40}, {-60, -60}}
			for _, p := range inside {
				tree.Insert(entityAt(p[0], p[1]))
			}
			for _, p := range outside {
				tree.Insert(entityAt(p[0], p[1]))
			}

			got := tree.Query(quadtree.Around(vec.Zero, 10))
			Expect(got).To(HaveLen(len(inside)))

			var positions []vec.Vec2
			for _, it := range got {
				positions = append(positions, it.Position)
			}
			for _, p := range inside {
				Expect(positions).To(ContainElement(vec.New(p[0], p[1])))
			}
		})

		It("returns nothing for a window outside the boundary", func() {
			tree.Insert(entityAt(0, 0))
			Expect(tree.Query(quadtree.Around(vec.New(500, 500), 10))).To(BeEmpty())
		})

		It("reports frozen positions even after the entity moves", func() {
			e := entityAt(5, 5)
			tree.Insert(e)
			e.Position = vec.New(90, 90)

			got := tree.Query(quadtree.Around(vec.New(5, 5), 1))
			Expect(got).To(HaveLen(1))
			Expect(got[0].Entity).To(BeIdenticalTo(e))
			Expect(got[0].Position).To(Equal(vec.New(5, 5)))
		})

		It("returns every item from All", func() {
			for i := 0; i < 40; i++ {
				tree.Insert(entityAt(float64(i*4-80), float64(80-i*4)))
			}
			Expect(tree.All()).To(HaveLen(40))
		})
	})
})

var _ = Describe("IndexError", func() {
	It("unwraps to ErrOutOfBounds", func() {
		var err error = &quadtree.IndexError{Position: vec.New(1, 2)}
		Expect(errors.Is(err, quadtree.ErrOutOfBounds)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("outside index boundary"))
	})
})
