// Package quadtree provides the region quadtree used to answer proximity
// queries over entity positions.
//
// A [Tree] is built from scratch every simulation step and dropped
// afterwards; it is never updated incrementally. Each node is either a leaf
// holding up to capacity items or a branch with exactly four children. A leaf
// splits once, on the insert that would overflow it. Below the maximum depth
// a leaf no longer splits and may grow past capacity, which bounds the
// recursion when many entities share one position.
//
// Items carry a copy of the entity's position and mass taken at insert time,
// so queries observe the state at the start of the step even while mutators
// rewrite live entities.
//
// Node bounds are kept as exact corners and a split reuses the parent's
// corners and center, so sibling quadrants share edges bit for bit. Once the
// root contains a point, descent picks the child by comparing against the
// center and never fails.
package quadtree

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/body"
	"github.com/san-kum/partsim/internal/vec"
)

const (
	DefaultCapacity = 4
	DefaultMaxDepth = 16
)

// Item is an indexed entity with its position and mass frozen at insert time.
type Item struct {
	Position vec.Vec2
	Mass     float64
	Entity   *body.Entity
}

type node interface {
	place(it Item, t *Tree) node
	query(w r2.Box, out []Item) []Item
	walk(fn func(NodeInfo) bool) bool
}

// NodeInfo describes one node for inspection and debug drawing.
type NodeInfo struct {
	Box   Box
	Depth int
	Leaf  bool
	// Items is the number of entities held directly; always 0 on branches.
	Items int
}

type leaf struct {
	bb    r2.Box
	depth int
	items []Item
}

type branch struct {
	bb       r2.Box
	center   r2.Vec
	depth    int
	children [4]node
}

type Tree struct {
	root     node
	boundary Box
	bb       r2.Box
	capacity int
	maxDepth int
	size     int
}

type Option func(*Tree)

// WithMaxDepth limits how deep leaves may split.
func WithMaxDepth(d int) Option {
	return func(t *Tree) {
		if d >= 0 {
			t.maxDepth = d
		}
	}
}

func New(boundary Box, capacity int, opts ...Option) *Tree {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	t := &Tree{
		boundary: boundary,
		bb:       boundary.Bounds(),
		capacity: capacity,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.root = &leaf{bb: t.bb, items: make([]Item, 0, capacity)}
	return t
}

// Insert indexes e at its current position. It returns false, leaving the
// tree unchanged, when the position lies outside the root boundary.
func (t *Tree) Insert(e *body.Entity) bool {
	return t.InsertItem(Item{Position: e.Position, Mass: e.Mass, Entity: e})
}

func (t *Tree) InsertItem(it Item) bool {
	if !t.bb.Contains(it.Position.R2()) {
		return false
	}
	t.root = t.root.place(it, t)
	t.size++
	return true
}

// Query returns every indexed item whose position lies inside w, in no
// particular order. Only subtrees whose boundary intersects w are visited.
func (t *Tree) Query(w Box) []Item {
	return t.root.query(w.Bounds(), nil)
}

// QueryInto is Query appending to out, for callers reusing a buffer.
func (t *Tree) QueryInto(w Box, out []Item) []Item {
	return t.root.query(w.Bounds(), out)
}

// All returns every indexed item.
func (t *Tree) All() []Item {
	return t.root.query(t.bb, make([]Item, 0, t.size))
}

func (t *Tree) Len() int { return t.size }

func (t *Tree) Boundary() Box { return t.boundary }

func (t *Tree) Capacity() int { return t.capacity }

// Walk visits nodes depth-first, parents before children. Returning false
// from fn stops the walk.
func (t *Tree) Walk(fn func(NodeInfo) bool) {
	t.root.walk(fn)
}

// place stores it in l, splitting when l is full and may still deepen.
// The caller guarantees l.bb contains it.
func (l *leaf) place(it Item, t *Tree) node {
	if len(l.items) < t.capacity || l.depth >= t.maxDepth {
		l.items = append(l.items, it)
		return l
	}

	b := l.split()
	for _, held := range l.items {
		b.place(held, t)
	}
	return b.place(it, t)
}

func (l *leaf) split() *branch {
	b := &branch{bb: l.bb, center: mid(l.bb), depth: l.depth}
	for i, q := range quadrants(l.bb, b.center) {
		b.children[i] = &leaf{bb: q, depth: l.depth + 1}
	}
	return b
}

func (l *leaf) query(w r2.Box, out []Item) []Item {
	if !overlaps(l.bb, w) {
		return out
	}
	for _, it := range l.items {
		if w.Contains(it.Position.R2()) {
			out = append(out, it)
		}
	}
	return out
}

func (l *leaf) walk(fn func(NodeInfo) bool) bool {
	return fn(NodeInfo{Box: FromBounds(l.bb), Depth: l.depth, Leaf: true, Items: len(l.items)})
}

func (b *branch) place(it Item, t *Tree) node {
	i := quadrant(it.Position.R2(), b.center)
	b.children[i] = b.children[i].place(it, t)
	return b
}

func (b *branch) query(w r2.Box, out []Item) []Item {
	if !overlaps(b.bb, w) {
		return out
	}
	for _, c := range b.children {
		out = c.query(w, out)
	}
	return out
}

func (b *branch) walk(fn func(NodeInfo) bool) bool {
	if !fn(NodeInfo{Box: FromBounds(b.bb), Depth: b.depth}) {
		return false
	}
	for _, c := range b.children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}
