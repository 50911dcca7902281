package quadtree

import (
	"errors"
	"fmt"

	"github.com/san-kum/partsim/internal/vec"
)

// ErrOutOfBounds indicates a position outside the index boundary.
var ErrOutOfBounds = errors.New("quadtree: position outside index boundary")

// IndexError records an entity left out of the index for one step. It is
// not fatal: the entity still moves but takes no part in spatial queries.
type IndexError struct {
	Position vec.Vec2
	Boundary Box
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%v: (%.2f, %.2f) not in box centered (%.2f, %.2f) %.2fx%.2f",
		ErrOutOfBounds, e.Position.X, e.Position.Y,
		e.Boundary.Center.X, e.Boundary.Center.Y, e.Boundary.Width, e.Boundary.Height)
}

func (e *IndexError) Unwrap() error { return ErrOutOfBounds }
