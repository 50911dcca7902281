package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrCrashed is returned by every Step after one step failed.
	ErrCrashed = errors.New("sim: simulation crashed")

	// ErrInvalidState indicates a NaN or Inf position, velocity or acceleration.
	ErrInvalidState = errors.New("sim: invalid state (NaN or Inf detected)")

	ErrClosed = errors.New("sim: simulation closed")
)

// StepError wraps the failure of one step with its context. It matches both
// ErrCrashed and the underlying cause.
type StepError struct {
	Step    int
	Entity  int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("sim: step %d, entity %d: %v", e.Step, e.Entity, e.Wrapped)
}

func (e *StepError) Unwrap() []error {
	return []error{ErrCrashed, e.Wrapped}
}
