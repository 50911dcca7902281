package vec

// DomainError reports an arithmetic operation with no defined result.
type DomainError struct {
	Op     string
	Reason string
}

func (e *DomainError) Error() string {
	return "vec: " + e.Op + ": " + e.Reason
}

var (
	// ErrZeroVector is returned when normalizing a vector with no direction.
	ErrZeroVector error = &DomainError{Op: "normalize", Reason: "zero vector has no direction"}

	// ErrDivideByZero is returned by SafeDiv for a zero divisor.
	ErrDivideByZero error = &DomainError{Op: "divide", Reason: "division by zero"}
)
