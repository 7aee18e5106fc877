package physics

import "errors"

// Engine errors
var (
	ErrDivideByZero    = errors.New("division by zero")
	ErrNegativeSqrt    = errors.New("square root of a negative number")
	ErrInvalidSettings = errors.New("invalid space settings")
	ErrInvalidEntity   = errors.New("invalid entity")
	ErrNonFiniteState  = errors.New("entity state is not finite")
	ErrCorrupted       = errors.New("simulation space is corrupted")
)
