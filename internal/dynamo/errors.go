package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for integration.
var (
	// ErrInvalidState indicates a state vector holding NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates a state whose length differs from the system.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrNonSquare indicates a rate matrix that is not square.
	ErrNonSquare = errors.New("dynamo: rate matrix is not square")

	// ErrNonPositiveDt indicates a step or interval that is zero or negative.
	ErrNonPositiveDt = errors.New("dynamo: time step must be positive")

	// ErrNoJacobian indicates an implicit integrator given a system without a Jacobian.
	ErrNoJacobian = errors.New("dynamo: system does not expose a Jacobian")

	// ErrStepTooSmall indicates the adaptive step fell below the minimum.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")

	// ErrTooMuchWork indicates the step budget ran out before the interval end.
	ErrTooMuchWork = errors.New("dynamo: step limit reached before end of interval")
)

// Status is the integrator outcome code reported with numerical faults. The
// values follow the LSODE istate convention.
type Status int

const (
	StatusOK           Status = 2
	StatusTooMuchWork  Status = -1
	StatusStepTooSmall Status = -4
	StatusSingular     Status = -5
	StatusInvalidState Status = -6
	StatusWorkspace    Status = -7
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusTooMuchWork:
		return "too much work"
	case StatusStepTooSmall:
		return "step too small"
	case StatusSingular:
		return "singular iteration matrix"
	case StatusInvalidState:
		return "non-finite state"
	case StatusWorkspace:
		return "workspace exhausted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// IntegratorError wraps a numerical fault with the point it was reached.
type IntegratorError struct {
	Status  Status
	Step    int
	Time    float64
	Wrapped error
}

func (e *IntegratorError) Error() string {
	return fmt.Sprintf("integrator status %d (%s) at step %d, t=%g: %v",
		int(e.Status), e.Status, e.Step, e.Time, e.Wrapped)
}

func (e *IntegratorError) Unwrap() error {
	return e.Wrapped
}
