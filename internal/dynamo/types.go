package dynamo

import (
	"fmt"
	"math"

	"github.com/san-kum/transmute/internal/sparse"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Sum returns the total inventory using compensated summation.
func (s State) Sum() float64 {
	sum, c := 0.0, 0.0
	for _, v := range s {
		t := sum + v
		if math.Abs(sum) >= math.Abs(v) {
			c += (sum - t) + v
		} else {
			c += (v - t) + sum
		}
		sum = t
	}
	return sum + c
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Clamp returns a copy with negative entries set to zero.
func (s State) Clamp() State {
	c := make(State, len(s))
	for i, v := range s {
		if v > 0 {
			c[i] = v
		}
	}
	return c
}

// System is a first-order ODE right-hand side.
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

// LinearSystem is an autonomous System f(x) = J·x.
type LinearSystem interface {
	System
	Jacobian() *sparse.CSR
}

// Tolerance mixes relative and absolute error control per component.
type Tolerance struct {
	Rel float64
	Abs float64
}

// ErrNorm is the weighted max norm of e with weights Abs + Rel·max(|a|,|b|).
// A value ≤ 1 means every component meets its tolerance, however many
// untouched zero components the state carries.
func (tol Tolerance) ErrNorm(e, a, b State) float64 {
	norm := 0.0
	for i, v := range e {
		w := tol.Abs + tol.Rel*math.Max(math.Abs(a[i]), math.Abs(b[i]))
		r := math.Abs(v) / w
		if r > norm || math.IsNaN(r) {
			norm = r
		}
	}
	return norm
}

// StepResult is the outcome of one attempted adaptive step. State is nil
// when the step was rejected.
type StepResult struct {
	State   State
	ErrNorm float64
	NextDt  float64
}

func (r StepResult) Accepted() bool { return r.State != nil }

type Integrator interface {
	Step(sys System, x State, t, dt float64) (State, error)
}

type AdaptiveIntegrator interface {
	Integrator
	StepAdaptive(sys System, x State, t, dt float64, tol Tolerance) (StepResult, error)
}

// Metric accumulates a scalar over accepted steps.
type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

// Observer is notified after every accepted step of length dt ending at t.
type Observer interface {
	OnStep(x State, t, dt float64)
}

// LinearODE adapts a compiled rate matrix to LinearSystem.
type LinearODE struct {
	m *sparse.CSR
}

func NewLinearODE(m *sparse.CSR) (*LinearODE, error) {
	if m.Rows() != m.Cols() {
		return nil, fmt.Errorf("%w: %dx%d", ErrNonSquare, m.Rows(), m.Cols())
	}
	return &LinearODE{m: m}, nil
}

func (l *LinearODE) Derive(x State, t float64) State {
	dx := make(State, len(x))
	l.m.MulVec(dx, x)
	return dx
}

func (l *LinearODE) StateDim() int         { return l.m.Rows() }
func (l *LinearODE) Jacobian() *sparse.CSR { return l.m }
