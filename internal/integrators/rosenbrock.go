package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/transmute/internal/dynamo"
	"github.com/san-kum/transmute/internal/sparse"
)

// Modified Rosenbrock pair of Shampine and Reichelt (ode23s): an L-stable
// order-2 W-method with an order-3 error estimate.
var (
	rosD   = 1.0 / (2.0 + math.Sqrt2)
	rosE32 = 6.0 + math.Sqrt2
)

// Rosenbrock integrates linear stiff systems. Each stage solves with the
// LU of W = I − h·d·J, which is cached until the step size or Jacobian
// changes.
type Rosenbrock struct {
	safety   float64
	minScale float64
	maxScale float64

	// workspace caps the number of stored LU entries; 0 means no cap.
	workspace int

	jac   *sparse.CSR
	luH   float64
	lu    *sparse.LU
	fills int

	// colSum caches 1ᵀJ for sumsOf.
	sumsOf *sparse.CSR
	colSum []float64

	f0, f1, f2, k1, k2, k3, tmp dynamo.State
}

func NewRosenbrock() *Rosenbrock {
	return &Rosenbrock{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 5.0,
	}
}

func (r *Rosenbrock) ensureScratch(n int) {
	if len(r.k1) != n {
		r.f0 = make(dynamo.State, n)
		r.f1 = make(dynamo.State, n)
		r.f2 = make(dynamo.State, n)
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.tmp = make(dynamo.State, n)
	}
}

func (r *Rosenbrock) SetWorkspace(n int) {
	r.workspace = n
	r.lu = nil
}

// Factorizations returns how many LU factorizations have been computed.
func (r *Rosenbrock) Factorizations() int { return r.fills }

func (r *Rosenbrock) factor(jac *sparse.CSR, h float64) (*sparse.LU, error) {
	if r.lu != nil && r.jac == jac && r.luH == h {
		return r.lu, nil
	}
	lu, err := sparse.FactorShifted(jac, 1, -h*rosD, r.workspace)
	if err != nil {
		r.lu = nil
		return nil, err
	}
	r.jac, r.luH, r.lu = jac, h, lu
	r.fills++
	return lu, nil
}

func (r *Rosenbrock) columnSums(jac *sparse.CSR) []float64 {
	if r.sumsOf != jac {
		r.colSum = jac.ColumnSums()
		r.sumsOf = jac
	}
	return r.colSum
}

// Step takes one step without error control.
func (r *Rosenbrock) Step(sys dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	xNew, _, err := r.attempt(sys, x, t, dt)
	return xNew, err
}

// attempt computes a full step and its local error vector.
func (r *Rosenbrock) attempt(sys dynamo.System, x dynamo.State, t, h float64) (dynamo.State, dynamo.State, error) {
	if h <= 0 {
		return nil, nil, fmt.Errorf("%w: %g", dynamo.ErrNonPositiveDt, h)
	}
	ls, ok := sys.(dynamo.LinearSystem)
	if !ok {
		return nil, nil, dynamo.ErrNoJacobian
	}
	n := len(x)
	if n != sys.StateDim() {
		return nil, nil, fmt.Errorf("%w: state %d, system %d", dynamo.ErrDimensionMismatch, n, sys.StateDim())
	}
	r.ensureScratch(n)

	lu, err := r.factor(ls.Jacobian(), h)
	if err != nil {
		return nil, nil, err
	}

	c := r.columnSums(ls.Jacobian())
	hd := h * rosD

	// Summing W·k = b gives 1ᵀk = cᵀy + h·d·cᵀk when b = J·y, with c = 1ᵀJ.
	// The stage sums are pinned to that identity: evaluating J·y rounds each
	// component independently and would otherwise leak inventory at large h·λ.
	copy(r.f0, sys.Derive(x, t))
	lu.Solve(r.k1, r.f0)
	conserve(r.k1, dot(c, x)+hd*dot(c, r.k1))

	for i := 0; i < n; i++ {
		r.tmp[i] = x[i] + 0.5*h*r.k1[i]
	}
	mid := dot(c, r.tmp)
	copy(r.f1, sys.Derive(r.tmp, t+0.5*h))
	for i := 0; i < n; i++ {
		r.tmp[i] = r.f1[i] - r.k1[i]
	}
	lu.Solve(r.k2, r.tmp)
	flux := dot(c, r.k2)
	for i := 0; i < n; i++ {
		r.k2[i] += r.k1[i]
	}
	conserve(r.k2, mid+hd*flux)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*r.k2[i]
	}

	copy(r.f2, sys.Derive(xNew, t+h))
	for i := 0; i < n; i++ {
		r.tmp[i] = r.f2[i] - rosE32*(r.k2[i]-r.f1[i]) - 2*(r.k1[i]-r.f0[i])
	}
	lu.Solve(r.k3, r.tmp)

	errVec := make(dynamo.State, n)
	h6 := h / 6
	for i := 0; i < n; i++ {
		errVec[i] = h6 * (r.k1[i] - 2*r.k2[i] + r.k3[i])
	}
	return xNew, errVec, nil
}

// StepAdaptive attempts one step of length dt. A rejected step returns a
// StepResult with nil State and a reduced NextDt.
func (r *Rosenbrock) StepAdaptive(sys dynamo.System, x dynamo.State, t, dt float64, tol dynamo.Tolerance) (dynamo.StepResult, error) {
	xNew, errVec, err := r.attempt(sys, x, t, dt)
	if err != nil {
		return dynamo.StepResult{}, err
	}

	errNorm := tol.ErrNorm(errVec, x, xNew)
	if math.IsNaN(errNorm) {
		return dynamo.StepResult{}, dynamo.ErrInvalidState
	}
	if errNorm > 1 {
		scale := math.Max(r.minScale, r.safety*math.Pow(errNorm, -1.0/3.0))
		return dynamo.StepResult{ErrNorm: errNorm, NextDt: dt * scale}, nil
	}

	scale := r.maxScale
	if errNorm > 0 {
		scale = math.Min(r.maxScale, r.safety*math.Pow(errNorm, -1.0/3.0))
	}
	// Hold h when the gain is small so the cached factorization is reused.
	if scale < 1.2 {
		scale = 1
	}
	return dynamo.StepResult{State: xNew, ErrNorm: errNorm, NextDt: dt * scale}, nil
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i, v := range a {
		if v != 0 {
			s += v * b[i]
		}
	}
	return s
}

// conserve shifts k so its compensated sum equals target, spreading the
// defect in proportion to |k_i|.
func conserve(k dynamo.State, target float64) {
	mag := 0.0
	for _, v := range k {
		mag += math.Abs(v)
	}
	if mag == 0 {
		return
	}
	defect := target - k.Sum()
	if defect == 0 || math.IsNaN(defect) || math.IsInf(defect, 0) {
		return
	}
	for i, v := range k {
		k[i] += defect * math.Abs(v) / mag
	}
}
