package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/transmute/internal/dynamo"
	"github.com/san-kum/transmute/internal/sparse"
)

// workspaceLimiter is implemented by integrators that factor an iteration
// matrix.
type workspaceLimiter interface {
	SetWorkspace(n int)
}

// Solver advances population vectors with an adaptive integrator.
type Solver struct {
	integrator dynamo.AdaptiveIntegrator
	cfg        Config
	logger     *slog.Logger
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

type Option func(*Solver)

func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) { s.logger = l }
}

func New(integrator dynamo.AdaptiveIntegrator, cfg Config, opts ...Option) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{
		integrator: integrator,
		cfg:        cfg,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if wl, ok := integrator.(workspaceLimiter); ok {
		wl.SetWorkspace(cfg.Workspace)
	}
	return s, nil
}

func (s *Solver) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Solver) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Solver) Config() Config { return s.cfg }

// Advance integrates dN/dt = M·N over [0, dt] starting from quantities. The
// input slice is left untouched.
func (s *Solver) Advance(ctx context.Context, m *sparse.Matrix, quantities []float64, dt float64) (*Result, error) {
	if m.Rows() != m.Cols() {
		return nil, fmt.Errorf("%w: %dx%d", dynamo.ErrNonSquare, m.Rows(), m.Cols())
	}
	if len(quantities) != m.Rows() {
		return nil, fmt.Errorf("%w: %d quantities for a %dx%d matrix",
			dynamo.ErrDimensionMismatch, len(quantities), m.Rows(), m.Cols())
	}
	sys, err := dynamo.NewLinearODE(m.Compile())
	if err != nil {
		return nil, err
	}
	return s.Integrate(ctx, sys, quantities, dt)
}

// Integrate advances an arbitrary system over [0, dt].
func (s *Solver) Integrate(ctx context.Context, sys dynamo.System, x0 []float64, dt float64) (*Result, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: %g", dynamo.ErrNonPositiveDt, dt)
	}
	if len(x0) != sys.StateDim() {
		return nil, fmt.Errorf("%w: %d quantities, system %d", dynamo.ErrDimensionMismatch, len(x0), sys.StateDim())
	}
	x := dynamo.State(x0).Clone()
	if !x.IsValid() {
		return nil, dynamo.ErrInvalidState
	}

	tol := dynamo.Tolerance{Rel: s.cfg.RelTol, Abs: s.cfg.AbsTol}
	hmin := s.cfg.MinDt
	if hmin == 0 {
		hmin = 1e-15 * dt
	}
	h := s.initialStep(sys, x, dt, tol)

	for _, m := range s.metrics {
		m.Reset()
		m.Observe(x, 0)
	}

	result := &Result{Metrics: make(map[string]float64)}
	t := 0.0
	for t < dt {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("sim: canceled at step %d (t=%g): %w", result.Steps, t, ctx.Err())
		default:
		}

		if result.Steps+result.Rejected >= s.cfg.MaxSteps {
			return nil, &dynamo.IntegratorError{
				Status: dynamo.StatusTooMuchWork, Step: result.Steps, Time: t,
				Wrapped: fmt.Errorf("%w: %d steps", dynamo.ErrTooMuchWork, s.cfg.MaxSteps),
			}
		}

		last := false
		if rest := dt - t; h >= rest || rest-h < hmin {
			h, last = rest, true
		}

		res, err := s.integrator.StepAdaptive(sys, x, t, h, tol)
		if err != nil {
			return nil, s.fault(err, result.Steps, t)
		}
		if !res.Accepted() {
			result.Rejected++
			h = res.NextDt
			if h < hmin {
				return nil, &dynamo.IntegratorError{
					Status: dynamo.StatusStepTooSmall, Step: result.Steps, Time: t,
					Wrapped: fmt.Errorf("%w: %g < %g", dynamo.ErrStepTooSmall, h, hmin),
				}
			}
			continue
		}

		if !res.State.IsValid() {
			return nil, s.fault(dynamo.ErrInvalidState, result.Steps, t)
		}
		x = res.State
		if last {
			t = dt
		} else {
			t += h
		}
		result.Steps++

		for _, m := range s.metrics {
			m.Observe(x, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(x, t, h)
		}
		h = res.NextDt
	}

	result.Quantities = x
	result.Time = t
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	s.logger.Debug("advance complete",
		"dim", len(x), "interval", dt, "steps", result.Steps, "rejected", result.Rejected)
	return result, nil
}

// initialStep picks the first trial step from the ratio of the weighted
// state and derivative norms.
func (s *Solver) initialStep(sys dynamo.System, x dynamo.State, dt float64, tol dynamo.Tolerance) float64 {
	if s.cfg.InitialDt > 0 {
		return math.Min(s.cfg.InitialDt, dt)
	}
	f := sys.Derive(x, 0)
	d0 := tol.ErrNorm(x, x, x)
	d1 := tol.ErrNorm(f, x, x)
	h := 1e-6 * dt
	if d0 > 1e-5 && d1 > 1e-5 {
		h = 0.01 * d0 / d1
	}
	return math.Min(h, dt)
}

func (s *Solver) fault(err error, step int, t float64) error {
	var status dynamo.Status
	switch {
	case errors.Is(err, sparse.ErrSingular):
		status = dynamo.StatusSingular
	case errors.Is(err, sparse.ErrWorkspace):
		status = dynamo.StatusWorkspace
	case errors.Is(err, dynamo.ErrInvalidState):
		status = dynamo.StatusInvalidState
	default:
		return fmt.Errorf("sim: step %d (t=%g): %w", step, t, err)
	}
	s.logger.Debug("integrator fault", "status", int(status), "step", step, "t", t, "err", err)
	return &dynamo.IntegratorError{Status: status, Step: step, Time: t, Wrapped: err}
}
