package sim

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/transmute/internal/dynamo"
	"github.com/san-kum/transmute/internal/sparse"
)

// Ensemble advances several initial vectors through the same matrix
// concurrently. Each run gets its own Solver from the factory because
// integrators are stateful.
type Ensemble struct {
	newSolver func() (*Solver, error)
	limit     int
}

func NewEnsemble(newSolver func() (*Solver, error)) *Ensemble {
	return &Ensemble{newSolver: newSolver, limit: runtime.GOMAXPROCS(0)}
}

// Advance returns one Result per input, in input order. The first failure
// cancels the remaining runs.
func (e *Ensemble) Advance(ctx context.Context, m *sparse.Matrix, inputs [][]float64, dt float64) ([]*Result, error) {
	if m.Rows() != m.Cols() {
		return nil, fmt.Errorf("%w: %dx%d", dynamo.ErrNonSquare, m.Rows(), m.Cols())
	}
	sys, err := dynamo.NewLinearODE(m.Compile())
	if err != nil {
		return nil, err
	}

	results := make([]*Result, len(inputs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for idx, x0 := range inputs {
		g.Go(func() error {
			s, err := e.newSolver()
			if err != nil {
				return err
			}
			res, err := s.Integrate(ctx, sys, x0, dt)
			if err != nil {
				return fmt.Errorf("run %d: %w", idx, err)
			}
			results[idx] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
