package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/transmute/internal/dynamo"
	"github.com/san-kum/transmute/internal/sparse"
)

// AdvanceSchedule integrates through a sequence of cumulative times and
// returns a snapshot at each. times must be strictly increasing and
// positive. Result.Time holds the cumulative time of the snapshot.
func (s *Solver) AdvanceSchedule(ctx context.Context, m *sparse.Matrix, quantities []float64, times []float64) ([]*Result, error) {
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

	out := make([]*Result, 0, len(times))
	x := quantities
	prev := 0.0
	for i, t := range times {
		res, err := s.Integrate(ctx, sys, x, t-prev)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d (t=%g): %w", i, t, err)
		}
		res.Time = t
		out = append(out, res)
		x, prev = res.Quantities, t
	}
	return out, nil
}
