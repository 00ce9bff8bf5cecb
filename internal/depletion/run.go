package depletion

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/transmute/internal/config"
	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/sim"
	"github.com/san-kum/transmute/internal/universe"
)

// Snapshot is the composition at one report time.
type Snapshot struct {
	// Time is measured from the start of the run, in seconds.
	Time        float64
	Composition map[isotope.ID]float64
	Result      *sim.Result
}

type Outcome struct {
	Config    *config.Config
	Universe  *universe.Universe
	Initial   map[isotope.ID]float64
	Snapshots []Snapshot
	NonZeros  int
	Elapsed   time.Duration
}

// Final returns the composition at the end of the run.
func (o *Outcome) Final() map[isotope.ID]float64 {
	return o.Snapshots[len(o.Snapshots)-1].Composition
}

// Steps totals accepted and rejected steps over every snapshot interval.
func (o *Outcome) Steps() (accepted, rejected int) {
	for _, s := range o.Snapshots {
		accepted += s.Result.Steps
		rejected += s.Result.Rejected
	}
	return accepted, rejected
}

// Run prepares cfg and advances it to every report time.
func Run(ctx context.Context, cfg *config.Config, opts ...Option) (*Outcome, error) {
	p, err := Prepare(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

func (p *Problem) newSolver(observe bool) (*sim.Solver, error) {
	integ, err := p.opts.registry.GetIntegrator(p.Config.Integrator)
	if err != nil {
		return nil, err
	}
	s, err := sim.New(integ, p.Config.Solver, sim.WithLogger(p.opts.logger))
	if err != nil {
		return nil, err
	}
	for _, m := range p.opts.registry.DefaultMetrics() {
		s.AddMetric(m)
	}
	if observe {
		for _, obs := range p.opts.observers {
			s.AddObserver(obs)
		}
	}
	return s, nil
}

func (p *Problem) Run(ctx context.Context) (*Outcome, error) {
	start := time.Now()
	solver, err := p.newSolver(true)
	if err != nil {
		return nil, err
	}
	x0, err := p.Universe.Vector(p.Initial)
	if err != nil {
		return nil, err
	}

	results, err := solver.AdvanceSchedule(ctx, p.Matrix, x0, p.Config.Times())
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Config:    p.Config,
		Universe:  p.Universe,
		Initial:   p.Initial,
		Snapshots: make([]Snapshot, 0, len(results)),
		NonZeros:  p.Matrix.NNZ(),
	}
	for _, res := range results {
		comp, err := p.Universe.Sparse(res.Quantities)
		if err != nil {
			return nil, err
		}
		out.Snapshots = append(out.Snapshots, Snapshot{Time: res.Time, Composition: comp, Result: res})
	}
	out.Elapsed = time.Since(start)

	accepted, rejected := out.Steps()
	p.opts.logger.Info("run complete",
		"name", p.Config.Name, "isotopes", p.Universe.Len(), "snapshots", len(out.Snapshots),
		"steps", accepted, "rejected", rejected, "elapsed", out.Elapsed)
	return out, nil
}

// UnitResponses advances one unit of each id, alone, through the problem's
// matrix for dt seconds. The runs are independent and execute concurrently.
func (p *Problem) UnitResponses(ctx context.Context, ids []isotope.ID, dt float64) (map[isotope.ID]map[isotope.ID]float64, error) {
	inputs := make([][]float64, len(ids))
	for k, id := range ids {
		i, ok := p.Universe.Location(id)
		if !ok {
			return nil, &universe.LookupError{ID: id, Context: "unit response"}
		}
		inputs[k] = make([]float64, p.Universe.Len())
		inputs[k][i] = 1
	}

	ens := sim.NewEnsemble(func() (*sim.Solver, error) { return p.newSolver(false) })
	results, err := ens.Advance(ctx, p.Matrix, inputs, dt)
	if err != nil {
		return nil, fmt.Errorf("unit responses: %w", err)
	}

	out := make(map[isotope.ID]map[isotope.ID]float64, len(ids))
	for k, id := range ids {
		comp, err := p.Universe.Sparse(results[k].Quantities)
		if err != nil {
			return nil, err
		}
		out[id] = comp
	}
	return out, nil
}
