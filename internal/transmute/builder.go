// Package transmute assembles transition-rate matrices over a universe.
//
// Column j of a matrix describes isotope U[j]: the diagonal holds its total
// removal rate (negative) and entry (i, j) the rate at which it produces
// U[i]. Both build paths only ever add, so decay and reaction contributions
// can be layered into one matrix by successive calls.
package transmute

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"

	"github.com/san-kum/transmute/internal/decay"
	"github.com/san-kum/transmute/internal/fission"
	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/sparse"
	"github.com/san-kum/transmute/internal/universe"
)

// Builder writes decay and reaction contributions for one universe.
type Builder struct {
	u       *universe.Universe
	offsets OffsetTable
	logger  *slog.Logger
}

type Option func(*Builder)

// WithOffsets replaces the reaction product offsets.
func WithOffsets(o OffsetTable) Option {
	return func(b *Builder) { b.offsets = maps.Clone(o) }
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) { b.logger = l }
}

func NewBuilder(u *universe.Universe, opts ...Option) *Builder {
	b := &Builder{
		u:       u,
		offsets: DefaultOffsets(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Universe() *universe.Universe { return b.u }

// NewMatrix returns an empty |U|×|U| matrix. It fails only for an empty
// universe.
func (b *Builder) NewMatrix() (*sparse.Matrix, error) {
	return sparse.New(b.u.Len(), b.u.Len())
}

func (b *Builder) checkDims(m *sparse.Matrix) error {
	n := b.u.Len()
	if m.Rows() != n || m.Cols() != n {
		return fmt.Errorf("%w: %dx%d for %d isotopes", ErrDimensionMismatch, m.Rows(), m.Cols(), n)
	}
	return nil
}

type entry struct {
	i, j int
	v    float64
}

// staging collects entries so a faulty call leaves the matrix untouched.
type staging []entry

func (s *staging) add(i, j int, v float64) { *s = append(*s, entry{i, j, v}) }

// apply checks every entry before writing any of them.
func (s staging) apply(m *sparse.Matrix) error {
	for _, e := range s {
		if math.IsNaN(e.v) || math.IsInf(e.v, 0) {
			return fmt.Errorf("%w: (%d,%d)", sparse.ErrNaNInf, e.i, e.j)
		}
		if e.i < 0 || e.i >= m.Rows() || e.j < 0 || e.j >= m.Cols() {
			return fmt.Errorf("%w: (%d,%d)", sparse.ErrOutOfRange, e.i, e.j)
		}
	}
	for _, e := range s {
		if err := m.Add(e.i, e.j, e.v); err != nil {
			return err
		}
	}
	return nil
}

// AddDecay adds every tracked isotope's decay: its decay constant leaves
// the diagonal and flows to each daughter in the universe scaled by the
// branching ratio. Daughters outside the universe are skipped. The
// spontaneous-fission share is spread over the fragments reported by
// yields; a nil yields drops it.
//
// An isotope missing from lib is stable and contributes nothing.
func (b *Builder) AddDecay(m *sparse.Matrix, lib *decay.Library, yields fission.Source) error {
	if err := b.checkDims(m); err != nil {
		return err
	}

	var st staging
	skipped := 0
	for j, p := range b.u.IDs() {
		rec := lib.Record(p)
		for _, ch := range rec.Channels {
			if !decay.ValidFraction(ch.Branching) {
				return &decay.RecordError{ID: p, Daughter: ch.Daughter, Wrapped: decay.ErrNegativeBranching}
			}
		}
		lambda := rec.DecayConst
		if lambda == 0 {
			continue
		}
		st.add(j, j, -lambda)

		for _, ch := range rec.Channels {
			if ch.IsFission() {
				continue
			}
			i, ok := b.u.Location(ch.Daughter)
			if !ok {
				skipped++
				b.logger.Debug("decay daughter outside universe", "parent", p, "daughter", ch.Daughter)
				continue
			}
			st.add(i, j, lambda*ch.Branching)
		}

		sf := rec.SpontaneousFission()
		if sf == 0 || yields == nil {
			continue
		}
		for _, y := range yields.Yields(p, fission.Spontaneous) {
			if !decay.ValidFraction(y.Fraction) {
				return fmt.Errorf("%w: %s -> %s (%g)", ErrNegativeYield, p, y.Fragment, y.Fraction)
			}
			i, ok := b.u.Location(y.Fragment)
			if !ok {
				skipped++
				continue
			}
			st.add(i, j, lambda*sf*y.Fraction)
		}
	}

	if err := st.apply(m); err != nil {
		return err
	}
	b.logger.Debug("decay contributions added", "entries", len(st), "skipped", skipped)
	return nil
}

// AddReactions adds reaction and neutron-induced fission contributions.
// Every referenced isotope must be tracked; a miss is returned as a
// *universe.LookupError and nothing is written.
func (b *Builder) AddReactions(m *sparse.Matrix, rates Rates, fissions []FissionObservation) error {
	if err := b.checkDims(m); err != nil {
		return err
	}

	var st staging
	for _, p := range rates.Parents() {
		j, ok := b.u.Location(p)
		if !ok {
			return &universe.LookupError{ID: p, Context: "reaction parent"}
		}
		byKind := rates[p]
		for _, kind := range Reactions() {
			r, ok := byKind[kind]
			if !ok {
				continue
			}
			if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
				return fmt.Errorf("%w: %s %s rate %g", ErrNegativeRate, p, kind, r)
			}
			off, ok := b.offsets[kind]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownReaction, kind)
			}
			product := p.Shift(off)
			i, ok := b.u.Location(product)
			if !ok {
				return &universe.LookupError{ID: product, Context: fmt.Sprintf("%s product of %s", kind, p)}
			}
			st.add(j, j, -r)
			st.add(i, j, r)
		}
		for kind := range byKind {
			if !slices.Contains(Reactions(), kind) {
				return fmt.Errorf("%w: %s", ErrUnknownReaction, kind)
			}
		}
	}

	for _, obs := range fissions {
		j, ok := b.u.Location(obs.Parent)
		if !ok {
			return &universe.LookupError{ID: obs.Parent, Context: "fission parent"}
		}
		if obs.Rate < 0 || math.IsNaN(obs.Rate) || math.IsInf(obs.Rate, 0) {
			return fmt.Errorf("%w: %s fission rate %g", ErrNegativeRate, obs.Parent, obs.Rate)
		}
		st.add(j, j, -obs.Rate)
		for _, f := range slices.SortedFunc(maps.Keys(obs.Fragments), universe.Compare) {
			rate := obs.Fragments[f]
			if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
				return fmt.Errorf("%w: %s fragment %s rate %g", ErrNegativeRate, obs.Parent, f, rate)
			}
			i, ok := b.u.Location(f)
			if !ok {
				return &universe.LookupError{ID: f, Context: fmt.Sprintf("fission fragment of %s", obs.Parent)}
			}
			st.add(i, j, rate)
		}
	}

	if err := st.apply(m); err != nil {
		return err
	}
	b.logger.Debug("reaction contributions added", "entries", len(st), "fissions", len(fissions))
	return nil
}

// FissionFromYields expands a total neutron-induced fission rate into an
// observation using yields for fission.NeutronInduced.
func FissionFromYields(parent isotope.ID, rate float64, yields fission.Source) (FissionObservation, error) {
	obs := FissionObservation{Parent: parent, Rate: rate, Fragments: make(map[isotope.ID]float64)}
	for _, y := range yields.Yields(parent, fission.NeutronInduced) {
		if !decay.ValidFraction(y.Fraction) {
			return FissionObservation{}, fmt.Errorf("%w: %s -> %s (%g)", ErrNegativeYield, parent, y.Fragment, y.Fraction)
		}
		obs.Fragments[y.Fragment] += rate * y.Fraction
	}
	return obs, nil
}
