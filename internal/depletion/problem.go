// Package depletion turns a run description into a transition matrix over
// a universe and advances the initial composition through it.
package depletion

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/san-kum/transmute/internal/config"
	"github.com/san-kum/transmute/internal/decay"
	"github.com/san-kum/transmute/internal/dynamo"
	"github.com/san-kum/transmute/internal/fission"
	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/nucdata"
	"github.com/san-kum/transmute/internal/sparse"
	"github.com/san-kum/transmute/internal/transmute"
	"github.com/san-kum/transmute/internal/universe"
)

// ErrNoYields indicates a fission channel with neither explicit fragments
// nor neutron-induced yield data.
var ErrNoYields = errors.New("depletion: no fission yields")

type options struct {
	logger    *slog.Logger
	registry  *Registry
	bundle    *nucdata.Bundle
	observers []dynamo.Observer
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithRegistry(r *Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithBundle supplies nuclear data directly instead of reading the files
// named in the config.
func WithBundle(b *nucdata.Bundle) Option {
	return func(o *options) { o.bundle = b }
}

// WithObserver attaches an observer to the main run. Unit-response runs
// are not observed.
func WithObserver(obs dynamo.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// Problem is a prepared run: nuclear data, universe and assembled matrix.
type Problem struct {
	Config   *config.Config
	Universe *universe.Universe
	Library  *decay.Library
	Yields   fission.Source
	Matrix   *sparse.Matrix
	Initial  map[isotope.ID]float64

	opts options
}

// Prepare validates cfg, loads its nuclear data, picks the universe and
// assembles the matrix from decay, reactions and fissions.
func Prepare(cfg *config.Config, opts ...Option) (*Problem, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}

	bundle := o.bundle
	if bundle == nil {
		var err error
		if bundle, err = loadBundle(cfg); err != nil {
			return nil, err
		}
	}
	var yields fission.Source = fission.NewTable()
	if bundle.Yields != nil {
		yields = bundle.Yields
	}

	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	lib, err := bundle.Library(decay.WithDegeneratePolicy(policy))
	if err != nil {
		return nil, err
	}

	comp, err := cfg.Composition()
	if err != nil {
		return nil, err
	}
	rates, err := cfg.Rates()
	if err != nil {
		return nil, err
	}
	fissions, err := observations(cfg, yields)
	if err != nil {
		return nil, err
	}
	extra, err := cfg.MetastableIDs()
	if err != nil {
		return nil, err
	}

	offsets := transmute.DefaultOffsets()
	var u *universe.Universe
	switch cfg.Universe {
	case config.UniverseChain:
		seeds := slices.Concat(slices.Collect(maps.Keys(comp)), rates.Parents(), extra)
		for _, obs := range fissions {
			seeds = append(seeds, obs.Parent)
		}
		u = chainUniverse(lib, yields, offsets, seeds, rates, fissions)
	default:
		mt := universe.DefaultMetastables()
		for _, id := range extra {
			mt[id.Z()] = append(mt[id.Z()], id)
		}
		if u, err = universe.Build(universe.DefaultRanges(), mt); err != nil {
			return nil, err
		}
	}

	b := transmute.NewBuilder(u, transmute.WithOffsets(offsets), transmute.WithLogger(o.logger))
	m, err := b.NewMatrix()
	if err != nil {
		return nil, err
	}
	if err := b.AddDecay(m, lib, yields); err != nil {
		return nil, fmt.Errorf("decay matrix: %w", err)
	}
	if err := b.AddReactions(m, rates, fissions); err != nil {
		return nil, fmt.Errorf("reaction matrix: %w", err)
	}

	o.logger.Debug("problem prepared",
		"name", cfg.Name, "isotopes", u.Len(), "records", lib.Len(),
		"reactions", len(rates), "fissions", len(fissions))
	return &Problem{
		Config:   cfg,
		Universe: u,
		Library:  lib,
		Yields:   yields,
		Matrix:   m,
		Initial:  comp,
		opts:     o,
	}, nil
}

func loadBundle(cfg *config.Config) (*nucdata.Bundle, error) {
	if cfg.DecayData != "" {
		return nucdata.Load(cfg.DecayData, cfg.FissionYields)
	}
	sample, err := nucdata.Sample()
	if err != nil {
		return nil, err
	}
	if cfg.FissionYields == "" {
		return sample, nil
	}
	yields, err := nucdata.ReadYieldFile(cfg.FissionYields)
	if err != nil {
		return nil, err
	}
	return &nucdata.Bundle{Records: sample.Records, Yields: yields}, nil
}

func observations(cfg *config.Config, yields fission.Source) ([]transmute.FissionObservation, error) {
	out := make([]transmute.FissionObservation, 0, len(cfg.Fissions))
	for _, f := range cfg.Fissions {
		parent, err := isotope.Parse(f.Parent)
		if err != nil {
			return nil, err
		}
		frags, err := f.FragmentRates()
		if err != nil {
			return nil, err
		}
		if len(frags) > 0 {
			out = append(out, transmute.FissionObservation{Parent: parent, Rate: f.Rate, Fragments: frags})
			continue
		}
		obs, err := transmute.FissionFromYields(parent, f.Rate, yields)
		if err != nil {
			return nil, err
		}
		if len(obs.Fragments) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoYields, parent)
		}
		out = append(out, obs)
	}
	return out, nil
}

// chainUniverse collects everything reachable from seeds through decay
// channels, spontaneous-fission fragments, reaction products and fission
// fragments.
func chainUniverse(lib *decay.Library, yields fission.Source, offsets transmute.OffsetTable, seeds []isotope.ID,
	rates transmute.Rates, fissions []transmute.FissionObservation) *universe.Universe {
	fragments := make(map[isotope.ID][]isotope.ID)
	for _, obs := range fissions {
		for f := range obs.Fragments {
			fragments[obs.Parent] = append(fragments[obs.Parent], f)
		}
	}

	seen := make(map[isotope.ID]struct{})
	stack := slices.Clone(seeds)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		rec := lib.Record(id)
		for _, ch := range rec.Channels {
			if !ch.IsFission() {
				stack = append(stack, ch.Daughter)
			}
		}
		if rec.SpontaneousFission() > 0 {
			for _, y := range yields.Yields(id, fission.Spontaneous) {
				stack = append(stack, y.Fragment)
			}
		}
		for kind := range rates[id] {
			off, ok := offsets[kind]
			if !ok {
				continue
			}
			s, z, a := id.Decode()
			if s+off.S < 0 || z+off.Z < 1 || a+off.A < 1 {
				continue
			}
			stack = append(stack, id.Shift(off))
		}
		stack = append(stack, fragments[id]...)
	}
	return universe.FromIDs(slices.Collect(maps.Keys(seen)))
}
