package config

import (
	"maps"
	"slices"

	"github.com/san-kum/transmute/internal/sim"
	"github.com/san-kum/transmute/internal/transmute"
	"github.com/san-kum/transmute/internal/units"
)

func solver(rel, abs float64) sim.Config {
	c := sim.DefaultConfig()
	c.RelTol, c.AbsTol = rel, abs
	return c
}

var Presets = map[string]*Config{
	"tritium": {
		Name: "tritium", Universe: UniverseChain, Integrator: "rosenbrock", Degenerate: DegenerateReject,
		Initial: map[string]float64{"H3": 1.0},
		Time:    units.Duration(10 * units.Year),
		Solver:  solver(1e-8, 1e-12),
	},
	"cs137": {
		Name: "cs137", Universe: UniverseChain, Integrator: "rosenbrock", Degenerate: DegenerateReject,
		Initial:   map[string]float64{"Cs137": 1.0},
		Time:      units.Duration(100 * units.Year),
		Snapshots: []units.Duration{units.Duration(units.Hour), units.Duration(30.08 * units.Year)},
		Solver:    solver(1e-6, 1e-10),
	},
	"cf249": {
		Name: "cf249", Universe: UniverseChain, Integrator: "rosenbrock", Degenerate: DegenerateReject,
		Initial:   map[string]float64{"Cf249": 1.0},
		Time:      units.Duration(1000 * units.Year),
		Snapshots: []units.Duration{units.Duration(10 * units.Year), units.Duration(100 * units.Year)},
		Solver:    solver(1e-6, 1e-12),
	},
	"cf252": {
		Name: "cf252", Universe: UniverseDefault, Integrator: "rosenbrock", Degenerate: DegenerateReject,
		Initial: map[string]float64{"Cf252": 1.0},
		Time:    units.Duration(5 * units.Year),
		Solver:  solver(1e-5, 1e-10),
	},
	"capture": {
		Name: "capture", Universe: UniverseChain, Integrator: "rosenbrock", Degenerate: DegenerateReject,
		Initial: map[string]float64{"Co59": 1.0},
		Time:    units.Duration(units.Year),
		Reactions: []ReactionConfig{
			{Parent: "Co59", Kind: transmute.Capture, Rate: 1e-9},
		},
		Solver: solver(1e-8, 1e-12),
	},
	"fission": {
		Name: "fission", Universe: UniverseChain, Integrator: "rosenbrock", Degenerate: DegenerateReject,
		Initial: map[string]float64{"U235": 1.0},
		Time:    units.Duration(30 * units.Day),
		Fissions: []FissionConfig{
			{Parent: "U235", Rate: 1e-8},
		},
		Solver: solver(1e-6, 1e-12),
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}
