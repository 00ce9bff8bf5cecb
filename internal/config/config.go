// Package config reads and writes transmutation run descriptions.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"math"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/transmute/internal/decay"
	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/sim"
	"github.com/san-kum/transmute/internal/transmute"
	"github.com/san-kum/transmute/internal/units"
)

const (
	DefaultIntegrator = "rosenbrock"
	DefaultTime       = units.Duration(units.Year)

	// UniverseDefault tracks the built-in isotope tables.
	UniverseDefault = "default"
	// UniverseChain tracks only what the run can reach from its initial
	// composition.
	UniverseChain = "chain"

	DegenerateReject    = "reject"
	DegenerateConfluent = "confluent"
)

// ErrInvalid is returned for a run description that cannot be executed.
var ErrInvalid = errors.New("config: invalid run configuration")

type Config struct {
	Name string `yaml:"name,omitempty"`

	// DecayData and FissionYields are file paths; empty selects the
	// embedded sample data.
	DecayData     string `yaml:"decay_data,omitempty"`
	FissionYields string `yaml:"fission_yields,omitempty"`

	Universe    string   `yaml:"universe"`
	Metastables []string `yaml:"metastables,omitempty"`

	Initial map[string]float64 `yaml:"initial"`
	Time    units.Duration     `yaml:"time"`

	// Snapshots are elapsed times, measured from the start, at which the
	// composition is reported in addition to Time.
	Snapshots []units.Duration `yaml:"snapshots,omitempty"`

	Integrator string     `yaml:"integrator"`
	Degenerate string     `yaml:"degenerate"`
	Solver     sim.Config `yaml:"solver"`

	Reactions []ReactionConfig `yaml:"reactions,omitempty"`
	Fissions  []FissionConfig  `yaml:"fissions,omitempty"`
}

type ReactionConfig struct {
	Parent string             `yaml:"parent"`
	Kind   transmute.Reaction `yaml:"kind"`
	Rate   float64            `yaml:"rate"`
}

// FissionConfig is a neutron-induced fission channel. Without explicit
// fragment rates the total rate is spread over the neutron-induced yields.
type FissionConfig struct {
	Parent    string             `yaml:"parent"`
	Rate      float64            `yaml:"rate"`
	Fragments map[string]float64 `yaml:"fragments,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Universe:   UniverseDefault,
		Time:       DefaultTime,
		Integrator: DefaultIntegrator,
		Degenerate: DegenerateReject,
		Solver:     sim.DefaultConfig(),
	}
}

// Parse decodes a run description over the defaults and validates it.
// Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if len(c.Initial) == 0 {
		return fmt.Errorf("%w: initial composition is empty", ErrInvalid)
	}
	if _, err := c.Composition(); err != nil {
		return err
	}
	t := c.Time.Seconds()
	if !(t > 0) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: time must be positive and finite, got %s", ErrInvalid, c.Time)
	}
	prev := 0.0
	for _, s := range c.Snapshots {
		if s.Seconds() <= prev || s.Seconds() > t {
			return fmt.Errorf("%w: snapshot %s out of order or past %s", ErrInvalid, s, c.Time)
		}
		prev = s.Seconds()
	}
	if c.Integrator == "" {
		return fmt.Errorf("%w: integrator is required", ErrInvalid)
	}
	if c.Universe != UniverseDefault && c.Universe != UniverseChain {
		return fmt.Errorf("%w: universe %q", ErrInvalid, c.Universe)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.MetastableIDs(); err != nil {
		return err
	}
	if _, err := c.Rates(); err != nil {
		return err
	}
	for _, f := range c.Fissions {
		if _, err := isotope.Parse(f.Parent); err != nil {
			return fmt.Errorf("%w: fission parent: %w", ErrInvalid, err)
		}
		if _, err := f.FragmentRates(); err != nil {
			return err
		}
	}
	return c.Solver.Validate()
}

// Composition returns the initial quantities keyed by isotope.
func (c *Config) Composition() (map[isotope.ID]float64, error) {
	comp, err := parseAmounts(c.Initial)
	if err != nil {
		return nil, fmt.Errorf("%w: initial: %w", ErrInvalid, err)
	}
	for id, q := range comp {
		if q < 0 || math.IsNaN(q) || math.IsInf(q, 0) {
			return nil, fmt.Errorf("%w: initial %s quantity %g", ErrInvalid, id, q)
		}
	}
	return comp, nil
}

// FragmentRates returns the explicit fragment production rates, or an empty
// map when the yields should be used.
func (f FissionConfig) FragmentRates() (map[isotope.ID]float64, error) {
	out, err := parseAmounts(f.Fragments)
	if err != nil {
		return nil, fmt.Errorf("%w: fission fragments of %s: %w", ErrInvalid, f.Parent, err)
	}
	return out, nil
}

func parseAmounts(in map[string]float64) (map[isotope.ID]float64, error) {
	out := make(map[isotope.ID]float64, len(in))
	for name, q := range in {
		id, err := isotope.Parse(name)
		if err != nil {
			return nil, err
		}
		out[id] += q
	}
	return out, nil
}

// Policy maps the degenerate setting onto the decay library policy.
func (c *Config) Policy() (decay.DegeneratePolicy, error) {
	switch strings.ToLower(c.Degenerate) {
	case "", DegenerateReject:
		return decay.RejectDegenerate, nil
	case DegenerateConfluent:
		return decay.ConfluentLimit, nil
	}
	return 0, fmt.Errorf("%w: degenerate policy %q", ErrInvalid, c.Degenerate)
}

func (c *Config) MetastableIDs() ([]isotope.ID, error) {
	ids := make([]isotope.ID, 0, len(c.Metastables))
	for _, name := range c.Metastables {
		id, err := isotope.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("%w: metastables: %w", ErrInvalid, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Rates collects the reaction list. A repeated parent and kind keeps the
// last rate.
func (c *Config) Rates() (transmute.Rates, error) {
	rates := make(transmute.Rates)
	for _, r := range c.Reactions {
		id, err := isotope.Parse(r.Parent)
		if err != nil {
			return nil, fmt.Errorf("%w: reaction parent: %w", ErrInvalid, err)
		}
		rates.Set(id, r.Kind, r.Rate)
	}
	return rates, nil
}

// Times returns the elapsed report times in seconds, ending with Time.
func (c *Config) Times() []float64 {
	out := make([]float64, 0, len(c.Snapshots)+1)
	for _, s := range c.Snapshots {
		out = append(out, s.Seconds())
	}
	if len(out) == 0 || out[len(out)-1] != c.Time.Seconds() {
		out = append(out, c.Time.Seconds())
	}
	return out
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Metastables = slices.Clone(c.Metastables)
	out.Initial = maps.Clone(c.Initial)
	out.Snapshots = slices.Clone(c.Snapshots)
	out.Reactions = slices.Clone(c.Reactions)
	out.Fissions = make([]FissionConfig, len(c.Fissions))
	for i, f := range c.Fissions {
		f.Fragments = maps.Clone(f.Fragments)
		out.Fissions[i] = f
	}
	if c.Fissions == nil {
		out.Fissions = nil
	}
	return &out
}
