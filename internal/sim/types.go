package sim

import (
	"errors"
	"fmt"
	"math"
)

// ErrBadConfig is returned for solver settings outside their valid range.
var ErrBadConfig = errors.New("sim: invalid solver configuration")

const (
	DefaultRelTol   = 1e-4
	DefaultAbsTol   = 1e-6
	DefaultMaxSteps = 50000
)

// Config holds the solver's tunable parameters.
type Config struct {
	RelTol float64 `yaml:"rel_tol" json:"rel_tol"`
	AbsTol float64 `yaml:"abs_tol" json:"abs_tol"`

	// Workspace caps the entries of the iteration-matrix factorization.
	// Zero leaves it unbounded.
	Workspace int `yaml:"workspace" json:"workspace"`

	// MaxSteps bounds accepted plus rejected steps per Advance.
	MaxSteps int `yaml:"max_steps" json:"max_steps"`

	// InitialDt is the first trial step; zero picks one from the data.
	InitialDt float64 `yaml:"initial_dt,omitempty" json:"initial_dt,omitempty"`

	// MinDt is the smallest step before giving up; zero scales it to the interval.
	MinDt float64 `yaml:"min_dt,omitempty" json:"min_dt,omitempty"`
}

func DefaultConfig() Config {
	return Config{
		RelTol:   DefaultRelTol,
		AbsTol:   DefaultAbsTol,
		MaxSteps: DefaultMaxSteps,
	}
}

func (c Config) Validate() error {
	switch {
	case !(c.RelTol >= 0) || math.IsInf(c.RelTol, 0):
		return fmt.Errorf("%w: rel_tol %g", ErrBadConfig, c.RelTol)
	case !(c.AbsTol >= 0) || math.IsInf(c.AbsTol, 0):
		return fmt.Errorf("%w: abs_tol %g", ErrBadConfig, c.AbsTol)
	case c.RelTol == 0 && c.AbsTol == 0:
		return fmt.Errorf("%w: rel_tol and abs_tol are both zero", ErrBadConfig)
	case c.Workspace < 0:
		return fmt.Errorf("%w: workspace %d", ErrBadConfig, c.Workspace)
	case c.MaxSteps <= 0:
		return fmt.Errorf("%w: max_steps %d", ErrBadConfig, c.MaxSteps)
	case !(c.InitialDt >= 0):
		return fmt.Errorf("%w: initial_dt %g", ErrBadConfig, c.InitialDt)
	case !(c.MinDt >= 0):
		return fmt.Errorf("%w: min_dt %g", ErrBadConfig, c.MinDt)
	}
	return nil
}

// Result is the outcome of one Advance call.
type Result struct {
	// Quantities is a fresh vector; small negative values are integration
	// noise and should be read as zero.
	Quantities []float64
	Steps      int
	Rejected   int
	Time       float64
	Metrics    map[string]float64
}
