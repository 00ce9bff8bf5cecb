// Package fission holds fission-product yield data handed to the matrix
// builder by the nuclear-data layer.
package fission

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/san-kum/transmute/internal/isotope"
)

var (
	// ErrNegativeYield indicates a fragment with a negative yield fraction.
	ErrNegativeYield = errors.New("fission: negative yield")

	// ErrUnknownMode indicates an unrecognised fission mode name.
	ErrUnknownMode = errors.New("fission: unknown fission mode")
)

// Mode distinguishes neutron-induced from spontaneous fission yields.
type Mode int

const (
	NeutronInduced Mode = iota
	Spontaneous
)

func (m Mode) String() string {
	if m == Spontaneous {
		return "spontaneous"
	}
	return "neutron"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "neutron", "induced", "nfy":
		return NeutronInduced, nil
	case "spontaneous", "sf", "sfy":
		return Spontaneous, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Yield is one fragment's share of a fission event.
type Yield struct {
	Fragment isotope.ID
	Fraction float64
	StdDev   float64
}

// Source supplies the ordered yield list for a fissioning isotope. A nil
// result means no yield data.
type Source interface {
	Yields(parent isotope.ID, mode Mode) []Yield
}

type key struct {
	parent isotope.ID
	mode   Mode
}

// Table is an in-memory Source.
type Table struct {
	yields map[key][]Yield
}

func NewTable() *Table {
	return &Table{yields: make(map[key][]Yield)}
}

// Set stores the yields for parent and mode, replacing earlier data.
// Zero-yield fragments are dropped.
func (t *Table) Set(parent isotope.ID, mode Mode, yields []Yield) error {
	kept := make([]Yield, 0, len(yields))
	for _, y := range yields {
		if y.Fraction < 0 || math.IsNaN(y.Fraction) || math.IsInf(y.Fraction, 0) {
			return fmt.Errorf("%w: %s -> %s (%g)", ErrNegativeYield, parent, y.Fragment, y.Fraction)
		}
		if y.Fraction == 0 {
			continue
		}
		kept = append(kept, y)
	}
	t.yields[key{parent, mode}] = kept
	return nil
}

func (t *Table) Yields(parent isotope.ID, mode Mode) []Yield {
	if t == nil {
		return nil
	}
	return t.yields[key{parent, mode}]
}

// Parents lists every isotope with yields for mode, in ascending order.
func (t *Table) Parents(mode Mode) []isotope.ID {
	var out []isotope.ID
	for k := range t.yields {
		if k.mode == mode {
			out = append(out, k.parent)
		}
	}
	slices.Sort(out)
	return out
}

// Total sums the yield fractions, 2 for a full binary-fission set.
func Total(yields []Yield) float64 {
	s := 0.0
	for _, y := range yields {
		s += y.Fraction
	}
	return s
}
