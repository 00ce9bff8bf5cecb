package transmute

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/san-kum/transmute/internal/isotope"
	"github.com/san-kum/transmute/internal/universe"
)

// Reaction is a neutron-induced reaction kind. Declaration order is the
// order in which AddReactions applies them.
type Reaction int

const (
	N2N Reaction = iota
	Capture
	NP
	ND
	NT
	NAlpha
	NHe3
)

var reactionNames = [...]string{
	N2N:     "n,2n",
	Capture: "n,gamma",
	NP:      "n,p",
	ND:      "n,d",
	NT:      "n,t",
	NAlpha:  "n,alpha",
	NHe3:    "n,he3",
}

// Reactions lists every kind in application order.
func Reactions() []Reaction {
	return []Reaction{N2N, Capture, NP, ND, NT, NAlpha, NHe3}
}

func (r Reaction) String() string {
	if r >= 0 && int(r) < len(reactionNames) {
		return reactionNames[r]
	}
	return fmt.Sprintf("reaction(%d)", int(r))
}

// ParseReaction accepts the String form with or without the "n," prefix,
// plus "(n,g)" style spellings.
func ParseReaction(s string) (Reaction, error) {
	key := strings.ToLower(strings.Trim(strings.TrimSpace(s), "()"))
	key = strings.TrimPrefix(key, "n,")
	switch key {
	case "2n":
		return N2N, nil
	case "gamma", "g", "capture":
		return Capture, nil
	case "p":
		return NP, nil
	case "d":
		return ND, nil
	case "t":
		return NT, nil
	case "alpha", "a":
		return NAlpha, nil
	case "he3", "3he":
		return NHe3, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownReaction, s)
}

func (r Reaction) MarshalText() ([]byte, error) {
	if r < 0 || int(r) >= len(reactionNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReaction, int(r))
	}
	return []byte(r.String()), nil
}

func (r *Reaction) UnmarshalText(b []byte) error {
	v, err := ParseReaction(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// OffsetTable maps a reaction kind to the (s, z, a) shift from parent to
// product.
type OffsetTable map[Reaction]isotope.Offset

// DefaultOffsets returns a fresh copy of the standard product offsets. The
// parent's isomeric state carries over to the product.
func DefaultOffsets() OffsetTable {
	return OffsetTable{
		N2N:     {A: -1},
		Capture: {A: +1},
		NP:      {Z: -1},
		ND:      {Z: -1, A: -1},
		NT:      {Z: -1, A: -2},
		NAlpha:  {Z: -2, A: -3},
		NHe3:    {Z: -2, A: -2},
	}
}

// Rates holds reaction rates in 1/s, keyed by parent then kind.
type Rates map[isotope.ID]map[Reaction]float64

// Set records rate for one parent and kind, replacing any earlier value.
func (r Rates) Set(parent isotope.ID, kind Reaction, rate float64) {
	byKind, ok := r[parent]
	if !ok {
		byKind = make(map[Reaction]float64)
		r[parent] = byKind
	}
	byKind[kind] = rate
}

// Parents returns the parents in universe order.
func (r Rates) Parents() []isotope.ID {
	return slices.SortedFunc(maps.Keys(r), universe.Compare)
}

// FissionObservation is one neutron-induced fission channel: the parent's
// total fission rate and the production rate of each fragment.
type FissionObservation struct {
	Parent    isotope.ID
	Rate      float64
	Fragments map[isotope.ID]float64
}
