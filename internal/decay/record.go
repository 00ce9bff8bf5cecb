package decay

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/transmute/internal/isotope"
)

// Mode is a decay-type code, numbered as the ENDF RTYP field.
type Mode int

const (
	Gamma Mode = iota
	BetaMinus
	BetaPlus
	IsomericTransition
	Alpha
	Neutron
	SpontaneousFission
	Proton
)

func (m Mode) String() string {
	switch m {
	case Gamma:
		return "gamma"
	case BetaMinus:
		return "beta-"
	case BetaPlus:
		return "beta+/ec"
	case IsomericTransition:
		return "it"
	case Alpha:
		return "alpha"
	case Neutron:
		return "n"
	case SpontaneousFission:
		return "sf"
	case Proton:
		return "p"
	default:
		return "unknown"
	}
}

// ParseMode accepts the String forms, "beta+" and "ec" for BetaPlus, or the
// numeric code.
func ParseMode(s string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(key); err == nil {
		if n < int(Gamma) || n > int(Proton) {
			return 0, fmt.Errorf("%w: %d", ErrUnknownMode, n)
		}
		return Mode(n), nil
	}
	switch key {
	case "gamma":
		return Gamma, nil
	case "beta-", "b-":
		return BetaMinus, nil
	case "beta+/ec", "beta+", "ec", "b+":
		return BetaPlus, nil
	case "it":
		return IsomericTransition, nil
	case "alpha", "a":
		return Alpha, nil
	case "n":
		return Neutron, nil
	case "sf":
		return SpontaneousFission, nil
	case "p":
		return Proton, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// FissionSentinel is the daughter of a spontaneous-fission channel. The
// fragments are carried by fission-yield data, not by the channel.
const FissionSentinel isotope.ID = 0

// Channel is one decay branch of a nuclide.
type Channel struct {
	Daughter     isotope.ID
	Type         Mode
	Branching    float64
	BranchingErr float64
}

// IsFission reports whether this is the spontaneous-fission sentinel channel.
func (c Channel) IsFission() bool { return c.Daughter == FissionSentinel }

// Record holds one nuclide's decay properties. Branching ratios are kept as
// given, they are not renormalised.
type Record struct {
	Z, A, S       int
	HalfLife      float64
	HalfLifeErr   float64
	DecayConst    float64
	DecayConstErr float64
	Channels      []Channel
}

// NewRecord derives the decay constant from the half-life. A half-life of 0
// or +Inf marks a stable nuclide.
func NewRecord(id isotope.ID, halfLife, halfLifeErr float64, channels []Channel) (Record, error) {
	s, z, a := id.Decode()
	r := Record{Z: z, A: a, S: s, HalfLife: halfLife, HalfLifeErr: halfLifeErr}

	if halfLife < 0 || math.IsNaN(halfLife) {
		return Record{}, &RecordError{ID: id, Wrapped: ErrNegativeHalfLife}
	}
	for _, ch := range channels {
		if !ValidFraction(ch.Branching) {
			return Record{}, &RecordError{ID: id, Daughter: ch.Daughter, Wrapped: ErrNegativeBranching}
		}
	}

	if halfLife > 0 && !math.IsInf(halfLife, 1) {
		r.DecayConst = math.Ln2 / halfLife
		// |dλ/dT| = ln2/T²
		r.DecayConstErr = math.Ln2 / (halfLife * halfLife) * halfLifeErr
	}
	r.Channels = append([]Channel(nil), channels...)
	return r, nil
}

// ValidFraction reports whether v is usable as a branching ratio or yield:
// finite and not negative.
func ValidFraction(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// ID returns the record's own isotope key.
func (r Record) ID() isotope.ID { return isotope.Encode(r.S, r.Z, r.A) }

// Stable reports whether the nuclide has no decay constant.
func (r Record) Stable() bool { return r.DecayConst == 0 }

// SpontaneousFission returns the branching ratio of the sentinel channel, or
// 0 when the nuclide has none.
func (r Record) SpontaneousFission() float64 {
	for _, ch := range r.Channels {
		if ch.IsFission() {
			return ch.Branching
		}
	}
	return 0
}

// BranchingSum adds up every channel, the fission sentinel included.
func (r Record) BranchingSum() float64 {
	sum := 0.0
	for _, ch := range r.Channels {
		sum += ch.Branching
	}
	return sum
}
