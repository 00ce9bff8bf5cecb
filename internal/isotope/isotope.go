// Package isotope encodes nuclide identities as integer SZA keys.
//
// A key packs the metastable state s, the atomic number z and the mass
// number a as s*1,000,000 + z*1,000 + a. Mass number 0 denotes a natural
// element and never appears inside the transmutation core.
//
//	id := isotope.Encode(0, 98, 249) // Cf249
//	s, z, a := id.Decode()
package isotope

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	stateFactor = 1_000_000
	zFactor     = 1_000
)

// MaxZ is the heaviest element the built-in tables know about.
const MaxZ = 100

// ErrBadIsotope is returned by Parse for names it cannot interpret.
var ErrBadIsotope = errors.New("isotope: unrecognised isotope name")

// ID is an SZA isotope key.
type ID int

// Encode packs a state, atomic number and mass number into an ID.
func Encode(s, z, a int) ID {
	return ID(s*stateFactor + z*zFactor + a)
}

// Decode unpacks the key into (state, atomic number, mass number).
func (id ID) Decode() (s, z, a int) {
	v := int(id)
	s = v / stateFactor
	z = (v % stateFactor) / zFactor
	a = v % zFactor
	return s, z, a
}

func (id ID) State() int { return int(id) / stateFactor }
func (id ID) Z() int     { return (int(id) % stateFactor) / zFactor }
func (id ID) A() int     { return int(id) % zFactor }

// Ground strips the metastable state.
func (id ID) Ground() ID {
	return id - ID(id.State()*stateFactor)
}

// IsNatural reports whether the key names a natural element (a == 0).
func (id ID) IsNatural() bool { return id.A() == 0 }

// Offset is an additive change applied field by field to a decoded key.
type Offset struct {
	S, Z, A int
}

// Shift decodes the key, adds o to each field and re-encodes it.
func (id ID) Shift(o Offset) ID {
	s, z, a := id.Decode()
	return Encode(s+o.S, z+o.Z, a+o.A)
}

// String renders names such as "Cf249", "Tc99m" or "Hf178m2".
func (id ID) String() string {
	s, z, a := id.Decode()
	sym := Symbol(z)
	if sym == "" {
		return strconv.Itoa(int(id))
	}
	var b strings.Builder
	b.WriteString(sym)
	b.WriteString(strconv.Itoa(a))
	switch {
	case s == 1:
		b.WriteString("m")
	case s > 1:
		b.WriteString("m")
		b.WriteString(strconv.Itoa(s))
	}
	return b.String()
}

// Parse accepts the forms produced by String ("Cs137", "Ba137m", "Hf178m2"),
// hyphenated variants ("Cs-137") and bare integer SZA keys ("55137").
func Parse(name string) (ID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrBadIsotope)
	}
	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrBadIsotope, name)
		}
		return ID(n), nil
	}

	i := 0
	for i < len(name) && isLetter(name[i]) {
		i++
	}
	z := AtomicNumber(name[:i])
	if z == 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadIsotope, name)
	}
	rest := strings.TrimPrefix(name[i:], "-")

	j := 0
	for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if j == 0 {
		return 0, fmt.Errorf("%w: %q has no mass number", ErrBadIsotope, name)
	}
	a, _ := strconv.Atoi(rest[:j])

	s := 0
	suffix := strings.ToLower(rest[j:])
	switch {
	case suffix == "":
	case suffix == "m":
		s = 1
	case strings.HasPrefix(suffix, "m"):
		n, err := strconv.Atoi(suffix[1:])
		if err != nil || n < 1 {
			return 0, fmt.Errorf("%w: %q has a bad state suffix", ErrBadIsotope, name)
		}
		s = n
	default:
		return 0, fmt.Errorf("%w: %q has a bad state suffix", ErrBadIsotope, name)
	}
	return Encode(s, z, a), nil
}

// MustParse is Parse for static tables and tests.
func MustParse(name string) ID {
	id, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return id
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
