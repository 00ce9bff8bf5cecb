// Package universe computes the ordered set of tracked isotopes that fixes
// the row/column layout of every transition matrix and quantity vector in a
// run.
package universe

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/san-kum/transmute/internal/isotope"
)

var (
	// ErrBadTable indicates an invalid range or metastable table entry.
	ErrBadTable = errors.New("universe: invalid isotope table")

	// ErrNotInUniverse indicates an isotope that is not tracked.
	ErrNotInUniverse = errors.New("universe: isotope not in universe")

	// ErrDimensionMismatch indicates a vector whose length differs from the universe.
	ErrDimensionMismatch = errors.New("universe: vector length does not match universe")
)

// LookupError names the isotope that failed to resolve.
type LookupError struct {
	ID      isotope.ID
	Context string
}

func (e *LookupError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%v: %s (%s)", ErrNotInUniverse, e.ID, e.Context)
	}
	return fmt.Sprintf("%v: %s", ErrNotInUniverse, e.ID)
}

func (e *LookupError) Unwrap() error { return ErrNotInUniverse }

// Compare orders isotopes by (z, a) with the state stripped, and then ground
// state before m1 before m2.
func Compare(x, y isotope.ID) int {
	if c := cmp.Compare(x.Ground(), y.Ground()); c != 0 {
		return c
	}
	return cmp.Compare(x.State(), y.State())
}

// Less reports whether x sorts before y.
func Less(x, y isotope.ID) bool { return Compare(x, y) < 0 }

// Universe is the fixed, ordered list of tracked isotopes with its reverse
// index. It is immutable once built.
type Universe struct {
	ids   []isotope.ID
	index map[isotope.ID]int
}

// Build takes the union of every ground state in ranges and every id in
// metastables, then sorts and indexes it.
func Build(ranges RangeTable, metastables MetastableTable) (*Universe, error) {
	seen := make(map[isotope.ID]struct{})
	ids := make([]isotope.ID, 0, 4096)
	add := func(id isotope.ID) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	for z, r := range ranges {
		if z < 1 || z > isotope.MaxZ {
			return nil, fmt.Errorf("%w: z=%d outside 1..%d", ErrBadTable, z, isotope.MaxZ)
		}
		if r.MinA < 1 || r.MinA > r.MaxA || r.MaxA > 999 {
			return nil, fmt.Errorf("%w: z=%d range %d..%d", ErrBadTable, z, r.MinA, r.MaxA)
		}
		for a := r.MinA; a <= r.MaxA; a++ {
			add(isotope.Encode(0, z, a))
		}
	}
	for z, list := range metastables {
		for _, id := range list {
			if id.State() < 1 || id.Z() != z || id.A() < 1 {
				return nil, fmt.Errorf("%w: metastable %d under z=%d", ErrBadTable, int(id), z)
			}
			add(id)
		}
	}

	return FromIDs(ids), nil
}

// Default returns the universe built from the built-in tables. It is built
// once and shared; a Universe has no mutating methods.
func Default() *Universe { return defaultUniverse() }

var defaultUniverse = sync.OnceValue(func() *Universe {
	u, err := Build(DefaultRanges(), DefaultMetastables())
	if err != nil {
		panic(err)
	}
	return u
})

// FromIDs sorts a deduplicated id list into a universe.
func FromIDs(ids []isotope.ID) *Universe {
	sorted := slices.Clone(ids)
	slices.SortFunc(sorted, Compare)
	sorted = slices.Compact(sorted)

	index := make(map[isotope.ID]int, len(sorted))
	for i, id := range sorted {
		index[id] = i
	}
	return &Universe{ids: sorted, index: index}
}

func (u *Universe) Len() int { return len(u.ids) }

// At returns the isotope at position i.
func (u *Universe) At(i int) isotope.ID { return u.ids[i] }

// IDs returns a copy of the ordered isotope list.
func (u *Universe) IDs() []isotope.ID { return slices.Clone(u.ids) }

// Location returns the position of id. A missing isotope is a normal
// outcome and is reported through ok.
func (u *Universe) Location(id isotope.ID) (int, bool) {
	i, ok := u.index[id]
	return i, ok
}

// Contains reports whether id is tracked.
func (u *Universe) Contains(id isotope.ID) bool {
	_, ok := u.index[id]
	return ok
}

// Vector lays a sparse composition out in universe order.
func (u *Universe) Vector(composition map[isotope.ID]float64) ([]float64, error) {
	vec := make([]float64, len(u.ids))
	for id, qty := range composition {
		i, ok := u.index[id]
		if !ok {
			return nil, &LookupError{ID: id, Context: "initial composition"}
		}
		vec[i] += qty
	}
	return vec, nil
}

// Sparse converts a universe-ordered vector back to an isotope map, dropping
// entries that are not positive.
func (u *Universe) Sparse(vec []float64) (map[isotope.ID]float64, error) {
	if len(vec) != len(u.ids) {
		return nil, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(vec), len(u.ids))
	}
	out := make(map[isotope.ID]float64)
	for i, v := range vec {
		if v > 0 {
			out[u.ids[i]] = v
		}
	}
	return out, nil
}
