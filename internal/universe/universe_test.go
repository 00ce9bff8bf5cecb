package universe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/transmute/internal/isotope"
)

func TestDefaultUniverseSize(t *testing.T) {
	u := Default()

	ground := 0
	for _, r := range DefaultRanges() {
		ground += r.MaxA - r.MinA + 1
	}
	assert.Greater(t, u.Len(), ground)
	assert.Less(t, u.Len(), ground+len(defaultMetastables)+1)
	assert.Greater(t, u.Len(), 2500)
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestUniverseOrdering(t *testing.T) {
	u := Default()
	ids := u.IDs()
	for i := 1; i < len(ids); i++ {
		require.True(t, Less(ids[i-1], ids[i]), "%s before %s", ids[i-1], ids[i])
	}

	hf178, _ := u.Location(isotope.MustParse("Hf178"))
	hf178m, _ := u.Location(isotope.MustParse("Hf178m"))
	hf178m2, _ := u.Location(isotope.MustParse("Hf178m2"))
	hf179, _ := u.Location(isotope.MustParse("Hf179"))
	assert.Equal(t, []int{hf178 + 1, hf178 + 2, hf178 + 3}, []int{hf178m, hf178m2, hf179})
}

func TestCompare(t *testing.T) {
	tc99 := isotope.MustParse("Tc99")
	tc99m := isotope.MustParse("Tc99m")
	tc100 := isotope.MustParse("Tc100")
	ru99 := isotope.MustParse("Ru99")

	assert.True(t, Less(tc99, tc99m))
	assert.True(t, Less(tc99m, tc100))
	assert.True(t, Less(tc100, ru99))
	assert.False(t, Less(tc99m, tc99))
	assert.Zero(t, Compare(tc99m, tc99m))
}

func TestLocationLeftInverse(t *testing.T) {
	u := Default()
	for i, id := range u.IDs() {
		loc, ok := u.Location(id)
		require.True(t, ok)
		require.Equal(t, i, loc)
		require.Equal(t, id, u.At(loc))
	}
}

func TestLocationNotFound(t *testing.T) {
	u := Default()
	for _, id := range []isotope.ID{isotope.MustParse("H99"), isotope.MustParse("Fe56m"), isotope.Encode(0, 26, 0), 0} {
		_, ok := u.Location(id)
		assert.False(t, ok, "%s", id)
		assert.False(t, u.Contains(id))
	}
}

func TestBuildUnionDeduplicates(t *testing.T) {
	ranges := RangeTable{1: {1, 3}, 2: {3, 4}}
	meta := MetastableTable{2: {isotope.Encode(1, 2, 3), isotope.Encode(1, 2, 3), isotope.Encode(2, 2, 3)}}
	u, err := Build(ranges, meta)
	require.NoError(t, err)

	want := []isotope.ID{
		isotope.Encode(0, 1, 1), isotope.Encode(0, 1, 2), isotope.Encode(0, 1, 3),
		isotope.Encode(0, 2, 3), isotope.Encode(1, 2, 3), isotope.Encode(2, 2, 3),
		isotope.Encode(0, 2, 4),
	}
	assert.Equal(t, want, u.IDs())
}

func TestBuildRejectsBadTables(t *testing.T) {
	tests := []struct {
		name   string
		ranges RangeTable
		meta   MetastableTable
	}{
		{"z zero", RangeTable{0: {1, 2}}, nil},
		{"z too large", RangeTable{101: {1, 2}}, nil},
		{"inverted range", RangeTable{5: {12, 8}}, nil},
		{"natural element", RangeTable{5: {0, 8}}, nil},
		{"ground state in metastable table", nil, MetastableTable{43: {isotope.Encode(0, 43, 99)}}},
		{"z mismatch", nil, MetastableTable{44: {isotope.Encode(1, 43, 99)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.ranges, tt.meta)
			assert.ErrorIs(t, err, ErrBadTable)
		})
	}
}

func TestDefaultTablesAreCopies(t *testing.T) {
	r := DefaultRanges()
	r[1] = Range{1, 1}
	assert.Equal(t, Range{1, 7}, DefaultRanges()[1])

	m := DefaultMetastables()
	m[43] = nil
	assert.NotEmpty(t, DefaultMetastables()[43])
}

func TestVectorAndSparse(t *testing.T) {
	u := FromIDs([]isotope.ID{isotope.MustParse("He3"), isotope.MustParse("H3"), isotope.MustParse("H1")})
	assert.Equal(t, []isotope.ID{isotope.MustParse("H1"), isotope.MustParse("H3"), isotope.MustParse("He3")}, u.IDs())

	vec, err := u.Vector(map[isotope.ID]float64{isotope.MustParse("H3"): 100})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 100, 0}, vec)

	sparse, err := u.Sparse([]float64{-1e-12, 56.97, 43.03})
	require.NoError(t, err)
	assert.Equal(t, map[isotope.ID]float64{
		isotope.MustParse("H3"):  56.97,
		isotope.MustParse("He3"): 43.03,
	}, sparse)

	_, err = u.Sparse([]float64{1})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestVectorRejectsUntrackedIsotope(t *testing.T) {
	u := FromIDs([]isotope.ID{isotope.MustParse("H3")})
	_, err := u.Vector(map[isotope.ID]float64{isotope.MustParse("U235"): 1})
	require.ErrorIs(t, err, ErrNotInUniverse)

	var lookup *LookupError
	require.ErrorAs(t, err, &lookup)
	assert.Equal(t, isotope.MustParse("U235"), lookup.ID)
}
