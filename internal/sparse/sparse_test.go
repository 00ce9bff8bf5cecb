package sparse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, rows, cols int) *Matrix {
	t.Helper()
	m, err := New(rows, cols)
	require.NoError(t, err)
	return m
}

func TestNewRejectsBadShape(t *testing.T) {
	_, err := New(0, 3)
	assert.ErrorIs(t, err, ErrBadShape)
	_, err = New(3, -1)
	assert.ErrorIs(t, err, ErrBadShape)
}

func TestAddIsAdditive(t *testing.T) {
	m := mustNew(t, 3, 3)
	require.NoError(t, m.Add(1, 0, 0.25))
	require.NoError(t, m.Add(1, 0, 0.5))
	require.NoError(t, m.Add(0, 0, -1))

	v, err := m.At(1, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, v, 0)
	assert.Equal(t, 2, m.NNZ())

	v, err = m.At(2, 2)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestAddOrderIndependent(t *testing.T) {
	entries := []struct {
		i, j int
		v    float64
	}{{0, 0, -2}, {1, 0, 1.5}, {2, 0, 0.5}, {1, 1, -1}, {2, 1, 1}, {1, 0, 0.25}}

	a := mustNew(t, 3, 3)
	for _, e := range entries {
		require.NoError(t, a.Add(e.i, e.j, e.v))
	}
	b := mustNew(t, 3, 3)
	for k := len(entries) - 1; k >= 0; k-- {
		e := entries[k]
		require.NoError(t, b.Add(e.i, e.j, e.v))
	}
	assert.Equal(t, a.Compile(), b.Compile())
}

func TestAddRejects(t *testing.T) {
	m := mustNew(t, 2, 2)
	assert.ErrorIs(t, m.Add(2, 0, 1), ErrOutOfRange)
	assert.ErrorIs(t, m.Add(0, -1, 1), ErrOutOfRange)
	assert.ErrorIs(t, m.Add(0, 0, math.NaN()), ErrNaNInf)
	assert.ErrorIs(t, m.Add(0, 0, math.Inf(-1)), ErrNaNInf)
	_, err := m.At(5, 5)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDoVisitsInRowMajorOrder(t *testing.T) {
	m := mustNew(t, 3, 3)
	require.NoError(t, m.Add(2, 1, 3))
	require.NoError(t, m.Add(0, 2, 1))
	require.NoError(t, m.Add(0, 0, 2))

	var got [][3]float64
	m.Do(func(i, j int, v float64) bool {
		got = append(got, [3]float64{float64(i), float64(j), v})
		return true
	})
	assert.Equal(t, [][3]float64{{0, 0, 2}, {0, 2, 1}, {2, 1, 3}}, got)

	count := 0
	m.Do(func(i, j int, v float64) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestCloneIsIndependent(t *testing.T) {
	m := mustNew(t, 2, 2)
	require.NoError(t, m.Add(0, 1, 1))
	c := m.Clone()
	require.NoError(t, c.Add(0, 1, 1))

	v, _ := m.At(0, 1)
	assert.InDelta(t, 1, v, 0)
	v, _ = c.At(0, 1)
	assert.InDelta(t, 2, v, 0)
}

func TestCSR(t *testing.T) {
	m := mustNew(t, 3, 3)
	require.NoError(t, m.Add(0, 0, -1))
	require.NoError(t, m.Add(1, 0, 1))
	require.NoError(t, m.Add(1, 1, -2))
	require.NoError(t, m.Add(2, 1, 1.5))
	c := m.Compile()

	assert.Equal(t, 4, c.NNZ())
	assert.InDelta(t, 1.5, c.At(2, 1), 0)
	assert.Zero(t, c.At(2, 2))
	assert.Zero(t, c.At(7, 0))
	assert.Equal(t, []float64{-1, -2, 0}, c.Diagonal())
	assert.Equal(t, []float64{0, -0.5, 0}, c.ColumnSums())

	dst := make([]float64, 3)
	c.MulVec(dst, []float64{2, 4, 8})
	assert.Equal(t, []float64{-2, -6, 6}, dst)
}

func dense(c *CSR) [][]float64 {
	d := make([][]float64, c.Rows())
	for i := range d {
		d[i] = make([]float64, c.Cols())
		c.Row(i, func(j int, v float64) { d[i][j] = v })
	}
	return d
}

// transition builds a small network with entries above and below the
// diagonal so elimination produces fill-in.
func transition(t *testing.T) *CSR {
	m := mustNew(t, 5, 5)
	rates := []float64{0.5, 2, 0.1, 7, 0}
	for j, r := range rates {
		require.NoError(t, m.Add(j, j, -r))
	}
	require.NoError(t, m.Add(1, 0, 0.3))
	require.NoError(t, m.Add(4, 0, 0.2))
	require.NoError(t, m.Add(0, 3, 3))
	require.NoError(t, m.Add(2, 3, 4))
	require.NoError(t, m.Add(3, 1, 2))
	require.NoError(t, m.Add(4, 2, 0.1))
	return m.Compile()
}

func TestFactorShiftedSolves(t *testing.T) {
	c := transition(t)
	h := 3.0
	lu, err := FactorShifted(c, 1, -h, 0)
	require.NoError(t, err)

	want := []float64{1, -2, 0.5, 4, 3}
	a := dense(c)
	b := make([]float64, 5)
	for i := range b {
		b[i] = want[i]
		for j := range want {
			b[i] -= h * a[i][j] * want[j]
		}
	}

	x := make([]float64, 5)
	lu.Solve(x, b)
	for i := range want {
		assert.InDelta(t, want[i], x[i], 1e-12, "x[%d]", i)
	}

	// in place
	lu.Solve(b, b)
	assert.InDeltaSlice(t, want, b, 1e-12)
	assert.GreaterOrEqual(t, lu.Fill(), c.NNZ())
}

func TestFactorShiftedPreservesColumnSums(t *testing.T) {
	// (I - hM)^-1 keeps Σx when M has zero column sums.
	m := mustNew(t, 3, 3)
	require.NoError(t, m.Add(0, 0, -1))
	require.NoError(t, m.Add(1, 0, 1))
	require.NoError(t, m.Add(1, 1, -1e6))
	require.NoError(t, m.Add(2, 1, 1e6))
	lu, err := FactorShifted(m.Compile(), 1, -10, 0)
	require.NoError(t, err)

	x := make([]float64, 3)
	lu.Solve(x, []float64{5, 1, 0})
	assert.InDelta(t, 6, x[0]+x[1]+x[2], 1e-12)
}

func TestFactorShiftedFissionColumn(t *testing.T) {
	// Column 0 sums to +1 and closes a cycle through row 1, so the shifted
	// matrix is not column diagonally dominant.
	m := mustNew(t, 3, 3)
	require.NoError(t, m.Add(0, 0, -1))
	require.NoError(t, m.Add(1, 0, 1.5))
	require.NoError(t, m.Add(2, 0, 0.5))
	require.NoError(t, m.Add(1, 1, -2))
	require.NoError(t, m.Add(0, 1, 2))
	c := m.Compile()

	h := 0.1
	lu, err := FactorShifted(c, 1, -h, 0)
	require.NoError(t, err)

	want := []float64{2, 0.25, 1}
	a := dense(c)
	b := make([]float64, 3)
	for i := range b {
		b[i] = want[i]
		for j := range want {
			b[i] -= h * a[i][j] * want[j]
		}
	}
	x := make([]float64, 3)
	lu.Solve(x, b)
	assert.InDeltaSlice(t, want, x, 1e-12)

	// alpha + beta·m_00 = 0 leaves no pivot for row 0.
	_, err = FactorShifted(c, 1, 1, 0)
	assert.ErrorIs(t, err, ErrSingular)
}

func TestFactorShiftedErrors(t *testing.T) {
	rect := mustNew(t, 2, 3)
	require.NoError(t, rect.Add(0, 0, 1))
	_, err := FactorShifted(rect.Compile(), 1, 1, 0)
	assert.ErrorIs(t, err, ErrNonSquare)

	zero := mustNew(t, 2, 2)
	require.NoError(t, zero.Add(1, 0, 1))
	_, err = FactorShifted(zero.Compile(), 0, 1, 0)
	assert.ErrorIs(t, err, ErrSingular)

	_, err = FactorShifted(transition(t), 1, -1, 3)
	assert.ErrorIs(t, err, ErrWorkspace)
}

func BenchmarkFactorShifted(b *testing.B) {
	n := 3000
	m, _ := New(n, n)
	for j := 0; j < n; j++ {
		_ = m.Add(j, j, -float64(j%17+1))
		if j+1 < n {
			_ = m.Add(j+1, j, float64(j%17+1)*0.7)
		}
		if j >= 60 {
			_ = m.Add(j-60, j, float64(j%17+1)*0.3)
		}
	}
	c := m.Compile()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := FactorShifted(c, 1, -0.1, 0); err != nil {
			b.Fatal(err)
		}
	}
}
