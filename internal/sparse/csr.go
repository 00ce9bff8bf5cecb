package sparse

import "sort"

// CSR is an immutable compressed-sparse-row matrix.
type CSR struct {
	rows, cols int
	rowPtr     []int
	colIdx     []int
	val        []float64
}

func (c *CSR) Rows() int { return c.rows }
func (c *CSR) Cols() int { return c.cols }
func (c *CSR) NNZ() int  { return len(c.val) }

// At returns entry (i, j), zero when absent or out of range.
func (c *CSR) At(i, j int) float64 {
	if i < 0 || i >= c.rows {
		return 0
	}
	lo, hi := c.rowPtr[i], c.rowPtr[i+1]
	k := lo + sort.SearchInts(c.colIdx[lo:hi], j)
	if k < hi && c.colIdx[k] == j {
		return c.val[k]
	}
	return 0
}

// MulVec writes c·x into dst. len(x) must equal Cols and len(dst) Rows;
// dst must not alias x.
func (c *CSR) MulVec(dst, x []float64) {
	for i := 0; i < c.rows; i++ {
		s := 0.0
		for k := c.rowPtr[i]; k < c.rowPtr[i+1]; k++ {
			s += c.val[k] * x[c.colIdx[k]]
		}
		dst[i] = s
	}
}

// Diagonal returns the main diagonal.
func (c *CSR) Diagonal() []float64 {
	n := min(c.rows, c.cols)
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		d[i] = c.At(i, i)
	}
	return d
}

// ColumnSums returns Σ_i c[i,j] for every column. For a transition matrix a
// zero column sum means the column's isotope loses no atoms out of the
// tracked set.
func (c *CSR) ColumnSums() []float64 {
	sums := make([]float64, c.cols)
	for k, j := range c.colIdx {
		sums[j] += c.val[k]
	}
	return sums
}

// Row calls fn for every stored entry of row i in column order.
func (c *CSR) Row(i int, fn func(j int, v float64)) {
	for k := c.rowPtr[i]; k < c.rowPtr[i+1]; k++ {
		fn(c.colIdx[k], c.val[k])
	}
}
