// Package sparse stores transition matrices over a dense index space.
//
// A [Matrix] accumulates entries additively during assembly; [Matrix.Compile]
// freezes it into a [CSR] for products and factorization. Transition
// matrices typically hold a handful of entries per column, so storage is
// proportional to the number of nonzeros rather than to n².
//
// # Thread Safety
//
// Matrix is NOT safe for concurrent writers. CSR and LU are read-only after
// construction and may be shared.
package sparse

import (
	"fmt"
	"math"
	"slices"
)

// Matrix is a row-keyed coordinate accumulator.
type Matrix struct {
	rows, cols int
	data       []map[int]float64
	nnz        int
}

// New allocates an empty rows×cols matrix.
func New(rows, cols int) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrBadShape, rows, cols)
	}
	return &Matrix{rows: rows, cols: cols, data: make([]map[int]float64, rows)}, nil
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int { return m.nnz }

func (m *Matrix) check(i, j int) error {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		return fmt.Errorf("%w: (%d,%d) in %dx%d", ErrOutOfRange, i, j, m.rows, m.cols)
	}
	return nil
}

// Add accumulates v into entry (i, j). It never overwrites.
func (m *Matrix) Add(i, j int, v float64) error {
	if err := m.check(i, j); err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: (%d,%d)", ErrNaNInf, i, j)
	}
	row := m.data[i]
	if row == nil {
		row = make(map[int]float64, 4)
		m.data[i] = row
	}
	if _, ok := row[j]; !ok {
		m.nnz++
	}
	row[j] += v
	return nil
}

// At returns entry (i, j); absent entries are zero.
func (m *Matrix) At(i, j int) (float64, error) {
	if err := m.check(i, j); err != nil {
		return 0, err
	}
	return m.data[i][j], nil
}

// Do visits stored entries in row-major order until fn returns false.
func (m *Matrix) Do(fn func(i, j int, v float64) bool) {
	for i, row := range m.data {
		for _, j := range sortedKeys(row) {
			if !fn(i, j, row[j]) {
				return
			}
		}
	}
}

// Clone returns a deep copy.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: m.rows, cols: m.cols, data: make([]map[int]float64, m.rows), nnz: m.nnz}
	for i, row := range m.data {
		if row == nil {
			continue
		}
		cr := make(map[int]float64, len(row))
		for j, v := range row {
			cr[j] = v
		}
		c.data[i] = cr
	}
	return c
}

// Compile freezes the matrix into compressed sparse row form.
func (m *Matrix) Compile() *CSR {
	c := &CSR{
		rows:   m.rows,
		cols:   m.cols,
		rowPtr: make([]int, m.rows+1),
		colIdx: make([]int, 0, m.nnz),
		val:    make([]float64, 0, m.nnz),
	}
	for i, row := range m.data {
		for _, j := range sortedKeys(row) {
			c.colIdx = append(c.colIdx, j)
			c.val = append(c.val, row[j])
		}
		c.rowPtr[i+1] = len(c.colIdx)
	}
	return c
}

func sortedKeys(row map[int]float64) []int {
	keys := make([]int, 0, len(row))
	for j := range row {
		keys = append(keys, j)
	}
	slices.Sort(keys)
	return keys
}
