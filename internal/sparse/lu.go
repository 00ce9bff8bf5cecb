package sparse

import (
	"container/heap"
	"fmt"
	"math"
	"slices"
)

// LU holds L (unit lower, strictly-lower part stored) and U factors of a
// square matrix.
type LU struct {
	n    int
	lIdx [][]int
	lVal [][]float64
	uIdx [][]int
	uVal [][]float64
	diag []float64
	fill int
}

// FactorShifted factors alpha·I + beta·m by row-wise Gaussian elimination
// without pivoting.
//
// Elimination is stable without pivoting when alpha·I + beta·m is column
// diagonally dominant, that is alpha + beta·m_jj ≥ |beta|·Σ_{i≠j} |m_ij| for
// every column j. Decay-only transition matrices with branching sums ≤ 1 meet
// this for alpha = 1, beta = −h and any h > 0. Fission columns, whose yields
// sum above one, do not; elimination still runs on them but growth in L and
// U is not bounded. A zero, NaN or infinite pivot returns ErrSingular.
//
// maxFill caps the number of stored L and U entries; 0 means no cap.
func FactorShifted(m *CSR, alpha, beta float64, maxFill int) (*LU, error) {
	if m.rows != m.cols {
		return nil, fmt.Errorf("%w: %dx%d", ErrNonSquare, m.rows, m.cols)
	}
	n := m.rows
	f := &LU{
		n:    n,
		lIdx: make([][]int, n),
		lVal: make([][]float64, n),
		uIdx: make([][]int, n),
		uVal: make([][]float64, n),
		diag: make([]float64, n),
	}

	w := make([]float64, n)
	marked := make([]bool, n)
	touched := make([]int, 0, 64)
	upper := make([]int, 0, 64)
	lower := &intHeap{}

	for i := 0; i < n; i++ {
		touched = append(touched[:0], i)
		upper = upper[:0]
		*lower = (*lower)[:0]
		marked[i] = true
		w[i] = alpha

		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			j := m.colIdx[k]
			if j == i {
				w[i] += beta * m.val[k]
				continue
			}
			marked[j] = true
			touched = append(touched, j)
			w[j] = beta * m.val[k]
			if j < i {
				heap.Push(lower, j)
			} else {
				upper = append(upper, j)
			}
		}

		var li []int
		var lv []float64
		for lower.Len() > 0 {
			k := heap.Pop(lower).(int)
			l := w[k] / f.diag[k]
			if l == 0 {
				continue
			}
			li = append(li, k)
			lv = append(lv, l)
			for idx, j := range f.uIdx[k] {
				if !marked[j] {
					marked[j] = true
					touched = append(touched, j)
					w[j] = 0
					if j < i {
						heap.Push(lower, j)
					} else {
						upper = append(upper, j)
					}
				}
				w[j] -= l * f.uVal[k][idx]
			}
		}

		pivot := w[i]
		if pivot == 0 || math.IsNaN(pivot) || math.IsInf(pivot, 0) {
			return nil, fmt.Errorf("%w: zero pivot at row %d", ErrSingular, i)
		}
		f.diag[i] = pivot
		f.lIdx[i], f.lVal[i] = li, lv

		slices.Sort(upper)
		var ui []int
		var uv []float64
		for _, j := range upper {
			if w[j] != 0 {
				ui = append(ui, j)
				uv = append(uv, w[j])
			}
		}
		f.uIdx[i], f.uVal[i] = ui, uv

		f.fill += len(li) + len(ui) + 1
		if maxFill > 0 && f.fill > maxFill {
			return nil, fmt.Errorf("%w: %d entries at row %d, limit %d", ErrWorkspace, f.fill, i, maxFill)
		}

		for _, j := range touched {
			marked[j] = false
			w[j] = 0
		}
	}
	return f, nil
}

// Fill returns the number of stored factor entries, diagonal included.
func (f *LU) Fill() int { return f.fill }

// Solve writes the solution of A·x = b into dst. dst may alias b.
func (f *LU) Solve(dst, b []float64) {
	if &dst[0] != &b[0] {
		copy(dst, b)
	}
	for i := 0; i < f.n; i++ {
		s := dst[i]
		for idx, k := range f.lIdx[i] {
			s -= f.lVal[i][idx] * dst[k]
		}
		dst[i] = s
	}
	for i := f.n - 1; i >= 0; i-- {
		s := dst[i]
		for idx, j := range f.uIdx[i] {
			s -= f.uVal[i][idx] * dst[j]
		}
		dst[i] = s / f.diag[i]
	}
}

type intHeap []int

func (h intHeap) Len() int           { return len(h) }
func (h intHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}
