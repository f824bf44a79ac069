package vectorizer

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Vector is a sparse row with strictly increasing indices.
type Vector struct {
	Indices []int
	Values  []float64
}

// Dot computes the dot product with a dense weight vector.
func (v Vector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += v.Values[i] * dense[idx]
	}
	return sum
}

// AddScaledTo adds alpha*v to dense in place.
func (v Vector) AddScaledTo(dense []float64, alpha float64) {
	for i, idx := range v.Indices {
		dense[idx] += alpha * v.Values[i]
	}
}

// Norm returns the Euclidean norm of v.
func (v Vector) Norm() float64 {
	return floats.Norm(v.Values, 2)
}

// Nnz returns the number of stored entries.
func (v Vector) Nnz() int {
	return len(v.Indices)
}

// At returns the value at column j, zero when absent.
func (v Vector) At(j int) float64 {
	k := sort.SearchInts(v.Indices, j)
	if k < len(v.Indices) && v.Indices[k] == j {
		return v.Values[k]
	}
	return 0
}

// Matrix is a row-major sparse feature matrix. It satisfies mat.Matrix so
// gonum routines and Dims can be used on it directly.
type Matrix struct {
	rows []Vector
	cols int
}

var _ mat.Matrix = (*Matrix)(nil)

// NewMatrix wraps rows of width cols.
func NewMatrix(rows []Vector, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols}
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (r, c int) {
	return len(m.rows), m.cols
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= len(m.rows) || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	return m.rows[i].At(j)
}

// T returns the implicit transpose of m.
func (m *Matrix) T() mat.Matrix {
	return mat.Transpose{Matrix: m}
}

// Row returns row i.
func (m *Matrix) Row(i int) Vector {
	return m.rows[i]
}

// Nnz returns the number of stored entries across all rows.
func (m *Matrix) Nnz() int {
	n := 0
	for _, r := range m.rows {
		n += r.Nnz()
	}
	return n
}
