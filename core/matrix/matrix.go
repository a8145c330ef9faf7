// Package matrix provides an immutable dense matrix over gonum/mat.
//
// Every operation returns a new Matrix; the receiver is never modified. Inputs are
// validated on construction so later arithmetic never sees ragged rows or non-finite
// cells.
package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/stackreg/pkg/errors"
)

// Matrix is an immutable rows×cols matrix of float64.
type Matrix struct {
	d       *mat.Dense
	condTol float64
}

// Option configures a Matrix.
type Option func(*Matrix)

// WithConditionTolerance sets the condition number above which Inverse reports a
// singular matrix. The default is mat.ConditionTolerance.
func WithConditionTolerance(tol float64) Option {
	return func(m *Matrix) {
		if tol > 0 {
			m.condTol = tol
		}
	}
}

// New builds a matrix from row slices. The input is copied.
func New(rows [][]float64, opts ...Option) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.NewModelError("matrix.New", "empty data", errors.ErrEmptyData)
	}
	c := len(rows[0])
	data := make([]float64, 0, len(rows)*c)
	for i, row := range rows {
		if len(row) != c {
			return nil, errors.NewValueError("matrix.New",
				fmt.Sprintf("ragged rows: row %d has %d cells, want %d", i, len(row), c))
		}
		data = append(data, row...)
	}
	if err := errors.CheckRows("matrix.New", rows); err != nil {
		return nil, err
	}
	return wrap(mat.NewDense(len(rows), c, data), opts...), nil
}

// Must is like New but panics on error. Intended for literals in tests and examples.
func Must(rows [][]float64, opts ...Option) *Matrix {
	m, err := New(rows, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func wrap(d *mat.Dense, opts ...Option) *Matrix {
	m := &Matrix{d: d, condTol: mat.ConditionTolerance}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithOptions returns a matrix sharing m's elements with opts applied.
func (m *Matrix) WithOptions(opts ...Option) *Matrix {
	out := m.derive(m.d)
	for _, opt := range opts {
		opt(out)
	}
	return out
}

func (m *Matrix) derive(d *mat.Dense) *Matrix {
	return &Matrix{d: d, condTol: m.condTol}
}

// Size returns the number of rows and columns.
func (m *Matrix) Size() (rows, cols int) {
	return m.d.Dims()
}

// At returns the element at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	return m.d.At(i, j)
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.d)
}

// Column returns a copy of column j.
func (m *Matrix) Column(j int) []float64 {
	return mat.Col(nil, j, m.d)
}

// ToArray returns a copy of the matrix as row slices.
func (m *Matrix) ToArray() [][]float64 {
	r, _ := m.d.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = m.Row(i)
	}
	return out
}

// Dense exposes the matrix for gonum interop. Callers must not modify it.
func (m *Matrix) Dense() mat.Matrix {
	return m.d
}

// Equal reports whether both matrices have the same shape and identical elements.
func (m *Matrix) Equal(other *Matrix) bool {
	return mat.Equal(m.d, other.d)
}

// Transpose returns the transpose.
func (m *Matrix) Transpose() *Matrix {
	return m.derive(mat.DenseCopyOf(m.d.T()))
}

// Multiply returns m × other.
func (m *Matrix) Multiply(other *Matrix) (*Matrix, error) {
	_, c := m.d.Dims()
	r, _ := other.d.Dims()
	if c != r {
		return nil, errors.NewDimensionError("Matrix.Multiply", c, r, 0)
	}
	var out mat.Dense
	out.Mul(m.d, other.d)
	return m.derive(&out), nil
}

// Map returns a matrix whose cells are fn applied to each cell of m.
func (m *Matrix) Map(fn func(v float64, row, col int) float64) *Matrix {
	r, c := m.d.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return fn(v, i, j)
	}, m.d)
	return m.derive(out)
}

// Det returns the determinant. It is NaN for non-square matrices.
func (m *Matrix) Det() float64 {
	r, c := m.d.Dims()
	if r != c {
		return math.NaN()
	}
	return mat.Det(m.d)
}

// Inverse returns the inverse of a square matrix. A zero or non-finite determinant,
// or a condition number above the configured tolerance, is reported as a singular
// matrix.
func (m *Matrix) Inverse() (*Matrix, error) {
	r, c := m.d.Dims()
	if r != c {
		return nil, errors.NewDimensionError("Matrix.Inverse", r, c, 1)
	}

	det := mat.Det(m.d)
	if det == 0 || !errors.IsFinite(det) {
		return nil, errors.NewSingularMatrixError("Matrix.Inverse")
	}

	var lu mat.LU
	lu.Factorize(m.d)
	if cond := lu.Cond(); math.IsInf(cond, 1) || cond > m.condTol {
		return nil, errors.NewSingularMatrixError("Matrix.Inverse")
	}

	var inv mat.Dense
	if err := inv.Inverse(m.d); err != nil {
		// gonum flags anything above mat.ConditionTolerance; a larger configured
		// tolerance accepts the computed result.
		var cond mat.Condition
		if !errors.As(err, &cond) || float64(cond) > m.condTol {
			return nil, errors.NewSingularMatrixError("Matrix.Inverse")
		}
	}
	for i := 0; i < r; i++ {
		if err := errors.CheckNumericalStability("Matrix.Inverse", inv.RawRowView(i)); err != nil {
			return nil, errors.NewSingularMatrixError("Matrix.Inverse")
		}
	}
	return m.derive(&inv), nil
}
