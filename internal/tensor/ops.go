package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// general views a rank-2 buffer as a BLAS matrix sharing its storage.
func general(b *Buffer) blas32.General {
	return blas32.General{Rows: b.shape[0], Cols: b.shape[1], Stride: b.shape[1], Data: b.data}
}

// vector views the whole buffer as a unit-stride BLAS vector.
func vector(b *Buffer) blas32.Vector {
	return blas32.Vector{N: len(b.data), Inc: 1, Data: b.data}
}

func rowVector(row []float32) blas32.Vector {
	return blas32.Vector{N: len(row), Inc: 1, Data: row}
}

func transpose(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

func requireRank(name string, b *Buffer, rank int) error {
	if len(b.shape) != rank {
		return fmt.Errorf("%w: %s must be rank %d, got shape %v", ErrShapeMismatch, name, rank, b.shape)
	}
	return nil
}

// MatMulInto computes dst = op(a) · op(b) + beta·dst, where op transposes
// its argument when the matching flag is set.
//
// Shapes:
//   - op(a): [m, k]
//   - op(b): [k, n]
//   - dst:   [m, n]
//
// With beta == 0 the previous contents of dst are ignored. dst must not
// share storage with a or b. Returns ErrShapeMismatch without touching dst
// if the shapes disagree.
func MatMulInto(dst, a, b *Buffer, transA, transB bool, beta float32) error {
	for _, op := range []struct {
		name string
		buf  *Buffer
	}{{"dst", dst}, {"lhs", a}, {"rhs", b}} {
		if err := requireRank(op.name, op.buf, 2); err != nil {
			return err
		}
	}

	m, k := a.shape[0], a.shape[1]
	if transA {
		m, k = k, m
	}
	k2, n := b.shape[0], b.shape[1]
	if transB {
		k2, n = n, k2
	}
	if k != k2 {
		return fmt.Errorf("%w: matmul inner dimensions %d vs %d", ErrShapeMismatch, k, k2)
	}
	if dst.shape[0] != m || dst.shape[1] != n {
		return fmt.Errorf("%w: matmul output %v, want [%d %d]", ErrShapeMismatch, dst.shape, m, n)
	}

	blas32.Gemm(transpose(transA), transpose(transB), 1, general(a), general(b), beta, general(dst))
	return nil
}

// AddRowVector adds v[c] to every row of the rank-2 buffer dst.
func AddRowVector(dst, v *Buffer) error {
	if err := requireRank("dst", dst, 2); err != nil {
		return err
	}
	if err := requireRank("row vector", v, 1); err != nil {
		return err
	}
	if v.shape[0] != dst.shape[1] {
		return fmt.Errorf("%w: row vector %v for matrix %v", ErrShapeMismatch, v.shape, dst.shape)
	}
	x := vector(v)
	for r := 0; r < dst.shape[0]; r++ {
		blas32.Axpy(1, x, rowVector(dst.Row(r)))
	}
	return nil
}

// ColSumInto writes the column sums of the rank-2 buffer a into the rank-1
// buffer dst. With accumulate set the sums are added to dst instead.
func ColSumInto(dst, a *Buffer, accumulate bool) error {
	if err := requireRank("matrix", a, 2); err != nil {
		return err
	}
	if err := requireRank("dst", dst, 1); err != nil {
		return err
	}
	if dst.shape[0] != a.shape[1] {
		return fmt.Errorf("%w: column sums of %v into %v", ErrShapeMismatch, a.shape, dst.shape)
	}
	if !accumulate {
		dst.Fill(0)
	}
	y := vector(dst)
	for r := 0; r < a.shape[0]; r++ {
		blas32.Axpy(1, rowVector(a.Row(r)), y)
	}
	return nil
}

// RowMax returns the maximum of every row of a rank-2 buffer.
func RowMax(a *Buffer) ([]float32, error) {
	if err := requireRank("matrix", a, 2); err != nil {
		return nil, err
	}
	out := make([]float32, a.shape[0])
	for r := range out {
		row := a.Row(r)
		m := row[0]
		for _, v := range row[1:] {
			if v > m {
				m = v
			}
		}
		out[r] = m
	}
	return out, nil
}

// Axpy computes y += alpha·x element-wise. Shapes must match exactly.
//
// This is the SGD kernel: Axpy(-lr, grad, param).
func Axpy(alpha float32, x, y *Buffer) error {
	if !x.shape.Equal(y.shape) {
		return fmt.Errorf("%w: axpy %v into %v", ErrShapeMismatch, x.shape, y.shape)
	}
	blas32.Axpy(alpha, vector(x), vector(y))
	return nil
}

// Scale multiplies every element of a by s in place.
func Scale(a *Buffer, s float32) {
	blas32.Scal(s, vector(a))
}
