package tensor

import (
	"fmt"
	"strings"
)

// Buffer is a contiguous, row-major block of float32 values plus its shape.
//
// The invariant len(data) == shape.NumElements() holds for every Buffer
// produced by this package. A Buffer is exclusively owned by whoever
// allocated it; operators that need an input after a call returns keep
// their own copy.
//
// Buffers are not safe for concurrent mutation.
type Buffer struct {
	shape  Shape
	stride []int
	data   []float32
}

// New allocates a zero-filled buffer with the given shape on the Go heap.
//
// Returns ErrInvalidDimension if any dimension is not strictly positive.
func New(shape Shape) (*Buffer, error) {
	return Heap.Alloc(shape)
}

// FromSlice wraps data in a buffer of the given shape.
//
// The slice is used directly (no copy). Returns ErrShapeMismatch if
// len(data) does not equal the number of elements in shape.
func FromSlice(data []float32, shape Shape) (*Buffer, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShapeMismatch, len(data), shape)
	}
	return wrap(data, shape), nil
}

// FromRows builds a [len(rows), len(rows[0])] buffer, copying the values.
//
// All rows must have the same non-zero length.
func FromRows(rows [][]float32) (*Buffer, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty rows", ErrInvalidDimension)
	}
	cols := len(rows[0])
	data := make([]float32, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return wrap(data, Shape{len(rows), cols}), nil
}

func wrap(data []float32, shape Shape) *Buffer {
	return &Buffer{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   data,
	}
}

// Shape returns a copy of the buffer's shape.
func (b *Buffer) Shape() Shape {
	return b.shape.Clone()
}

// Rank returns the number of dimensions.
func (b *Buffer) Rank() int {
	return len(b.shape)
}

// Rows returns the size of the leading dimension.
func (b *Buffer) Rows() int {
	return b.shape[0]
}

// Cols returns the size of the trailing dimension.
func (b *Buffer) Cols() int {
	return b.shape[len(b.shape)-1]
}

// NumElements returns the total number of elements.
func (b *Buffer) NumElements() int {
	return len(b.data)
}

// Data returns the backing slice.
// WARNING: Direct access to underlying memory. Writes are visible to every holder of b.
func (b *Buffer) Data() []float32 {
	return b.data
}

// Row returns row r of a rank-2 buffer as a sub-slice of the backing storage.
func (b *Buffer) Row(r int) []float32 {
	cols := b.Cols()
	return b.data[r*cols : (r+1)*cols]
}

// At returns the element at the given indices.
// Panics if the number of indices does not match the rank or an index is out of range.
func (b *Buffer) At(indices ...int) float32 {
	return b.data[b.offset(indices)]
}

// Set stores v at the given indices.
// Panics if the number of indices does not match the rank or an index is out of range.
func (b *Buffer) Set(v float32, indices ...int) {
	b.data[b.offset(indices)] = v
}

func (b *Buffer) offset(indices []int) int {
	if len(indices) != len(b.shape) {
		panic(fmt.Sprintf("tensor: %d indices for rank-%d buffer", len(indices), len(b.shape)))
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= b.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d of size %d", idx, i, b.shape[i]))
		}
		off += idx * b.stride[i]
	}
	return off
}

// Fill sets every element to v.
func (b *Buffer) Fill(v float32) {
	for i := range b.data {
		b.data[i] = v
	}
}

// Clone returns a deep copy on the Go heap.
func (b *Buffer) Clone() *Buffer {
	data := make([]float32, len(b.data))
	copy(data, b.data)
	return wrap(data, b.shape)
}

// CopyFrom overwrites b with the contents of src.
//
// Returns ErrShapeMismatch (and leaves b untouched) if the shapes differ.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if !b.shape.Equal(src.shape) {
		return fmt.Errorf("%w: copy %v into %v", ErrShapeMismatch, src.shape, b.shape)
	}
	copy(b.data, src.data)
	return nil
}

// String renders small buffers for debugging.
func (b *Buffer) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Buffer%v", b.shape)
	if len(b.shape) == 2 && len(b.data) <= 64 {
		sb.WriteString("[")
		for r := 0; r < b.Rows(); r++ {
			if r > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprint(&sb, b.Row(r))
		}
		sb.WriteString("]")
	} else if len(b.data) <= 64 {
		fmt.Fprint(&sb, b.data)
	}
	return sb.String()
}
