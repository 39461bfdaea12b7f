// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/kernels/internal/tensor"
)

// Shape represents the dimensions of a buffer.
type Shape = tensor.Shape

// Buffer is a dense row-major float32 array.
type Buffer = tensor.Buffer

// Allocator hands out zero-filled buffers.
type Allocator = tensor.Allocator

// HeapAllocator allocates buffers on the Go heap.
type HeapAllocator = tensor.HeapAllocator

// Arena is a fixed-capacity bump allocator.
type Arena = tensor.Arena

// Marker is implemented by allocators that can undo a partial allocation.
type Marker = tensor.Marker

// Byte-size helpers for arena capacities.
const (
	KiB = tensor.KiB
	MiB = tensor.MiB
	GiB = tensor.GiB
)

// DefaultMaxElements bounds a single heap allocation.
const DefaultMaxElements = tensor.DefaultMaxElements

// Heap is the default allocator.
var Heap = tensor.Heap

// Error kinds. Test for them with errors.Is.
var (
	ErrInvalidDimension  = tensor.ErrInvalidDimension
	ErrShapeMismatch     = tensor.ErrShapeMismatch
	ErrAllocationFailure = tensor.ErrAllocationFailure
)

// New returns a zero-filled buffer allocated on the heap.
func New(shape Shape) (*Buffer, error) {
	return tensor.New(shape)
}

// FromSlice wraps data without copying it.
//
// Returns ErrShapeMismatch if len(data) differs from the shape's element count.
func FromSlice(data []float32, shape Shape) (*Buffer, error) {
	return tensor.FromSlice(data, shape)
}

// FromRows copies a slice of equal-length rows into a [len(rows), len(rows[0])] buffer.
func FromRows(rows [][]float32) (*Buffer, error) {
	return tensor.FromRows(rows)
}

// NewArena reserves capacityBytes for float32 buffers.
func NewArena(capacityBytes int) (*Arena, error) {
	return tensor.NewArena(capacityBytes)
}

// MatMulInto computes dst = op(a)·op(b) + beta·dst.
func MatMulInto(dst, a, b *Buffer, transA, transB bool, beta float32) error {
	return tensor.MatMulInto(dst, a, b, transA, transB, beta)
}

// AddRowVector adds v to every row of dst.
func AddRowVector(dst, v *Buffer) error {
	return tensor.AddRowVector(dst, v)
}

// ColSumInto writes (or adds, when accumulate is set) the column sums of a into dst.
func ColSumInto(dst, a *Buffer, accumulate bool) error {
	return tensor.ColSumInto(dst, a, accumulate)
}

// Axpy computes y += alpha·x.
func Axpy(alpha float32, x, y *Buffer) error {
	return tensor.Axpy(alpha, x, y)
}

// Scale multiplies every element of a by s.
func Scale(a *Buffer, s float32) {
	tensor.Scale(a, s)
}
