// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense float32 buffers the operators in package
// nn read and write.
//
// # Overview
//
// A Buffer is a contiguous row-major array with a shape. Operators work on
// rank-2 buffers shaped [batch, features] and rank-1 buffers shaped [n].
//
//	x, err := tensor.FromRows([][]float32{{1, 2}, {3, 4}})
//	y, err := tensor.New(tensor.Shape{2, 3}) // zero-filled
//
// # Allocation
//
// Every buffer an operator owns comes from an Allocator. The default Heap
// allocator uses the Go heap. An Arena pre-reserves a fixed number of bytes
// and fails with ErrAllocationFailure once they are exhausted:
//
//	arena, err := tensor.NewArena(64 * tensor.KiB)
//	buf, err := arena.Alloc(tensor.Shape{16, 4})
//
// # Kernels
//
// MatMulInto, AddRowVector, ColSumInto, Axpy and Scale are thin wrappers over
// gonum's float32 BLAS. They validate shapes before writing anything.
package tensor
