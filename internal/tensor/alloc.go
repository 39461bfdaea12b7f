package tensor

import "fmt"

// Byte-size helpers for arena capacities.
const (
	KiB = 1 << 10
	MiB = 1 << 20
	GiB = 1 << 30
)

// elementSize is the size of one float32 element in bytes.
const elementSize = 4

// DefaultMaxElements bounds a single heap allocation (1 GiB of float32 values).
const DefaultMaxElements = GiB / elementSize

// Allocator hands out zero-filled buffers.
//
// Operators allocate every buffer they own through an Allocator, so a caller
// can bound the memory an operator may claim (see Arena).
type Allocator interface {
	Alloc(shape Shape) (*Buffer, error)
}

// HeapAllocator allocates buffers on the Go heap.
type HeapAllocator struct {
	// MaxElements caps the element count of one allocation.
	// Zero means DefaultMaxElements.
	MaxElements int
}

// Heap is the default allocator.
var Heap Allocator = HeapAllocator{}

// Alloc implements Allocator.
func (h HeapAllocator) Alloc(shape Shape) (*Buffer, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	limit := h.MaxElements
	if limit <= 0 {
		limit = DefaultMaxElements
	}
	n, ok := shape.checkedElements()
	if !ok || n > limit {
		return nil, fmt.Errorf("%w: shape %v exceeds %d elements", ErrAllocationFailure, shape, limit)
	}
	return wrap(make([]float32, n), shape), nil
}

// Marker is implemented by allocators that can release every buffer handed
// out after a given point. Constructors use it to undo a partial allocation.
type Marker interface {
	// Mark returns the current allocation position.
	Mark() int
	// Rollback releases everything allocated since mark was taken.
	Rollback(mark int)
}

// Arena is a fixed-capacity bump allocator.
//
// All buffers are carved out of one slab allocated up front. Buffers stay
// valid until Reset, after which their storage is handed out again.
//
// Example:
//
//	arena, _ := tensor.NewArena(64 * tensor.KiB)
//	lin, err := nn.NewLinearWithAllocator(cfg, rng, arena)
type Arena struct {
	slab []float32
	pos  int
}

var _ Marker = (*Arena)(nil)

// NewArena creates an arena holding capacityBytes bytes (rounded down to whole elements).
func NewArena(capacityBytes int) (*Arena, error) {
	if capacityBytes < elementSize {
		return nil, fmt.Errorf("%w: arena capacity %d bytes", ErrInvalidDimension, capacityBytes)
	}
	return &Arena{slab: make([]float32, capacityBytes/elementSize)}, nil
}

// Alloc implements Allocator.
//
// Returns ErrAllocationFailure if the remaining capacity cannot hold shape.
func (a *Arena) Alloc(shape Shape) (*Buffer, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	n, ok := shape.checkedElements()
	if !ok || n > len(a.slab)-a.pos {
		return nil, fmt.Errorf("%w: shape %v needs %d bytes, arena has %d left",
			ErrAllocationFailure, shape, n*elementSize, a.Remaining())
	}
	data := a.slab[a.pos : a.pos+n : a.pos+n]
	for i := range data {
		data[i] = 0
	}
	a.pos += n
	return wrap(data, shape), nil
}

// Used returns the number of bytes handed out since the last Reset.
func (a *Arena) Used() int {
	return a.pos * elementSize
}

// Remaining returns the number of bytes still available.
func (a *Arena) Remaining() int {
	return (len(a.slab) - a.pos) * elementSize
}

// Capacity returns the arena size in bytes.
func (a *Arena) Capacity() int {
	return len(a.slab) * elementSize
}

// Reset releases every buffer handed out so far.
func (a *Arena) Reset() {
	a.pos = 0
}

// Mark implements Marker.
func (a *Arena) Mark() int {
	return a.pos
}

// Rollback implements Marker. Buffers allocated after mark must no longer
// be used. A mark that is not between zero and the current position is ignored.
func (a *Arena) Rollback(mark int) {
	if mark < 0 || mark > a.pos {
		return
	}
	a.pos = mark
}
