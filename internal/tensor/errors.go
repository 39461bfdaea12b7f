package tensor

import "errors"

// Error kinds shared by buffers, allocators and matrix kernels.
var (
	ErrInvalidDimension  = errors.New("invalid dimension")
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrAllocationFailure = errors.New("allocation failure")
)
