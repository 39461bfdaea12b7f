package nn

import (
	"errors"
	"fmt"

	"github.com/born-ml/kernels/internal/tensor"
)

// Error kinds returned by operator constructors and execution methods.
// Test for them with errors.Is.
var (
	ErrInvalidDimension  = tensor.ErrInvalidDimension
	ErrShapeMismatch     = tensor.ErrShapeMismatch
	ErrAllocationFailure = tensor.ErrAllocationFailure

	ErrStaleCache          = errors.New("stale cache: backward called without a preceding forward")
	ErrStaleGradient       = errors.New("stale gradient: update called without a preceding backward")
	ErrLabelOutOfRange     = errors.New("label out of range")
	ErrUnknownFill         = errors.New("unknown fill strategy")
	ErrMissingRng          = errors.New("random source required")
	ErrInvalidLearningRate = errors.New("invalid learning rate")
)

// OpError records the operation that failed and the error kind behind it.
type OpError struct {
	Op     string // Operation, e.g. "Linear.Forward"
	Err    error  // Error kind (one of the Err* values) or a wrapped kernel error
	Detail string // Optional human-readable context
}

// Error implements the error interface.
func (e *OpError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("nn: %s: %v: %s", e.Op, e.Err, e.Detail)
	}
	return fmt.Sprintf("nn: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error kind.
func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op string, err error, format string, args ...any) *OpError {
	return &OpError{Op: op, Err: err, Detail: fmt.Sprintf(format, args...)}
}

func wrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}
