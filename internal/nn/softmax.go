package nn

import (
	"math"

	"github.com/born-ml/kernels/internal/tensor"
)

// SoftmaxConfig describes a row-wise softmax over vectors of length Dim.
type SoftmaxConfig struct {
	Dim int
}

// NewSoftmaxConfig validates and returns a SoftmaxConfig.
func NewSoftmaxConfig(dim int) (SoftmaxConfig, error) {
	cfg := SoftmaxConfig{Dim: dim}
	if err := cfg.validate("NewSoftmaxConfig"); err != nil {
		return SoftmaxConfig{}, err
	}
	return cfg, nil
}

func (c SoftmaxConfig) validate(op string) error {
	if c.Dim <= 0 {
		return opError(op, ErrInvalidDimension, "dim %d", c.Dim)
	}
	return nil
}

// Softmax normalizes every row of a [batch_size, dim] buffer into a
// probability distribution:
//
//	softmax(z)[i] = exp(z[i] - max(z)) / Σ exp(z[j] - max(z))
//
// Subtracting the row maximum keeps exp from overflowing for large inputs.
//
// Softmax has no parameters and no backward pass of its own: its gradient
// is folded into CrossEntropy.Backward, which yields p - y directly.
type Softmax struct {
	cfg SoftmaxConfig
}

var _ Module = (*Softmax)(nil)

// NewSoftmax creates a Softmax operator.
func NewSoftmax(cfg SoftmaxConfig) (*Softmax, error) {
	if err := cfg.validate("NewSoftmax"); err != nil {
		return nil, err
	}
	return &Softmax{cfg: cfg}, nil
}

// Forward returns a new buffer holding the row-wise softmax of input.
//
// Returns ErrShapeMismatch if input is not [batch_size, dim].
func (s *Softmax) Forward(input *tensor.Buffer) (*tensor.Buffer, error) {
	const op = "Softmax.Forward"
	if err := s.checkInput(op, input); err != nil {
		return nil, err
	}
	out, err := tensor.New(input.Shape())
	if err != nil {
		return nil, wrapOp(op, err)
	}
	softmaxRows(input, out)
	return out, nil
}

// ForwardInto writes the softmax of input into out, which must have the same shape.
// out may be input itself.
func (s *Softmax) ForwardInto(input, out *tensor.Buffer) error {
	const op = "Softmax.ForwardInto"
	if err := s.checkInput(op, input); err != nil {
		return err
	}
	if !out.Shape().Equal(input.Shape()) {
		return opError(op, ErrShapeMismatch, "output %v, want %v", out.Shape(), input.Shape())
	}
	softmaxRows(input, out)
	return nil
}

func (s *Softmax) checkInput(op string, input *tensor.Buffer) error {
	if input.Rank() != 2 {
		return opError(op, ErrShapeMismatch, "expected 2D input [batch, dim], got %v", input.Shape())
	}
	if input.Cols() != s.cfg.Dim {
		return opError(op, ErrShapeMismatch, "expected dim %d, got %d", s.cfg.Dim, input.Cols())
	}
	return nil
}

// Parameters returns nil (softmax has no trainable parameters).
func (s *Softmax) Parameters() []*Parameter {
	return nil
}

// Config returns the operator configuration.
func (s *Softmax) Config() SoftmaxConfig {
	return s.cfg
}

// softmaxRows computes the stable softmax of every row. Each element is read
// before its output slot is written, so out may alias in.
func softmaxRows(in, out *tensor.Buffer) {
	maxes, _ := tensor.RowMax(in) // rank checked by the caller
	for r, maxZ := range maxes {
		src, dst := in.Row(r), out.Row(r)

		var sum float64
		for i, v := range src {
			e := math.Exp(float64(v - maxZ))
			dst[i] = float32(e)
			sum += e
		}

		inv := 1 / sum
		for i := range dst {
			dst[i] = float32(float64(dst[i]) * inv)
		}
	}
}
