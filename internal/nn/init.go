package nn

import (
	"fmt"
	"math"

	"github.com/born-ml/kernels/internal/tensor"
)

// FillStrategy selects how a parameter buffer is initialized.
type FillStrategy int

// Supported fill strategies.
const (
	FillOnes FillStrategy = iota
	FillZeros
	FillXavierUniform
)

// String returns the strategy name.
func (f FillStrategy) String() string {
	switch f {
	case FillOnes:
		return "ones"
	case FillZeros:
		return "zeros"
	case FillXavierUniform:
		return "xavier_uniform"
	default:
		return fmt.Sprintf("FillStrategy(%d)", int(f))
	}
}

func (f FillStrategy) valid() bool {
	return f >= FillOnes && f <= FillXavierUniform
}

// Rng is the randomness source consumed by Xavier initialization.
//
// Float32 must return values in [0, 1). *math/rand/v2.Rand satisfies it;
// inject a seeded generator for reproducible weights.
type Rng interface {
	Float32() float32
}

// Fill initializes buf according to strategy.
//
// rng is only consulted for FillXavierUniform and may be nil otherwise.
func Fill(buf *tensor.Buffer, strategy FillStrategy, rng Rng) error {
	switch strategy {
	case FillOnes:
		buf.Fill(1)
	case FillZeros:
		buf.Fill(0)
	case FillXavierUniform:
		if rng == nil {
			return ErrMissingRng
		}
		fanIn, fanOut := fans(buf.Shape())
		xavierUniform(buf.Data(), fanIn, fanOut, rng)
	default:
		return fmt.Errorf("%w: %v", ErrUnknownFill, strategy)
	}
	return nil
}

// fans derives fan-in and fan-out from a parameter shape.
// [rows, cols] has fan-in cols and fan-out rows; a vector [n] is treated as [1, n].
func fans(shape tensor.Shape) (fanIn, fanOut int) {
	if len(shape) == 1 {
		return shape[0], 1
	}
	return shape[len(shape)-1], shape[len(shape)-2]
}

// XavierBound returns sqrt(6 / (fanIn + fanOut)).
func XavierBound(fanIn, fanOut int) float64 {
	return math.Sqrt(6.0 / float64(fanIn+fanOut))
}

// xavierUniform draws every element from U(-bound, bound) with the
// Xavier/Glorot bound, mapping u in [0, 1) to (2u - 1) * bound.
func xavierUniform(data []float32, fanIn, fanOut int, rng Rng) {
	bound := XavierBound(fanIn, fanOut)
	for i := range data {
		u := float64(rng.Float32())
		data[i] = float32((2.0*u - 1.0) * bound)
	}
}
