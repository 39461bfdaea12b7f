package nn

import (
	"math"

	"github.com/born-ml/kernels/internal/tensor"
)

// GradMode controls how Linear.Backward treats the existing gradient buffers.
type GradMode int

const (
	// GradOverwrite replaces the gradients on every backward pass (default).
	GradOverwrite GradMode = iota
	// GradAccumulate adds each backward pass into the gradients until ZeroGrad.
	GradAccumulate
)

// LinearConfig describes a fully connected layer.
//
// Build it with NewLinearConfig; the value is immutable afterwards.
type LinearConfig struct {
	InputDim   int          // Number of input features
	OutputDim  int          // Number of output features
	WeightFill FillStrategy // Initialization of the [OutputDim, InputDim] weight
	BiasFill   FillStrategy // Initialization of the [OutputDim] bias
	GradMode   GradMode     // Gradient overwrite or accumulation
}

// NewLinearConfig validates and returns a LinearConfig.
//
// Returns ErrInvalidDimension if either dimension is not strictly positive
// and ErrUnknownFill for an unsupported fill strategy.
func NewLinearConfig(inputDim, outputDim int, weightFill, biasFill FillStrategy) (LinearConfig, error) {
	cfg := LinearConfig{
		InputDim:   inputDim,
		OutputDim:  outputDim,
		WeightFill: weightFill,
		BiasFill:   biasFill,
	}
	if err := cfg.validate("NewLinearConfig"); err != nil {
		return LinearConfig{}, err
	}
	return cfg, nil
}

// WithGradMode returns a copy of the config using the given gradient mode.
func (c LinearConfig) WithGradMode(mode GradMode) LinearConfig {
	c.GradMode = mode
	return c
}

func (c LinearConfig) validate(op string) error {
	if c.InputDim <= 0 || c.OutputDim <= 0 {
		return opError(op, ErrInvalidDimension, "input %d, output %d", c.InputDim, c.OutputDim)
	}
	if !c.WeightFill.valid() {
		return opError(op, ErrUnknownFill, "weight fill %v", c.WeightFill)
	}
	if !c.BiasFill.valid() {
		return opError(op, ErrUnknownFill, "bias fill %v", c.BiasFill)
	}
	return nil
}

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x @ W.T + b
// where:
//   - x is the input with shape [batch_size, in_features]
//   - W is the weight matrix with shape [out_features, in_features]
//   - b is the bias vector with shape [out_features]
//   - y is the output with shape [batch_size, out_features]
//
// Linear keeps a private copy of the last forward input for Backward, so the
// caller may reuse its input buffer right after Forward returns.
//
// Example:
//
//	cfg, _ := nn.NewLinearConfig(784, 128, nn.FillXavierUniform, nn.FillZeros)
//	layer, _ := nn.NewLinear(cfg, rand.New(rand.NewPCG(1, 2)))
//	out, _ := layer.Forward(input) // [32, 784] -> [32, 128]
type Linear struct {
	cfg    LinearConfig
	weight *Parameter     // [out_features, in_features]
	bias   *Parameter     // [out_features]
	input  *tensor.Buffer // cached forward input, nil until the first Forward
}

var _ Module = (*Linear)(nil)

// NewLinear creates a Linear layer with buffers on the Go heap.
//
// rng is required when either fill strategy is FillXavierUniform.
func NewLinear(cfg LinearConfig, rng Rng) (*Linear, error) {
	return NewLinearWithAllocator(cfg, rng, tensor.Heap)
}

// NewLinearWithAllocator creates a Linear layer whose weight, bias and
// gradient buffers come from alloc.
//
// Returns ErrAllocationFailure if alloc cannot satisfy the buffers,
// ErrInvalidDimension for a malformed config and ErrMissingRng if Xavier
// initialization is requested without a random source. On failure an alloc
// implementing tensor.Marker is rolled back to where it was before the call.
func NewLinearWithAllocator(cfg LinearConfig, rng Rng, alloc tensor.Allocator) (lin *Linear, err error) {
	const op = "NewLinear"
	if err := cfg.validate(op); err != nil {
		return nil, err
	}
	if rng == nil && (cfg.WeightFill == FillXavierUniform || cfg.BiasFill == FillXavierUniform) {
		return nil, opError(op, ErrMissingRng, "xavier initialization")
	}

	if m, ok := alloc.(tensor.Marker); ok {
		mark := m.Mark()
		defer func() {
			if err != nil {
				m.Rollback(mark)
			}
		}()
	}

	weight, err := newParameter("weight", tensor.Shape{cfg.OutputDim, cfg.InputDim}, alloc)
	if err != nil {
		return nil, wrapOp(op, err)
	}
	bias, err := newParameter("bias", tensor.Shape{cfg.OutputDim}, alloc)
	if err != nil {
		return nil, wrapOp(op, err)
	}

	if err := Fill(weight.value, cfg.WeightFill, rng); err != nil {
		return nil, opError(op, err, "weight")
	}
	if err := Fill(bias.value, cfg.BiasFill, rng); err != nil {
		return nil, opError(op, err, "bias")
	}

	return &Linear{cfg: cfg, weight: weight, bias: bias}, nil
}

// Forward computes x @ W.T + b into a new [batch_size, out_features] buffer.
//
// Returns ErrShapeMismatch if input is not [batch_size, in_features]; the
// layer state is left unchanged in that case.
func (l *Linear) Forward(input *tensor.Buffer) (*tensor.Buffer, error) {
	const op = "Linear.Forward"
	if err := l.checkInput(op, input); err != nil {
		return nil, err
	}
	out, err := tensor.New(tensor.Shape{input.Rows(), l.cfg.OutputDim})
	if err != nil {
		return nil, wrapOp(op, err)
	}
	if err := l.forward(input, out); err != nil {
		return nil, wrapOp(op, err)
	}
	return out, nil
}

// ForwardInto is Forward writing into a caller-provided [batch_size, out_features] buffer.
//
// out must not share storage with input.
func (l *Linear) ForwardInto(input, out *tensor.Buffer) error {
	const op = "Linear.ForwardInto"
	if err := l.checkInput(op, input); err != nil {
		return err
	}
	want := tensor.Shape{input.Rows(), l.cfg.OutputDim}
	if !out.Shape().Equal(want) {
		return opError(op, ErrShapeMismatch, "output %v, want %v", out.Shape(), want)
	}
	return wrapOp(op, l.forward(input, out))
}

func (l *Linear) checkInput(op string, input *tensor.Buffer) error {
	if input.Rank() != 2 {
		return opError(op, ErrShapeMismatch, "expected 2D input [batch, features], got %v", input.Shape())
	}
	if input.Cols() != l.cfg.InputDim {
		return opError(op, ErrShapeMismatch, "expected %d input features, got %d", l.cfg.InputDim, input.Cols())
	}
	return nil
}

// forward runs on validated shapes; the cache is only replaced once the output is written.
func (l *Linear) forward(input, out *tensor.Buffer) error {
	if err := tensor.MatMulInto(out, input, l.weight.value, false, true, 0); err != nil {
		return err
	}
	if err := tensor.AddRowVector(out, l.bias.value); err != nil {
		return err
	}

	if l.input != nil && l.input.Shape().Equal(input.Shape()) {
		copy(l.input.Data(), input.Data())
	} else {
		l.input = input.Clone()
	}
	return nil
}

// Backward propagates gradOutput through the layer.
//
// Given dL/dy with shape [batch_size, out_features] from the preceding
// Forward call it computes:
//   - dL/dW = gradOutput.T @ x   -> weight gradient [out_features, in_features]
//   - dL/db = sum over batch      -> bias gradient [out_features]
//   - dL/dx = gradOutput @ W      -> returned, [batch_size, in_features]
//
// Gradients are overwritten unless the config uses GradAccumulate.
//
// Returns ErrStaleCache if Forward was never called and ErrShapeMismatch if
// gradOutput does not match the last forward output shape.
func (l *Linear) Backward(gradOutput *tensor.Buffer) (*tensor.Buffer, error) {
	const op = "Linear.Backward"
	if l.input == nil {
		return nil, opError(op, ErrStaleCache, "")
	}
	want := tensor.Shape{l.input.Rows(), l.cfg.OutputDim}
	if !gradOutput.Shape().Equal(want) {
		return nil, opError(op, ErrShapeMismatch, "output gradient %v, want %v", gradOutput.Shape(), want)
	}

	gradInput, err := tensor.New(l.input.Shape())
	if err != nil {
		return nil, wrapOp(op, err)
	}

	accumulate := l.cfg.GradMode == GradAccumulate
	var beta float32
	if accumulate {
		beta = 1
	}

	// Shapes were validated above, the kernels below cannot fail.
	if err := tensor.MatMulInto(l.weight.grad, gradOutput, l.input, true, false, beta); err != nil {
		return nil, wrapOp(op, err)
	}
	if err := tensor.ColSumInto(l.bias.grad, gradOutput, accumulate); err != nil {
		return nil, wrapOp(op, err)
	}
	if err := tensor.MatMulInto(gradInput, gradOutput, l.weight.value, false, false, 0); err != nil {
		return nil, wrapOp(op, err)
	}

	l.weight.hasGrad = true
	l.bias.hasGrad = true
	return gradInput, nil
}

// SGDStep updates the parameters in place:
//
//	W = W - lr * dW
//	b = b - lr * db
//
// Every call is a genuine mutation; repeating it keeps moving the parameters
// along the same gradients.
//
// Returns ErrInvalidLearningRate unless lr is positive and finite, and
// ErrStaleGradient if no backward pass has populated the gradients.
func (l *Linear) SGDStep(lr float32) error {
	const op = "Linear.SGDStep"
	if !(lr > 0) || math.IsInf(float64(lr), 0) {
		return opError(op, ErrInvalidLearningRate, "lr = %v", lr)
	}
	if !l.weight.hasGrad || !l.bias.hasGrad {
		return opError(op, ErrStaleGradient, "")
	}
	if err := l.weight.step(lr); err != nil {
		return wrapOp(op, err)
	}
	if err := l.bias.step(lr); err != nil {
		return wrapOp(op, err)
	}
	return nil
}

// ZeroGrad clears both gradients. Needed between batches under GradAccumulate.
func (l *Linear) ZeroGrad() {
	l.weight.ZeroGrad()
	l.bias.ZeroGrad()
}

// Parameters returns [weight, bias].
func (l *Linear) Parameters() []*Parameter {
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// Config returns the layer configuration.
func (l *Linear) Config() LinearConfig {
	return l.cfg
}

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int {
	return l.cfg.InputDim
}

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int {
	return l.cfg.OutputDim
}
