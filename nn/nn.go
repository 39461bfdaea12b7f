// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/kernels/internal/nn"
	"github.com/born-ml/kernels/internal/tensor"
)

// Module is implemented by every operator with a Forward pass.
type Module = nn.Module

// Parameter is a trainable value paired with its gradient buffer.
type Parameter = nn.Parameter

// Rng supplies uniform draws in [0, 1) for random initialization.
//
// *math/rand/v2.Rand satisfies it.
type Rng = nn.Rng

// FillStrategy selects how a parameter buffer is initialized.
type FillStrategy = nn.FillStrategy

// Fill strategies.
const (
	FillOnes          = nn.FillOnes
	FillZeros         = nn.FillZeros
	FillXavierUniform = nn.FillXavierUniform
)

// Fill initializes buf with the given strategy.
func Fill(buf *tensor.Buffer, strategy FillStrategy, rng Rng) error {
	return nn.Fill(buf, strategy, rng)
}

// Layers

// GradMode controls whether Linear.Backward overwrites or accumulates gradients.
type GradMode = nn.GradMode

// Gradient modes.
const (
	GradOverwrite  = nn.GradOverwrite
	GradAccumulate = nn.GradAccumulate
)

// LinearConfig describes a fully connected layer.
type LinearConfig = nn.LinearConfig

// Linear computes output = input·Wᵀ + b.
type Linear = nn.Linear

// NewLinearConfig validates and returns a LinearConfig.
func NewLinearConfig(inputDim, outputDim int, weightFill, biasFill FillStrategy) (LinearConfig, error) {
	return nn.NewLinearConfig(inputDim, outputDim, weightFill, biasFill)
}

// NewLinear creates a linear layer whose buffers live on the heap.
//
// Example:
//
//	cfg, _ := nn.NewLinearConfig(4, 3, nn.FillXavierUniform, nn.FillZeros)
//	layer, err := nn.NewLinear(cfg, rand.New(rand.NewPCG(1, 2)))
func NewLinear(cfg LinearConfig, rng Rng) (*Linear, error) {
	return nn.NewLinear(cfg, rng)
}

// NewLinearWithAllocator creates a linear layer whose buffers come from alloc.
func NewLinearWithAllocator(cfg LinearConfig, rng Rng, alloc tensor.Allocator) (*Linear, error) {
	return nn.NewLinearWithAllocator(cfg, rng, alloc)
}

// SoftmaxConfig describes a row-wise softmax.
type SoftmaxConfig = nn.SoftmaxConfig

// Softmax normalizes each row of its input into a probability distribution.
type Softmax = nn.Softmax

// NewSoftmaxConfig validates and returns a SoftmaxConfig.
func NewSoftmaxConfig(dim int) (SoftmaxConfig, error) {
	return nn.NewSoftmaxConfig(dim)
}

// NewSoftmax creates a softmax operator.
func NewSoftmax(cfg SoftmaxConfig) (*Softmax, error) {
	return nn.NewSoftmax(cfg)
}

// Loss

// Epsilon is added to every probability before the logarithm in CrossEntropy.
const Epsilon = nn.Epsilon

// CEConfig describes a cross-entropy loss.
type CEConfig = nn.CEConfig

// CrossEntropy is the mean negative log-likelihood over a batch of probabilities.
type CrossEntropy = nn.CrossEntropy

// Targets holds ground truth as class indices or dense one-hot rows.
type Targets = nn.Targets

// NewCEConfig validates and returns a CEConfig.
func NewCEConfig(numClasses int) (CEConfig, error) {
	return nn.NewCEConfig(numClasses)
}

// NewCrossEntropy creates a cross-entropy loss.
func NewCrossEntropy(cfg CEConfig) (*CrossEntropy, error) {
	return nn.NewCrossEntropy(cfg)
}

// ClassTargets builds targets from one class index per sample.
func ClassTargets(classes ...int) Targets {
	return nn.ClassTargets(classes...)
}

// OneHotTargets builds targets from a [batch, classes] buffer of probabilities.
func OneHotTargets(y *tensor.Buffer) Targets {
	return nn.OneHotTargets(y)
}

// ArgmaxRows returns the index of the highest score in every row.
func ArgmaxRows(scores *tensor.Buffer) ([]int, error) {
	return nn.ArgmaxRows(scores)
}

// Accuracy returns the fraction of rows whose argmax equals the class label.
func Accuracy(scores *tensor.Buffer, classes []int) (float32, error) {
	return nn.Accuracy(scores, classes)
}

// Errors

// OpError records the operation that failed and the error kind behind it.
type OpError = nn.OpError

// Error kinds. Test for them with errors.Is.
var (
	ErrInvalidDimension    = nn.ErrInvalidDimension
	ErrShapeMismatch       = nn.ErrShapeMismatch
	ErrAllocationFailure   = nn.ErrAllocationFailure
	ErrStaleCache          = nn.ErrStaleCache
	ErrStaleGradient       = nn.ErrStaleGradient
	ErrLabelOutOfRange     = nn.ErrLabelOutOfRange
	ErrUnknownFill         = nn.ErrUnknownFill
	ErrMissingRng          = nn.ErrMissingRng
	ErrInvalidLearningRate = nn.ErrInvalidLearningRate
)
