// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the operators of a softmax classifier head.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Softmax
//   - Loss functions: CrossEntropy
//   - Utilities: Module interface, Parameter, Accuracy
//   - Initialization: Ones, Zeros, Xavier uniform
//
// Gradients are computed explicitly by each operator's Backward method.
// There is no autograd tape.
//
// # Basic Usage
//
//	import (
//	    "math/rand/v2"
//
//	    "github.com/born-ml/kernels/nn"
//	    "github.com/born-ml/kernels/tensor"
//	)
//
//	func main() {
//	    rng := rand.New(rand.NewPCG(1, 2))
//
//	    linCfg, _ := nn.NewLinearConfig(4, 3, nn.FillXavierUniform, nn.FillZeros)
//	    lin, _ := nn.NewLinear(linCfg, rng)
//	    smCfg, _ := nn.NewSoftmaxConfig(3)
//	    sm, _ := nn.NewSoftmax(smCfg)
//	    ceCfg, _ := nn.NewCEConfig(3)
//	    ce, _ := nn.NewCrossEntropy(ceCfg)
//
//	    x, _ := tensor.FromRows([][]float32{{5.1, 3.5, 1.4, 0.2}})
//	    y := nn.ClassTargets(0)
//
//	    z, _ := lin.Forward(x)
//	    p, _ := sm.Forward(z)
//	    loss, _ := ce.Forward(p, y)
//
//	    dZ, _ := ce.Backward(p, y) // (p - y) / batch
//	    lin.Backward(dZ)
//	    lin.SGDStep(0.1)
//	}
//
// # Gradients
//
// CrossEntropy.Backward returns the gradient with respect to the softmax
// logits, not the probabilities. Feed it straight into Linear.Backward.
//
// Linear.Backward overwrites the weight and bias gradients by default.
// Configure GradAccumulate to sum gradients over several batches:
//
//	cfg = cfg.WithGradMode(nn.GradAccumulate)
//
// # Errors
//
// Every failure is an *OpError wrapping one of the Err* kinds. An operation
// that fails leaves its operator unchanged.
//
//	if errors.Is(err, nn.ErrStaleCache) {
//	    // Backward before Forward
//	}
//
// # Concurrency
//
// Operators are not safe for concurrent use. Distinct operators may be used
// from different goroutines.
package nn
