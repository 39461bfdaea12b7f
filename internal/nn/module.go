// Package nn implements the operator layer: Linear, Softmax and CrossEntropy.
//
// Every operator follows the same lifecycle:
//   - A config value is created once and validated (NewLinearConfig, NewSoftmaxConfig, NewCEConfig)
//   - The operator is constructed from the config and owns its buffers (NewLinear, NewSoftmax, NewCrossEntropy)
//   - Execution methods read caller buffers and write outputs (Forward, Backward, SGDStep)
//
// Operators do not reference each other. A classifier head is assembled by
// the caller, threading buffers forward and gradients back:
//
//	z, _ := lin.Forward(x)
//	p, _ := sm.Forward(z)
//	loss, _ := ce.Forward(p, nn.ClassTargets(labels...))
//	dz, _ := ce.Backward(p, nn.ClassTargets(labels...))
//	_, _ = lin.Backward(dz)
//	_ = lin.SGDStep(0.1)
//
// Operators are not safe for concurrent use. Callers sharing one instance
// across goroutines must serialize access, one mutex per instance is enough.
package nn

import (
	"github.com/born-ml/kernels/internal/tensor"
)

// Module is the capability shared by operators that map one buffer to another.
//
// Linear and Softmax implement it, so callers can chain them generically:
//
//	layers := []nn.Module{lin, sm}
//	for _, m := range layers {
//	    x, err = m.Forward(x)
//	}
type Module interface {
	// Forward computes the output for a [batch_size, features] input.
	Forward(input *tensor.Buffer) (*tensor.Buffer, error)

	// Parameters returns the trainable parameters, or nil for stateless operators.
	Parameters() []*Parameter
}
