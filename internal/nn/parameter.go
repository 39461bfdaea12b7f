package nn

import (
	"github.com/born-ml/kernels/internal/tensor"
)

// Parameter is a trainable buffer paired with its gradient.
//
// The gradient buffer is allocated alongside the value and always has the
// same shape. It only counts as populated after a backward pass wrote it.
//
// Example:
//
//	w := lin.Weight()
//	fmt.Println(w.Name(), w.Value().Shape(), w.HasGrad())
type Parameter struct {
	name    string         // Parameter name (e.g., "weight", "bias")
	value   *tensor.Buffer // The parameter values
	grad    *tensor.Buffer // Gradient, same shape as value
	hasGrad bool           // Set by backward, cleared by ZeroGrad
}

// newParameter allocates value and gradient buffers of the given shape.
func newParameter(name string, shape tensor.Shape, alloc tensor.Allocator) (*Parameter, error) {
	value, err := alloc.Alloc(shape)
	if err != nil {
		return nil, err
	}
	grad, err := alloc.Alloc(shape)
	if err != nil {
		return nil, err
	}
	return &Parameter{name: name, value: value, grad: grad}, nil
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter buffer.
func (p *Parameter) Value() *tensor.Buffer {
	return p.value
}

// Grad returns the gradient buffer.
//
// Its contents are meaningful only when HasGrad reports true.
func (p *Parameter) Grad() *tensor.Buffer {
	return p.grad
}

// HasGrad reports whether a backward pass populated the gradient.
func (p *Parameter) HasGrad() bool {
	return p.hasGrad
}

// ZeroGrad clears the gradient and marks it unpopulated.
func (p *Parameter) ZeroGrad() {
	p.grad.Fill(0)
	p.hasGrad = false
}

// step applies value -= lr * grad.
func (p *Parameter) step(lr float32) error {
	return tensor.Axpy(-lr, p.grad, p.value)
}
