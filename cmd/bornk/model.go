package main

import (
	"fmt"

	"github.com/born-ml/kernels/nn"
	"github.com/born-ml/kernels/tensor"
)

const float32Bytes = 4

// softmaxRegression is a single-layer classifier: Linear -> Softmax -> CrossEntropy.
//
// Parameters, gradients and the training-batch buffers live in one arena
// sized up front, so a training run never grows the heap for them.
type softmaxRegression struct {
	linear  *nn.Linear
	softmax *nn.Softmax
	loss    *nn.CrossEntropy

	arena  *tensor.Arena
	batch  int
	probs  *tensor.Buffer // [batch, classes], logits turned into probabilities in place
	inputs *tensor.Buffer // [batch, features]
}

// arenaBytes returns the arena capacity a model with these dimensions needs.
func arenaBytes(features, classes, batch int) int {
	params := 2 * (classes*features + classes) // weight, bias and their gradients
	buffers := batch*classes + batch*features
	return (params + buffers) * float32Bytes
}

func newSoftmaxRegression(features, classes, batch int, rng nn.Rng) (*softmaxRegression, error) {
	if features <= 0 || classes < 2 || batch <= 0 {
		return nil, fmt.Errorf("invalid model: %d features, %d classes, batch %d: %w",
			features, classes, batch, tensor.ErrInvalidDimension)
	}

	arena, err := tensor.NewArena(arenaBytes(features, classes, batch))
	if err != nil {
		return nil, err
	}

	linCfg, err := nn.NewLinearConfig(features, classes, nn.FillXavierUniform, nn.FillZeros)
	if err != nil {
		return nil, err
	}
	linear, err := nn.NewLinearWithAllocator(linCfg, rng, arena)
	if err != nil {
		return nil, err
	}

	smCfg, err := nn.NewSoftmaxConfig(classes)
	if err != nil {
		return nil, err
	}
	softmax, err := nn.NewSoftmax(smCfg)
	if err != nil {
		return nil, err
	}

	ceCfg, err := nn.NewCEConfig(classes)
	if err != nil {
		return nil, err
	}
	loss, err := nn.NewCrossEntropy(ceCfg)
	if err != nil {
		return nil, err
	}

	probs, err := arena.Alloc(tensor.Shape{batch, classes})
	if err != nil {
		return nil, err
	}
	inputs, err := arena.Alloc(tensor.Shape{batch, features})
	if err != nil {
		return nil, err
	}

	return &softmaxRegression{
		linear:  linear,
		softmax: softmax,
		loss:    loss,
		arena:   arena,
		batch:   batch,
		probs:   probs,
		inputs:  inputs,
	}, nil
}

// forward returns class probabilities for x. Training-sized batches reuse
// the arena buffer; any other batch size gets a fresh heap buffer.
func (m *softmaxRegression) forward(x *tensor.Buffer) (*tensor.Buffer, error) {
	if x.Rank() == 2 && x.Rows() == m.batch {
		if err := m.linear.ForwardInto(x, m.probs); err != nil {
			return nil, err
		}
		if err := m.softmax.ForwardInto(m.probs, m.probs); err != nil {
			return nil, err
		}
		return m.probs, nil
	}

	z, err := m.linear.Forward(x)
	if err != nil {
		return nil, err
	}
	if err := m.softmax.ForwardInto(z, z); err != nil {
		return nil, err
	}
	return z, nil
}

// trainStep runs forward, backward and one SGD update on a batch and returns
// the batch loss from before the update.
func (m *softmaxRegression) trainStep(x *tensor.Buffer, classes []int, lr float32) (float32, error) {
	probs, err := m.forward(x)
	if err != nil {
		return 0, err
	}
	targets := nn.ClassTargets(classes...)

	loss, err := m.loss.Forward(probs, targets)
	if err != nil {
		return 0, err
	}
	gradLogits, err := m.loss.Backward(probs, targets)
	if err != nil {
		return 0, err
	}
	if _, err := m.linear.Backward(gradLogits); err != nil {
		return 0, err
	}
	if err := m.linear.SGDStep(lr); err != nil {
		return 0, err
	}
	return loss, nil
}

// predict returns the most probable class of every row of x.
func (m *softmaxRegression) predict(x *tensor.Buffer) ([]int, error) {
	probs, err := m.forward(x)
	if err != nil {
		return nil, err
	}
	return nn.ArgmaxRows(probs)
}

// evaluate returns the mean loss and accuracy over a whole dataset.
func (m *softmaxRegression) evaluate(ds *dataset) (loss, accuracy float32, err error) {
	x, err := ds.matrix()
	if err != nil {
		return 0, 0, err
	}
	probs, err := m.forward(x)
	if err != nil {
		return 0, 0, err
	}
	loss, err = m.loss.Forward(probs, nn.ClassTargets(ds.labels...))
	if err != nil {
		return 0, 0, err
	}
	accuracy, err = nn.Accuracy(probs, ds.labels)
	if err != nil {
		return 0, 0, err
	}
	return loss, accuracy, nil
}
