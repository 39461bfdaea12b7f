package nn

import (
	"math"

	"github.com/born-ml/kernels/internal/tensor"
)

// Epsilon is added to every probability before taking its logarithm so a
// collapsed prediction yields a large finite loss instead of +Inf.
const Epsilon = 1e-12

// CEConfig describes a cross-entropy loss over NumClasses classes.
type CEConfig struct {
	NumClasses int
}

// NewCEConfig validates and returns a CEConfig.
func NewCEConfig(numClasses int) (CEConfig, error) {
	cfg := CEConfig{NumClasses: numClasses}
	if err := cfg.validate("NewCEConfig"); err != nil {
		return CEConfig{}, err
	}
	return cfg, nil
}

func (c CEConfig) validate(op string) error {
	if c.NumClasses <= 0 {
		return opError(op, ErrInvalidDimension, "num classes %d", c.NumClasses)
	}
	return nil
}

// Targets holds the ground truth for a batch, either as one class index per
// row or as a dense [batch_size, num_classes] distribution (one-hot rows).
type Targets struct {
	classes []int
	dist    *tensor.Buffer
}

// ClassTargets builds targets from class indices, one per batch row.
func ClassTargets(classes ...int) Targets {
	return Targets{classes: classes}
}

// OneHotTargets builds targets from a [batch_size, num_classes] buffer.
//
// Rows are usually one-hot; any per-row distribution with entries in [0, 1]
// is accepted.
func OneHotTargets(y *tensor.Buffer) Targets {
	return Targets{dist: y}
}

// Len returns the number of batch rows the targets describe.
func (t Targets) Len() int {
	if t.dist != nil {
		return t.dist.Rows()
	}
	return len(t.classes)
}

// weight returns y[row, class].
func (t Targets) weight(row, class int) float32 {
	if t.dist != nil {
		return t.dist.At(row, class)
	}
	if t.classes[row] == class {
		return 1
	}
	return 0
}

// CrossEntropy computes the mean negative log-likelihood of predicted
// probabilities (the output of Softmax):
//
//	loss = -(1/N) Σ_i Σ_c y[i,c] · log(p[i,c] + ε)
//
// which for class targets reduces to -(1/N) Σ_i log(p[i, label_i] + ε).
//
// Backward returns the fused softmax + cross-entropy gradient with respect
// to the softmax input (the logits):
//
//	∂L/∂z[i,c] = (p[i,c] - y[i,c]) / N
//
// It assumes CrossEntropy is always preceded by Softmax.
//
// Example:
//
//	cfg, _ := nn.NewCEConfig(10)
//	ce, _ := nn.NewCrossEntropy(cfg)
//	loss, _ := ce.Forward(probs, nn.ClassTargets(labels...))
//	dLogits, _ := ce.Backward(probs, nn.ClassTargets(labels...))
type CrossEntropy struct {
	cfg       CEConfig
	predShape tensor.Shape // shape seen by the last Forward, nil before
	loss      float32
}

// NewCrossEntropy creates a CrossEntropy operator.
func NewCrossEntropy(cfg CEConfig) (*CrossEntropy, error) {
	if err := cfg.validate("NewCrossEntropy"); err != nil {
		return nil, err
	}
	return &CrossEntropy{cfg: cfg}, nil
}

// Forward returns the mean loss over the batch.
//
// Returns ErrShapeMismatch if pred is not [batch_size, num_classes] or the
// targets describe a different number of rows, and ErrLabelOutOfRange if a
// class index lies outside [0, num_classes) or a dense target entry outside [0, 1].
func (c *CrossEntropy) Forward(pred *tensor.Buffer, targets Targets) (float32, error) {
	const op = "CrossEntropy.Forward"
	if err := c.check(op, pred, targets); err != nil {
		return 0, err
	}

	n := pred.Rows()
	var total float64
	for i := 0; i < n; i++ {
		row := pred.Row(i)
		if targets.dist == nil {
			total -= math.Log(float64(row[targets.classes[i]]) + Epsilon)
			continue
		}
		for k, p := range row {
			y := targets.dist.At(i, k)
			if y == 0 {
				continue
			}
			total -= float64(y) * math.Log(float64(p)+Epsilon)
		}
	}

	c.loss = float32(total / float64(n))
	c.predShape = pred.Shape()
	return c.loss, nil
}

// Backward returns (p - y) / batch_size, shaped like pred.
//
// pred and targets must be the ones passed to the preceding Forward.
// Returns ErrStaleCache if Forward was never called and ErrShapeMismatch if
// pred's shape differs from that call.
func (c *CrossEntropy) Backward(pred *tensor.Buffer, targets Targets) (*tensor.Buffer, error) {
	const op = "CrossEntropy.Backward"
	if c.predShape == nil {
		return nil, opError(op, ErrStaleCache, "")
	}
	if !pred.Shape().Equal(c.predShape) {
		return nil, opError(op, ErrShapeMismatch, "predictions %v, forward saw %v", pred.Shape(), c.predShape)
	}
	if err := c.check(op, pred, targets); err != nil {
		return nil, err
	}

	grad, err := tensor.New(pred.Shape())
	if err != nil {
		return nil, wrapOp(op, err)
	}

	n := pred.Rows()
	invN := 1 / float32(n)
	for i := 0; i < n; i++ {
		p, g := pred.Row(i), grad.Row(i)
		for k := range g {
			g[k] = (p[k] - targets.weight(i, k)) * invN
		}
	}
	return grad, nil
}

func (c *CrossEntropy) check(op string, pred *tensor.Buffer, targets Targets) error {
	if pred.Rank() != 2 || pred.Cols() != c.cfg.NumClasses {
		return opError(op, ErrShapeMismatch, "predictions %v, want [batch, %d]", pred.Shape(), c.cfg.NumClasses)
	}
	n := pred.Rows()

	if targets.dist != nil {
		if !targets.dist.Shape().Equal(pred.Shape()) {
			return opError(op, ErrShapeMismatch, "targets %v, predictions %v", targets.dist.Shape(), pred.Shape())
		}
		for i, y := range targets.dist.Data() {
			if !(y >= 0 && y <= 1) {
				return opError(op, ErrLabelOutOfRange, "target[%d, %d] = %v", i/c.cfg.NumClasses, i%c.cfg.NumClasses, y)
			}
		}
		return nil
	}

	if len(targets.classes) != n {
		return opError(op, ErrShapeMismatch, "%d labels for batch of %d", len(targets.classes), n)
	}
	for i, label := range targets.classes {
		if label < 0 || label >= c.cfg.NumClasses {
			return opError(op, ErrLabelOutOfRange, "label[%d] = %d, num classes %d", i, label, c.cfg.NumClasses)
		}
	}
	return nil
}

// Loss returns the value computed by the last successful Forward.
func (c *CrossEntropy) Loss() float32 {
	return c.loss
}

// Parameters returns nil (loss functions have no trainable parameters).
func (c *CrossEntropy) Parameters() []*Parameter {
	return nil
}

// Config returns the operator configuration.
func (c *CrossEntropy) Config() CEConfig {
	return c.cfg
}

// argmax returns the index of the maximum value in the slice.
func argmax(z []float32) int {
	maxIdx := 0
	maxVal := z[0]
	for i := 1; i < len(z); i++ {
		if z[i] > maxVal {
			maxVal = z[i]
			maxIdx = i
		}
	}
	return maxIdx
}

// ArgmaxRows returns the index of the highest score in every row of a
// [batch_size, num_classes] buffer. Ties resolve to the lowest index.
func ArgmaxRows(scores *tensor.Buffer) ([]int, error) {
	const op = "ArgmaxRows"
	if scores.Rank() != 2 {
		return nil, opError(op, ErrShapeMismatch, "scores %v, want [batch, classes]", scores.Shape())
	}
	out := make([]int, scores.Rows())
	for i := range out {
		out[i] = argmax(scores.Row(i))
	}
	return out, nil
}

// Accuracy returns the fraction of rows whose highest score matches the class label.
//
// scores may be logits or probabilities with shape [batch_size, num_classes].
func Accuracy(scores *tensor.Buffer, classes []int) (float32, error) {
	const op = "Accuracy"
	if scores.Rank() != 2 || len(classes) != scores.Rows() {
		return 0, opError(op, ErrShapeMismatch, "scores %v for %d labels", scores.Shape(), len(classes))
	}

	correct := 0
	for i, label := range classes {
		if argmax(scores.Row(i)) == label {
			correct++
		}
	}
	return float32(correct) / float32(len(classes)), nil
}
