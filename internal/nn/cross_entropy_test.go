package nn_test

import (
	"math"
	"testing"

	"github.com/born-ml/kernels/internal/nn"
	"github.com/born-ml/kernels/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCrossEntropy(t *testing.T, numClasses int) *nn.CrossEntropy {
	t.Helper()
	cfg, err := nn.NewCEConfig(numClasses)
	require.NoError(t, err)
	ce, err := nn.NewCrossEntropy(cfg)
	require.NoError(t, err)
	return ce
}

func TestNewCEConfig_InvalidDimension(t *testing.T) {
	_, err := nn.NewCEConfig(0)
	assert.ErrorIs(t, err, nn.ErrInvalidDimension)

	_, err = nn.NewCrossEntropy(nn.CEConfig{NumClasses: -2})
	assert.ErrorIs(t, err, nn.ErrInvalidDimension)
}

func TestCrossEntropy_Forward(t *testing.T) {
	ce := newCrossEntropy(t, 3)
	p := mustRows(t, [][]float32{{0.2, 0.3, 0.5}, {0.1, 0.1, 0.8}})

	loss, err := ce.Forward(p, nn.ClassTargets(2, 0))
	require.NoError(t, err)

	want := -(math.Log(0.5) + math.Log(0.1)) / 2
	assert.InDelta(t, want, float64(loss), 1e-5)
	assert.Equal(t, loss, ce.Loss())
}

func TestCrossEntropy_PerfectPrediction(t *testing.T) {
	ce := newCrossEntropy(t, 2)

	loss, err := ce.Forward(mustRows(t, [][]float32{{1, 0}, {0, 1}}), nn.ClassTargets(0, 1))
	require.NoError(t, err)
	assert.InDelta(t, 0, float64(loss), 1e-9)
}

func TestCrossEntropy_CollapsedPredictionIsFinite(t *testing.T) {
	ce := newCrossEntropy(t, 2)

	var prev float32
	for _, p := range []float32{1e-2, 1e-4, 1e-8, 0} {
		loss, err := ce.Forward(mustRows(t, [][]float32{{p, 1 - p}}), nn.ClassTargets(0))
		require.NoError(t, err)
		assert.False(t, math.IsInf(float64(loss), 0))
		assert.Greater(t, loss, prev)
		prev = loss
	}
	assert.InDelta(t, -math.Log(nn.Epsilon), float64(prev), 1e-3)
}

func TestCrossEntropy_LabelOutOfRange(t *testing.T) {
	ce := newCrossEntropy(t, 3)
	p := mustRows(t, [][]float32{{0.2, 0.3, 0.5}})

	for _, label := range []int{-1, 3, 10} {
		_, err := ce.Forward(p, nn.ClassTargets(label))
		assert.ErrorIs(t, err, nn.ErrLabelOutOfRange, "label %d", label)
	}

	y := mustRows(t, [][]float32{{0, 1.5, 0}})
	_, err := ce.Forward(p, nn.OneHotTargets(y))
	assert.ErrorIs(t, err, nn.ErrLabelOutOfRange)

	y = mustRows(t, [][]float32{{0, float32(math.NaN()), 0}})
	_, err = ce.Forward(p, nn.OneHotTargets(y))
	assert.ErrorIs(t, err, nn.ErrLabelOutOfRange)
}

func TestCrossEntropy_ShapeMismatch(t *testing.T) {
	ce := newCrossEntropy(t, 3)
	p := mustRows(t, [][]float32{{0.2, 0.3, 0.5}, {0.1, 0.1, 0.8}})

	_, err := ce.Forward(p, nn.ClassTargets(1))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = ce.Forward(p, nn.Targets{})
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = ce.Forward(mustRows(t, [][]float32{{0.5, 0.5}}), nn.ClassTargets(0))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = ce.Forward(p, nn.OneHotTargets(mustRows(t, [][]float32{{0, 0, 1}})))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func TestCrossEntropy_OneHotMatchesClassTargets(t *testing.T) {
	p := mustRows(t, [][]float32{{0.2, 0.3, 0.5}, {0.1, 0.1, 0.8}, {0.6, 0.3, 0.1}})
	classes := nn.ClassTargets(2, 0, 1)
	onehot := nn.OneHotTargets(mustRows(t, [][]float32{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}}))
	assert.Equal(t, 3, classes.Len())
	assert.Equal(t, 3, onehot.Len())

	a, b := newCrossEntropy(t, 3), newCrossEntropy(t, 3)

	lossA, err := a.Forward(p, classes)
	require.NoError(t, err)
	lossB, err := b.Forward(p, onehot)
	require.NoError(t, err)
	assert.InDelta(t, lossA, lossB, 1e-6)

	gradA, err := a.Backward(p, classes)
	require.NoError(t, err)
	gradB, err := b.Backward(p, onehot)
	require.NoError(t, err)
	assert.InDeltaSlice(t, gradA.Data(), gradB.Data(), 1e-7)
}

func TestCrossEntropy_Backward(t *testing.T) {
	ce := newCrossEntropy(t, 3)
	p := mustRows(t, [][]float32{{0.2, 0.3, 0.5}, {0.1, 0.1, 0.8}})
	targets := nn.ClassTargets(2, 0)

	_, err := ce.Forward(p, targets)
	require.NoError(t, err)

	grad, err := ce.Backward(p, targets)
	require.NoError(t, err)
	assert.Equal(t, p.Shape(), grad.Shape())
	assert.InDeltaSlice(t, []float32{0.1, 0.15, -0.25, -0.45, 0.05, 0.4}, grad.Data(), 1e-6)

	// Each row of the fused gradient sums to zero.
	for r := 0; r < grad.Rows(); r++ {
		var sum float32
		for _, v := range grad.Row(r) {
			sum += v
		}
		assert.InDelta(t, 0, sum, 1e-6)
	}
}

func TestCrossEntropy_BackwardErrors(t *testing.T) {
	ce := newCrossEntropy(t, 2)
	p := mustRows(t, [][]float32{{0.5, 0.5}})

	_, err := ce.Backward(p, nn.ClassTargets(0))
	require.ErrorIs(t, err, nn.ErrStaleCache)

	_, err = ce.Forward(p, nn.ClassTargets(0))
	require.NoError(t, err)

	_, err = ce.Backward(mustRows(t, [][]float32{{0.5, 0.5}, {0.5, 0.5}}), nn.ClassTargets(0, 1))
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	_, err = ce.Backward(p, nn.ClassTargets(5))
	assert.ErrorIs(t, err, nn.ErrLabelOutOfRange)
}

func TestAccuracy(t *testing.T) {
	scores := mustRows(t, [][]float32{{0.1, 0.9}, {0.8, 0.2}, {0.3, 0.7}, {0.6, 0.4}})

	acc, err := nn.Accuracy(scores, []int{1, 0, 0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, acc, 1e-6)

	_, err = nn.Accuracy(scores, []int{1})
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)

	vec, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2})
	_, err = nn.Accuracy(vec, []int{1, 0})
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func TestArgmaxRows(t *testing.T) {
	scores := mustRows(t, [][]float32{{0.1, 0.9, 0.0}, {2, 2, 1}, {-3, -1, -2}})

	got, err := nn.ArgmaxRows(scores)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, got)

	vec, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2})
	_, err = nn.ArgmaxRows(vec)
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}
