package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namegen/internal/nn"
)

func newParam(values, grads []float64) *nn.Param {
	p := nn.NewParam("p", len(values), 1)
	copy(p.Value, values)
	copy(p.Grad, grads)
	return p
}

func TestSGDStep(t *testing.T) {
	p := newParam([]float64{1, 2, 3}, []float64{10, -10, 0})
	require.NoError(t, SGD{}.Step([]*nn.Param{p}, 0.1))
	assert.InDeltaSlice(t, []float64{0, 3, 3}, p.Value, 1e-12)
	assert.Equal(t, []float64{10, -10, 0}, p.Grad)
}

func TestSGDRejectsBadLearningRate(t *testing.T) {
	p := newParam([]float64{1}, []float64{1})
	assert.Error(t, SGD{}.Step([]*nn.Param{p}, 0))
	assert.Error(t, SGD{}.Step([]*nn.Param{p}, -1))
	assert.Equal(t, []float64{1}, p.Value)
}

func TestAdamFirstStepMovesByLearningRate(t *testing.T) {
	p := newParam([]float64{1, 1}, []float64{0.5, -2})
	a := NewAdam()
	require.NoError(t, a.Step([]*nn.Param{p}, 0.01))
	// The bias-corrected first update is lr * sign(grad).
	assert.InDeltaSlice(t, []float64{0.99, 1.01}, p.Value, 1e-6)
}

func TestFromName(t *testing.T) {
	o, err := FromName("")
	require.NoError(t, err)
	assert.Equal(t, NameSGD, o.Name())

	o, err = FromName("adam")
	require.NoError(t, err)
	assert.Equal(t, NameAdam, o.Name())

	_, err = FromName("lion")
	assert.ErrorIs(t, err, ErrUnknownOptimizer)
}
