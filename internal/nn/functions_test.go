package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneHot(t *testing.T) {
	v, err := OneHot(4, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1, 0}, v)

	_, err = OneHot(4, 4)
	assert.Error(t, err)
	_, err = OneHot(4, -1)
	assert.Error(t, err)
}

func TestConcat(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, Concat([]float64{1}, nil, []float64{2, 3}))
}

func TestLogSoftmaxNormalizes(t *testing.T) {
	logp := LogSoftmax([]float64{1000, 1001, 999})
	sum := 0.0
	for _, p := range Softmax(logp) {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	for _, v := range logp {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		assert.LessOrEqual(t, v, 0.0)
	}
	assert.InDelta(t, logp[1]-logp[0], 1.0, 1e-12)
}

func TestArgmaxPrefersLowestIndexOnTies(t *testing.T) {
	idx, err := Argmax([]float64{0.1, 0.4, 0.4, 0.1})
	require.NoError(t, err)
	assert.Equal(t, 1, idx)

	_, err = Argmax(nil)
	assert.Error(t, err)
}
