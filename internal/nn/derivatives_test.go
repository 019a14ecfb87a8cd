package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivativeMatchesFiniteDifference(t *testing.T) {
	const h = 1e-6
	for _, name := range []string{"identity", "tanh", "sigmoid"} {
		a, err := GetActivation(name)
		require.NoError(t, err)
		for _, x := range []float64{-1.5, -0.2, 0, 0.7, 2} {
			numeric := (a.Func(x+h) - a.Func(x-h)) / (2 * h)
			assert.InDelta(t, numeric, a.Derivative(x), 1e-6, "%s at %f", name, x)
		}
	}
}

func TestDerivativeRelu(t *testing.T) {
	a, err := GetActivation("relu")
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.Derivative(1))
	assert.Equal(t, 0.0, a.Derivative(-1))
}
