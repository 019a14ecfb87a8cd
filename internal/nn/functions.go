package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// OneHot returns a vector of length n with a single 1 at index i.
func OneHot(n, i int) ([]float64, error) {
	if i < 0 || i >= n {
		return nil, fmt.Errorf("one-hot index %d out of range [0,%d)", i, n)
	}
	out := make([]float64, n)
	out[i] = 1
	return out, nil
}

// Concat joins vectors into a freshly allocated slice.
func Concat(parts ...[]float64) []float64 {
	size := 0
	for _, p := range parts {
		size += len(p)
	}
	out := make([]float64, 0, size)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// LogSoftmax returns logits - logsumexp(logits).
func LogSoftmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	if len(logits) == 0 {
		return out
	}
	lse := floats.LogSumExp(logits)
	for i, v := range logits {
		out[i] = v - lse
	}
	return out
}

// Softmax exponentiates a log-probability vector.
func Softmax(logProbs []float64) []float64 {
	out := make([]float64, len(logProbs))
	for i, v := range logProbs {
		out[i] = math.Exp(v)
	}
	return out
}

// Argmax returns the index of the largest value, preferring the lowest index
// on ties.
func Argmax(values []float64) (int, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("values must not be empty")
	}
	return floats.MaxIdx(values), nil
}
