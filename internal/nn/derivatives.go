package nn

import "math"

// derivativeFunc returns the derivative of a built-in activation at the
// pre-activation value x.
func derivativeFunc(name string) ActivationFunc {
	switch name {
	case "relu":
		return func(x float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		}
	case "tanh":
		return func(x float64) float64 {
			y := math.Tanh(x)
			return 1 - (y * y)
		}
	case "sigmoid":
		return func(x float64) float64 {
			s := Sigmoid(x)
			return s * (1 - s)
		}
	default:
		return func(float64) float64 { return 1 }
	}
}
