package nn

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Param is a dense trainable tensor with its gradient buffer. Vectors are
// stored as Rows x 1.
type Param struct {
	Name  string
	Rows  int
	Cols  int
	Value []float64
	Grad  []float64
}

func NewParam(name string, rows, cols int) *Param {
	return &Param{
		Name:  name,
		Rows:  rows,
		Cols:  cols,
		Value: make([]float64, rows*cols),
		Grad:  make([]float64, rows*cols),
	}
}

// Uniform fills the parameter with values drawn from [-scale, scale).
func (p *Param) Uniform(rng *rand.Rand, scale float64) {
	for i := range p.Value {
		p.Value[i] = (rng.Float64()*2 - 1) * scale
	}
}

// Matrix returns a gonum view sharing the parameter's storage.
func (p *Param) Matrix() *mat.Dense {
	return mat.NewDense(p.Rows, p.Cols, p.Value)
}

// GradMatrix returns a gonum view sharing the gradient storage.
func (p *Param) GradMatrix() *mat.Dense {
	return mat.NewDense(p.Rows, p.Cols, p.Grad)
}

// Vector returns a gonum vector view of a Rows x 1 parameter.
func (p *Param) Vector() *mat.VecDense {
	return mat.NewVecDense(len(p.Value), p.Value)
}

func (p *Param) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// ZeroGrads clears the gradient buffers of every parameter.
func ZeroGrads(params []*Param) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
