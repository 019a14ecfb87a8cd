// Package optim applies accumulated gradients to model parameters.
package optim

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"namegen/internal/nn"
)

var ErrUnknownOptimizer = errors.New("unknown optimizer")

const (
	NameSGD  = "sgd"
	NameAdam = "adam"
)

// Optimizer updates parameters in place from their gradient buffers. It does
// not clear gradients.
type Optimizer interface {
	Name() string
	Step(params []*nn.Param, learningRate float64) error
}

func FromName(name string) (Optimizer, error) {
	switch name {
	case "", NameSGD:
		return SGD{}, nil
	case NameAdam:
		return NewAdam(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownOptimizer, name)
	}
}

// SGD is plain stochastic gradient descent: p -= lr * grad.
type SGD struct{}

func (SGD) Name() string {
	return NameSGD
}

func (SGD) Step(params []*nn.Param, learningRate float64) error {
	if err := checkLearningRate(learningRate); err != nil {
		return err
	}
	for _, p := range params {
		if len(p.Grad) != len(p.Value) {
			return fmt.Errorf("param %s: gradient size %d != value size %d", p.Name, len(p.Grad), len(p.Value))
		}
		floats.AddScaled(p.Value, -learningRate, p.Grad)
	}
	return nil
}

// Adam keeps bias-corrected first and second moment estimates per parameter.
type Adam struct {
	Beta1   float64
	Beta2   float64
	Epsilon float64

	steps int
	m     map[*nn.Param][]float64
	v     map[*nn.Param][]float64
}

func NewAdam() *Adam {
	return &Adam{Beta1: 0.9, Beta2: 0.999, Epsilon: 1e-8}
}

func (a *Adam) Name() string {
	return NameAdam
}

func (a *Adam) Step(params []*nn.Param, learningRate float64) error {
	if err := checkLearningRate(learningRate); err != nil {
		return err
	}
	if a.m == nil {
		a.m = make(map[*nn.Param][]float64)
		a.v = make(map[*nn.Param][]float64)
	}
	a.steps++
	c1 := 1 - math.Pow(a.Beta1, float64(a.steps))
	c2 := 1 - math.Pow(a.Beta2, float64(a.steps))

	for _, p := range params {
		m, ok := a.m[p]
		if !ok {
			m = make([]float64, len(p.Value))
			a.m[p] = m
			a.v[p] = make([]float64, len(p.Value))
		}
		v := a.v[p]
		for i, g := range p.Grad {
			m[i] = a.Beta1*m[i] + (1-a.Beta1)*g
			v[i] = a.Beta2*v[i] + (1-a.Beta2)*g*g
			p.Value[i] -= learningRate * (m[i] / c1) / (math.Sqrt(v[i]/c2) + a.Epsilon)
		}
	}
	return nil
}

func checkLearningRate(lr float64) error {
	if lr <= 0 || math.IsNaN(lr) || math.IsInf(lr, 0) {
		return fmt.Errorf("learning rate must be a positive finite number, got %f", lr)
	}
	return nil
}
