// Package trainer fits a sequence model with teacher forcing and
// backpropagation through time.
package trainer

import (
	"errors"
	"fmt"

	"namegen/internal/nn"
	"namegen/internal/optim"
	"namegen/internal/seqmodel"
)

var ErrEmptySequence = errors.New("empty training sequence")

type Trainer struct {
	model        seqmodel.Trainable
	optimizer    optim.Optimizer
	learningRate float64
}

// Result is the outcome of one training step.
type Result struct {
	// Output is the log-probability distribution of the last position.
	Output []float64
	// Loss is the mean per-character negative log-likelihood.
	Loss float64
}

func New(model seqmodel.Trainable, optimizer optim.Optimizer, learningRate float64) (*Trainer, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if optimizer == nil {
		return nil, errors.New("optimizer is required")
	}
	if learningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be > 0, got %f", learningRate)
	}
	return &Trainer{model: model, optimizer: optimizer, learningRate: learningRate}, nil
}

func (t *Trainer) Model() seqmodel.Trainable {
	return t.model
}

// TrainStep runs one teacher-forced pass over a single string, backpropagates
// the summed loss through every position and applies one optimizer step.
func (t *Trainer) TrainStep(category []float64, inputs [][]float64, targets []int) (Result, error) {
	n := len(inputs)
	if n == 0 {
		return Result{}, ErrEmptySequence
	}
	if len(targets) != n {
		return Result{}, fmt.Errorf("%w: %d inputs, %d targets", seqmodel.ErrDimensionMismatch, n, len(targets))
	}

	params := t.model.Params()
	nn.ZeroGrads(params)

	tape := t.model.Record()
	state := t.model.InitState()
	vocab := t.model.Dims().Vocab
	grads := make([][]float64, n)
	total := 0.0
	var output []float64

	for i := 0; i < n; i++ {
		target := targets[i]
		if target < 0 || target >= vocab {
			return Result{}, fmt.Errorf("%w: target %d at position %d outside vocabulary of %d", seqmodel.ErrDimensionMismatch, target, i, vocab)
		}
		logp, next, err := tape.Step(category, inputs[i], state)
		if err != nil {
			return Result{}, fmt.Errorf("position %d: %w", i, err)
		}
		total -= logp[target]

		grads[i] = make([]float64, vocab)
		grads[i][target] = -1
		state = next
		output = logp
	}

	if err := tape.Backward(grads); err != nil {
		return Result{}, err
	}
	if err := t.optimizer.Step(params, t.learningRate); err != nil {
		return Result{}, err
	}
	return Result{Output: output, Loss: total / float64(n)}, nil
}
