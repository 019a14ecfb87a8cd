// Package seqmodel defines the stateful sequence transducer used for
// character generation, and an LSTM implementation of it.
package seqmodel

import (
	"errors"
	"fmt"

	"namegen/internal/nn"
)

var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidState      = errors.New("invalid hidden state")
	ErrTapeConsumed      = errors.New("tape already consumed")
)

// Dims are the widths a transducer was built for.
type Dims struct {
	Categories int
	Vocab      int
	Hidden     int
}

// Input is the width of the combined category+character feature vector.
func (d Dims) Input() int {
	return d.Categories + d.Vocab
}

func (d Dims) Validate() error {
	if d.Categories <= 0 || d.Vocab <= 0 || d.Hidden <= 0 {
		return fmt.Errorf("%w: categories=%d vocab=%d hidden=%d must be > 0", ErrDimensionMismatch, d.Categories, d.Vocab, d.Hidden)
	}
	return nil
}

// CheckCompatible reports whether a transducer accepts encodings of the given
// category count and vocabulary size.
func CheckCompatible(d Dims, categories, vocab int) error {
	if d.Categories != categories || d.Vocab != vocab {
		return fmt.Errorf("%w: model expects categories=%d vocab=%d, encoder has categories=%d vocab=%d",
			ErrDimensionMismatch, d.Categories, d.Vocab, categories, vocab)
	}
	return nil
}

// State is the recurrent memory carried between steps of one pass. Its
// concrete type belongs to the transducer that created it.
type State any

// Transducer consumes one (category, character) pair per step and returns a
// log-probability distribution over the next character.
type Transducer interface {
	Dims() Dims
	InitState() State
	Step(category, char []float64, state State) ([]float64, State, error)
}

// Tape records a gradient-tracked pass. Backward receives, for every recorded
// step in order, the gradient of the loss with respect to that step's
// log-probabilities and accumulates parameter gradients through the whole
// pass. A tape is single use.
type Tape interface {
	Step(category, char []float64, state State) ([]float64, State, error)
	Len() int
	Backward(grads [][]float64) error
}

// Trainable is a transducer whose parameters can be fitted.
type Trainable interface {
	Transducer
	Params() []*nn.Param
	Record() Tape
}

func checkInputs(d Dims, category, char []float64) error {
	if len(category) != d.Categories {
		return fmt.Errorf("%w: category encoding has %d entries, want %d", ErrDimensionMismatch, len(category), d.Categories)
	}
	if len(char) != d.Vocab {
		return fmt.Errorf("%w: character encoding has %d entries, want %d", ErrDimensionMismatch, len(char), d.Vocab)
	}
	return nil
}
