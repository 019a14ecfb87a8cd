// Package sampler generates strings greedily from a trained sequence model.
package sampler

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"namegen/internal/nn"
	"namegen/internal/seqmodel"
	"namegen/internal/vocab"
)

const DefaultMaxLength = 20

var ErrInvalidMaxLength = errors.New("invalid max length")

type Sampler struct {
	model     seqmodel.Transducer
	encoder   *vocab.Encoder
	maxLength int
}

// New returns a sampler that generates up to maxLength characters per seed
// in Samples. A zero maxLength selects DefaultMaxLength.
func New(model seqmodel.Transducer, enc *vocab.Encoder, maxLength int) (*Sampler, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if enc == nil {
		return nil, errors.New("encoder is required")
	}
	if maxLength < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxLength, maxLength)
	}
	if maxLength == 0 {
		maxLength = DefaultMaxLength
	}
	if err := seqmodel.CheckCompatible(model.Dims(), enc.NumCategories(), enc.VocabSize()); err != nil {
		return nil, err
	}
	return &Sampler{model: model, encoder: enc, maxLength: maxLength}, nil
}

func (s *Sampler) MaxLength() int {
	return s.maxLength
}

// Sample feeds start and then each argmax prediction back into the model
// until EOS or maxLength generated characters. The result includes start.
func (s *Sampler) Sample(category string, start rune, maxLength int) (string, error) {
	if maxLength < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidMaxLength, maxLength)
	}
	categoryVec, err := s.encoder.EncodeCategory(category)
	if err != nil {
		return "", err
	}
	input, err := s.encoder.EncodeChar(start)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteRune(start)
	state := s.model.InitState()
	eos := s.encoder.EOS()

	for i := 0; i < maxLength; i++ {
		logp, next, err := s.model.Step(categoryVec, input, state)
		if err != nil {
			return "", err
		}
		idx, err := nn.Argmax(logp)
		if err != nil {
			return "", err
		}
		if idx == eos {
			break
		}
		r, err := s.encoder.DecodeIndex(idx)
		if err != nil {
			return "", err
		}
		out.WriteRune(r)
		if input, err = s.encoder.EncodeChar(r); err != nil {
			return "", err
		}
		state = next
	}
	return out.String(), nil
}

// Samples generates one string per seed, in seed order.
func (s *Sampler) Samples(category string, starts []rune) ([]string, error) {
	out := make([]string, 0, len(starts))
	for _, start := range starts {
		name, err := s.Sample(category, start, s.maxLength)
		if err != nil {
			return nil, fmt.Errorf("seed %q: %w", start, err)
		}
		out = append(out, name)
	}
	return out, nil
}

// DefaultSeeds returns the first three letters of the category name,
// upper-cased, keeping only those in the alphabet.
func DefaultSeeds(category string, alphabet *vocab.Alphabet) []rune {
	var seeds []rune
	for _, r := range category {
		if len(seeds) == 3 {
			break
		}
		r = unicode.ToUpper(r)
		if alphabet != nil && !alphabet.Contains(r) {
			continue
		}
		seeds = append(seeds, r)
	}
	return seeds
}
