// Package examples draws random training examples from a corpus and encodes
// them for a single training step.
package examples

import (
	"errors"
	"fmt"
	"math/rand"

	"namegen/internal/corpus"
	"namegen/internal/vocab"
)

// Example holds everything one training step needs.
type Example struct {
	Category    string
	Line        string
	CategoryVec []float64
	Inputs      [][]float64
	Targets     []int
}

type Generator struct {
	corpus  *corpus.Index
	encoder *vocab.Encoder
	rng     *rand.Rand
}

func NewGenerator(idx *corpus.Index, enc *vocab.Encoder, rng *rand.Rand) (*Generator, error) {
	if idx == nil {
		return nil, fmt.Errorf("%w: corpus is required", corpus.ErrEmptyCorpus)
	}
	if enc == nil {
		return nil, errors.New("encoder is required")
	}
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if idx.NumCategories() != enc.NumCategories() {
		return nil, fmt.Errorf("corpus has %d categories, encoder has %d", idx.NumCategories(), enc.NumCategories())
	}
	for _, name := range idx.Categories() {
		if _, err := enc.CategoryIndex(name); err != nil {
			return nil, err
		}
	}
	return &Generator{corpus: idx, encoder: enc, rng: rng}, nil
}

// Pair picks a category uniformly, then a line uniformly within it.
func (g *Generator) Pair() (string, string, error) {
	categories := g.corpus.Categories()
	category := categories[g.rng.Intn(len(categories))]
	lines, _ := g.corpus.Lines(category)
	if len(lines) == 0 {
		return "", "", fmt.Errorf("%w: category %q has no examples", corpus.ErrEmptyCorpus, category)
	}
	return category, lines[g.rng.Intn(len(lines))], nil
}

func (g *Generator) Next() (Example, error) {
	category, line, err := g.Pair()
	if err != nil {
		return Example{}, err
	}
	return Build(g.encoder, category, line)
}

// Build encodes a known (category, line) pair.
func Build(enc *vocab.Encoder, category, line string) (Example, error) {
	categoryVec, err := enc.EncodeCategory(category)
	if err != nil {
		return Example{}, err
	}
	inputs, err := enc.EncodeString(line)
	if err != nil {
		return Example{}, fmt.Errorf("category %q: %w", category, err)
	}
	targets, err := enc.BuildTarget(line)
	if err != nil {
		return Example{}, fmt.Errorf("category %q: %w", category, err)
	}
	return Example{
		Category:    category,
		Line:        line,
		CategoryVec: categoryVec,
		Inputs:      inputs,
		Targets:     targets,
	}, nil
}
