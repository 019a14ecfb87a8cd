package namegen

import (
	"fmt"

	"namegen/internal/platform"
	"namegen/internal/sampler"
	"namegen/internal/vocab"
)

// Model is a trained generator held in memory after Train returns. It is safe
// for concurrent use.
type Model struct {
	session *platform.Session
}

func (m *Model) Categories() []string {
	return m.session.Categories()
}

// Sample greedily extends start until end-of-sequence or maxLength generated
// characters.
func (m *Model) Sample(category string, start rune, maxLength int) (string, error) {
	return m.session.Sample(category, start, maxLength)
}

// Samples generates one string per start character with the training max
// length.
func (m *Model) Samples(category string, starts []rune) ([]string, error) {
	return m.session.Samples(category, starts)
}

// SampleAll samples every named category (all when none are named) from
// seeds, or from each category's default seeds when seeds is empty. Samples
// of categories that succeed are returned even when others fail.
func (m *Model) SampleAll(categories []string, seeds string, maxLength int) ([]Sample, error) {
	return m.session.SampleCategories(categories, []rune(seeds), maxLength)
}

// checkSampling rejects a sampling request that could never succeed.
func checkSampling(enc *vocab.Encoder, categories []string, seeds string, maxLength int) error {
	if maxLength < 0 {
		return fmt.Errorf("%w: %d", sampler.ErrInvalidMaxLength, maxLength)
	}
	for _, category := range categories {
		if _, err := enc.CategoryIndex(category); err != nil {
			return fmt.Errorf("sample categories: %w", err)
		}
	}
	for _, r := range seeds {
		if _, err := enc.Alphabet().Index(r); err != nil {
			return fmt.Errorf("sample seeds: %w", err)
		}
	}
	return nil
}
