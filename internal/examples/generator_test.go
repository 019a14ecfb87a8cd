package examples

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namegen/internal/corpus"
	"namegen/internal/vocab"
)

func newFixture(t *testing.T, lines map[string][]string, categories ...string) (*corpus.Index, *vocab.Encoder) {
	t.Helper()
	idx, err := corpus.New(categories, lines)
	require.NoError(t, err)
	enc, err := vocab.NewEncoder(vocab.DefaultAlphabet(), categories)
	require.NoError(t, err)
	return idx, enc
}

func TestNextProducesAlignedTensors(t *testing.T) {
	idx, enc := newFixture(t, map[string][]string{
		"English": {"Abel", "Allen"},
		"Russian": {"Ivanov"},
	}, "English", "Russian")
	gen, err := NewGenerator(idx, enc, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 200; i++ {
		ex, err := gen.Next()
		require.NoError(t, err)
		seen[ex.Category] = true

		lines, ok := idx.Lines(ex.Category)
		require.True(t, ok)
		assert.Contains(t, lines, ex.Line)
		assert.Len(t, ex.CategoryVec, 2)
		assert.Len(t, ex.Inputs, len(ex.Line))
		assert.Len(t, ex.Targets, len(ex.Line))
		assert.Equal(t, enc.EOS(), ex.Targets[len(ex.Targets)-1])
	}
	assert.True(t, seen["English"])
	assert.True(t, seen["Russian"])
}

func TestNextIsReproducibleForSeed(t *testing.T) {
	idx, enc := newFixture(t, map[string][]string{
		"A": {"Abel", "Allen", "Baker"},
		"B": {"Ivanov", "Petrov"},
	}, "A", "B")
	a, err := NewGenerator(idx, enc, rand.New(rand.NewSource(3)))
	require.NoError(t, err)
	b, err := NewGenerator(idx, enc, rand.New(rand.NewSource(3)))
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		ca, la, err := a.Pair()
		require.NoError(t, err)
		cb, lb, err := b.Pair()
		require.NoError(t, err)
		assert.Equal(t, ca, cb)
		assert.Equal(t, la, lb)
	}
}

func TestNextEmptyCategory(t *testing.T) {
	idx, enc := newFixture(t, map[string][]string{}, "Empty")
	gen, err := NewGenerator(idx, enc, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	_, err = gen.Next()
	assert.ErrorIs(t, err, corpus.ErrEmptyCorpus)
}

func TestBuildUnknownCharacter(t *testing.T) {
	_, enc := newFixture(t, nil, "German")
	_, err := Build(enc, "German", "Müller")
	assert.ErrorIs(t, err, vocab.ErrUnknownCharacter)

	_, err = Build(enc, "Dutch", "Smit")
	assert.ErrorIs(t, err, vocab.ErrUnknownCategory)
}

func TestNewGeneratorValidation(t *testing.T) {
	idx, enc := newFixture(t, map[string][]string{"A": {"x"}}, "A")
	_, err := NewGenerator(nil, enc, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, corpus.ErrEmptyCorpus)
	_, err = NewGenerator(idx, nil, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
	_, err = NewGenerator(idx, enc, nil)
	assert.Error(t, err)

	other, err := vocab.NewEncoder(vocab.DefaultAlphabet(), []string{"B"})
	require.NoError(t, err)
	_, err = NewGenerator(idx, other, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, vocab.ErrUnknownCategory)
}
