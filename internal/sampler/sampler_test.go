package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namegen/internal/seqmodel"
	"namegen/internal/vocab"
)

// constantModel always predicts the same index.
type constantModel struct {
	dims  seqmodel.Dims
	index int
	steps int
}

func (m *constantModel) Dims() seqmodel.Dims       { return m.dims }
func (m *constantModel) InitState() seqmodel.State { return 0 }

func (m *constantModel) Step(category, char []float64, state seqmodel.State) ([]float64, seqmodel.State, error) {
	m.steps++
	out := make([]float64, m.dims.Vocab)
	for i := range out {
		out[i] = -10
	}
	out[m.index] = 0
	return out, state.(int) + 1, nil
}

func newEncoder(t *testing.T, letters string, categories ...string) *vocab.Encoder {
	t.Helper()
	alphabet, err := vocab.NewAlphabet(letters)
	require.NoError(t, err)
	enc, err := vocab.NewEncoder(alphabet, categories)
	require.NoError(t, err)
	return enc
}

func newLSTMSampler(t *testing.T) (*Sampler, *vocab.Encoder) {
	t.Helper()
	enc := newEncoder(t, vocab.DefaultLetters, "English", "Russian")
	model, err := seqmodel.NewLSTM(seqmodel.LSTMConfig{
		Categories: enc.NumCategories(),
		Vocab:      enc.VocabSize(),
		Hidden:     16,
		Dropout:    0.1,
		Seed:       5,
	})
	require.NoError(t, err)
	s, err := New(model, enc, 0)
	require.NoError(t, err)
	return s, enc
}

func TestNewValidation(t *testing.T) {
	enc := newEncoder(t, "ab", "X")
	_, err := New(nil, enc, 0)
	assert.Error(t, err)
	_, err = New(&constantModel{dims: seqmodel.Dims{Categories: 1, Vocab: 3, Hidden: 1}}, nil, 0)
	assert.Error(t, err)
	_, err = New(&constantModel{dims: seqmodel.Dims{Categories: 1, Vocab: 3, Hidden: 1}}, enc, -1)
	assert.ErrorIs(t, err, ErrInvalidMaxLength)
	_, err = New(&constantModel{dims: seqmodel.Dims{Categories: 2, Vocab: 3, Hidden: 1}}, enc, 0)
	assert.ErrorIs(t, err, seqmodel.ErrDimensionMismatch)

	s, err := New(&constantModel{dims: seqmodel.Dims{Categories: 1, Vocab: 3, Hidden: 1}}, enc, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxLength, s.MaxLength())
}

func TestSampleZeroMaxLengthReturnsStart(t *testing.T) {
	enc := newEncoder(t, "ab", "X")
	model := &constantModel{dims: seqmodel.Dims{Categories: 1, Vocab: 3, Hidden: 1}, index: 1}
	s, err := New(model, enc, 0)
	require.NoError(t, err)

	got, err := s.Sample("X", 'a', 0)
	require.NoError(t, err)
	assert.Equal(t, "a", got)
	assert.Zero(t, model.steps)
}

func TestSampleStopsAtEndOfSequence(t *testing.T) {
	enc := newEncoder(t, "ab", "X")
	model := &constantModel{dims: seqmodel.Dims{Categories: 1, Vocab: 3, Hidden: 1}, index: enc.EOS()}
	s, err := New(model, enc, 0)
	require.NoError(t, err)

	got, err := s.Sample("X", 'a', 1)
	require.NoError(t, err)
	assert.Equal(t, "a", got)
	assert.Equal(t, 1, model.steps)
}

func TestSampleStopsAtMaxLength(t *testing.T) {
	enc := newEncoder(t, "ab", "X")
	model := &constantModel{dims: seqmodel.Dims{Categories: 1, Vocab: 3, Hidden: 1}, index: 1}
	s, err := New(model, enc, 0)
	require.NoError(t, err)

	got, err := s.Sample("X", 'a', 4)
	require.NoError(t, err)
	assert.Equal(t, "abbbb", got)
}

func TestSampleErrors(t *testing.T) {
	s, _ := newLSTMSampler(t)
	_, err := s.Sample("Klingon", 'a', 5)
	assert.ErrorIs(t, err, vocab.ErrUnknownCategory)
	_, err = s.Sample("English", '9', 0)
	assert.ErrorIs(t, err, vocab.ErrUnknownCharacter)
	_, err = s.Sample("English", 'a', -1)
	assert.ErrorIs(t, err, ErrInvalidMaxLength)
}

func TestSampleIsDeterministicAndBounded(t *testing.T) {
	s, enc := newLSTMSampler(t)
	for _, start := range "ABCxyz" {
		first, err := s.Sample("Russian", start, 10)
		require.NoError(t, err)
		second, err := s.Sample("Russian", start, 10)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		runes := []rune(first)
		assert.LessOrEqual(t, len(runes), 11)
		assert.Equal(t, start, runes[0])
		for _, r := range runes {
			assert.True(t, enc.Alphabet().Contains(r), "rune %q", r)
		}
	}
}

func TestSamplesKeepsSeedOrder(t *testing.T) {
	s, _ := newLSTMSampler(t)
	got, err := s.Samples("Russian", []rune("RUS"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 'R', []rune(got[0])[0])
	assert.Equal(t, 'U', []rune(got[1])[0])
	assert.Equal(t, 'S', []rune(got[2])[0])

	_, err = s.Samples("Russian", []rune("R9"))
	assert.ErrorIs(t, err, vocab.ErrUnknownCharacter)
}

func TestDefaultSeeds(t *testing.T) {
	alphabet := vocab.DefaultAlphabet()
	assert.Equal(t, []rune("RUS"), DefaultSeeds("Russian", alphabet))
	assert.Equal(t, []rune("X"), DefaultSeeds("X", alphabet))
	assert.Equal(t, []rune("CZE"), DefaultSeeds("Czech", alphabet))
	assert.Empty(t, DefaultSeeds("", alphabet))
}
