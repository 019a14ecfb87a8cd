package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAlphabetShape(t *testing.T) {
	a := DefaultAlphabet()
	assert.Equal(t, 58, a.Len())
	assert.Equal(t, 59, a.Size())
	assert.Equal(t, 58, a.EOS())
	assert.True(t, a.Contains('\''))
	assert.False(t, a.Contains('é'))
}

func TestNewAlphabetRejectsDuplicatesAndEmpty(t *testing.T) {
	_, err := NewAlphabet("abca")
	assert.Error(t, err)
	_, err = NewAlphabet("")
	assert.Error(t, err)
}

func TestAlphabetDecode(t *testing.T) {
	a, err := NewAlphabet("ab")
	require.NoError(t, err)

	r, err := a.Decode(1)
	require.NoError(t, err)
	assert.Equal(t, 'b', r)

	_, err = a.Decode(2)
	assert.ErrorIs(t, err, ErrEndOfSequence)
	_, err = a.Decode(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = a.Decode(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestNoLetterMapsToEOS(t *testing.T) {
	a := DefaultAlphabet()
	for _, r := range a.Letters() {
		idx, err := a.Index(r)
		require.NoError(t, err)
		assert.NotEqual(t, a.EOS(), idx)
	}
}
