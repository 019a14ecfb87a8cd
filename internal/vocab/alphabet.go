// Package vocab maps characters and category labels to indices and one-hot
// vectors.
package vocab

import (
	"errors"
	"fmt"
)

// DefaultLetters is ASCII letters plus a handful of punctuation found in names.
const DefaultLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ .,;'-"

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownCharacter = errors.New("unknown character")
	ErrEndOfSequence    = errors.New("end-of-sequence index has no character")
	ErrIndexOutOfRange  = errors.New("index out of range")
)

// Alphabet is an ordered character set with an implicit end-of-sequence
// symbol at index Len().
type Alphabet struct {
	letters []rune
	index   map[rune]int
}

func NewAlphabet(letters string) (*Alphabet, error) {
	a := &Alphabet{index: make(map[rune]int)}
	for _, r := range letters {
		if _, dup := a.index[r]; dup {
			return nil, fmt.Errorf("duplicate letter %q in alphabet", r)
		}
		a.index[r] = len(a.letters)
		a.letters = append(a.letters, r)
	}
	if len(a.letters) == 0 {
		return nil, errors.New("alphabet must not be empty")
	}
	return a, nil
}

func DefaultAlphabet() *Alphabet {
	a, err := NewAlphabet(DefaultLetters)
	if err != nil {
		panic(err)
	}
	return a
}

// Len is the number of ordinary characters.
func (a *Alphabet) Len() int {
	return len(a.letters)
}

// Size is the vocabulary size including the end-of-sequence symbol.
func (a *Alphabet) Size() int {
	return len(a.letters) + 1
}

func (a *Alphabet) EOS() int {
	return len(a.letters)
}

func (a *Alphabet) Contains(r rune) bool {
	_, ok := a.index[r]
	return ok
}

func (a *Alphabet) Index(r rune) (int, error) {
	i, ok := a.index[r]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCharacter, r)
	}
	return i, nil
}

func (a *Alphabet) Decode(i int) (rune, error) {
	if i == a.EOS() {
		return 0, ErrEndOfSequence
	}
	if i < 0 || i > a.EOS() {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return a.letters[i], nil
}

func (a *Alphabet) Letters() string {
	return string(a.letters)
}
