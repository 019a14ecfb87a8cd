package vocab

import (
	"errors"
	"fmt"

	"namegen/internal/corpus"
	"namegen/internal/nn"
)

// Encoder turns categories and strings into the vectors consumed by the
// sequence model.
type Encoder struct {
	alphabet   *Alphabet
	categories []string
	catIndex   map[string]int
}

func NewEncoder(alphabet *Alphabet, categories []string) (*Encoder, error) {
	if alphabet == nil {
		return nil, errors.New("alphabet is required")
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: at least one category is required", corpus.ErrEmptyCorpus)
	}
	e := &Encoder{
		alphabet:   alphabet,
		categories: append([]string(nil), categories...),
		catIndex:   make(map[string]int, len(categories)),
	}
	for i, name := range categories {
		if _, dup := e.catIndex[name]; dup {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		e.catIndex[name] = i
	}
	return e, nil
}

func (e *Encoder) Alphabet() *Alphabet {
	return e.alphabet
}

func (e *Encoder) Categories() []string {
	return append([]string(nil), e.categories...)
}

func (e *Encoder) NumCategories() int {
	return len(e.categories)
}

func (e *Encoder) VocabSize() int {
	return e.alphabet.Size()
}

func (e *Encoder) EOS() int {
	return e.alphabet.EOS()
}

func (e *Encoder) CategoryIndex(name string) (int, error) {
	i, ok := e.catIndex[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return i, nil
}

func (e *Encoder) EncodeCategory(name string) ([]float64, error) {
	i, err := e.CategoryIndex(name)
	if err != nil {
		return nil, err
	}
	return nn.OneHot(len(e.categories), i)
}

func (e *Encoder) EncodeChar(r rune) ([]float64, error) {
	i, err := e.alphabet.Index(r)
	if err != nil {
		return nil, err
	}
	return nn.OneHot(e.alphabet.Size(), i)
}

func (e *Encoder) EncodeString(s string) ([][]float64, error) {
	out := make([][]float64, 0, len(s))
	for _, r := range s {
		v, err := e.EncodeChar(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// BuildTarget returns, for every character of s, the index of the character
// that follows it; the last character is followed by end-of-sequence.
func (e *Encoder) BuildTarget(s string) ([]int, error) {
	runes := []rune(s)
	out := make([]int, len(runes))
	for i := 1; i < len(runes); i++ {
		idx, err := e.alphabet.Index(runes[i])
		if err != nil {
			return nil, err
		}
		out[i-1] = idx
	}
	if len(runes) > 0 {
		if _, err := e.alphabet.Index(runes[0]); err != nil {
			return nil, err
		}
		out[len(runes)-1] = e.alphabet.EOS()
	}
	return out, nil
}

func (e *Encoder) DecodeIndex(i int) (rune, error) {
	return e.alphabet.Decode(i)
}
