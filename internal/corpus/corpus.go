// Package corpus holds the category → example lines index that feeds
// training, along with a directory loader for it.
package corpus

import (
	"errors"
	"fmt"
)

var ErrEmptyCorpus = errors.New("empty corpus")

// Index maps category names to their example lines. Category order is the
// order given at construction.
type Index struct {
	categories []string
	lines      map[string][]string
}

func New(categories []string, lines map[string][]string) (*Index, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", ErrEmptyCorpus)
	}
	idx := &Index{
		categories: make([]string, 0, len(categories)),
		lines:      make(map[string][]string, len(categories)),
	}
	for _, name := range categories {
		if _, dup := idx.lines[name]; dup {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		idx.categories = append(idx.categories, name)
		idx.lines[name] = append([]string(nil), lines[name]...)
	}
	return idx, nil
}

func (x *Index) Categories() []string {
	return append([]string(nil), x.categories...)
}

func (x *Index) NumCategories() int {
	return len(x.categories)
}

// Lines returns the example lines of a category. The returned slice must not
// be modified.
func (x *Index) Lines(category string) ([]string, bool) {
	lines, ok := x.lines[category]
	return lines, ok
}

// Len is the total number of example lines across categories.
func (x *Index) Len() int {
	n := 0
	for _, lines := range x.lines {
		n += len(lines)
	}
	return n
}

// Validate fails with ErrEmptyCorpus when there is nothing to train on.
func (x *Index) Validate() error {
	if x == nil || len(x.categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrEmptyCorpus)
	}
	if x.Len() == 0 {
		return fmt.Errorf("%w: no examples", ErrEmptyCorpus)
	}
	return nil
}
