package corpus

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxConcurrentReads = 8

// ToASCII decomposes s, drops combining marks and keeps only runes accepted by
// keep. "O'Néàl" becomes "O'Neal" for an ASCII alphabet.
func ToASCII(s string, keep func(rune) bool) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, s)
	if err != nil {
		decomposed = s
	}
	var b strings.Builder
	for _, r := range decomposed {
		if keep == nil || keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LoadDir builds an Index from every *.txt file in dir, one category per file
// named after the file. Lines are normalized with ToASCII and lines that end up
// empty are dropped.
func LoadDir(ctx context.Context, dir string, keep func(rune) bool) (*Index, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no *.txt files in %s", ErrEmptyCorpus, dir)
	}
	sort.Strings(paths)

	categories := make([]string, len(paths))
	contents := make([][]string, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for i, path := range paths {
		categories[i] = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		g.Go(func() error {
			lines, err := readLines(gctx, path, keep)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			contents[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	lines := make(map[string][]string, len(categories))
	for i, name := range categories {
		lines[name] = contents[i]
	}
	idx, err := New(categories, lines)
	if err != nil {
		return nil, err
	}
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}

func readLines(ctx context.Context, path string, keep func(rune) bool) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := ToASCII(strings.TrimSpace(scanner.Text()), keep)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}
