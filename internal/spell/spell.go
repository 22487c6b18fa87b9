// Package spell answers whether a token is a known English word and proposes
// close dictionary words for unknown ones. It never rewrites text.
package spell

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

//go:embed words.txt
var baseWords string

const maxSuggestDistance = 2

var suffixes = []string{"'s", "s", "es", "ed", "d", "ing", "ly", "er", "est"}

// Checker is read-only after construction and safe for concurrent use.
type Checker struct {
	words map[string]struct{}
}

// New returns a checker backed by the embedded base word list.
func New() *Checker {
	c := &Checker{words: make(map[string]struct{}, 1024)}
	if err := c.addFrom(strings.NewReader(baseWords)); err != nil {
		panic(fmt.Sprintf("[SpellChecker] embedded word list: %v", err))
	}
	return c
}

// Load extends the embedded word list with a newline-separated dictionary
// file such as /usr/share/dict/words.
func Load(path string) (*Checker, error) {
	c := New()
	if path == "" {
		return c, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[SpellChecker] open dictionary %q: %w", path, err)
	}
	defer f.Close()

	if err := c.addFrom(f); err != nil {
		return nil, fmt.Errorf("[SpellChecker] read dictionary %q: %w", path, err)
	}
	return c, nil
}

func (c *Checker) addFrom(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		c.words[word] = struct{}{}
	}
	return scanner.Err()
}

func (c *Checker) Size() int {
	return len(c.words)
}

// Check reports whether word is in the dictionary. Tokens without letters
// (punctuation, numbers) are always accepted.
func (c *Checker) Check(word string) bool {
	if strings.IndexFunc(word, unicode.IsLetter) < 0 {
		return true
	}

	lower := strings.ToLower(word)
	if c.has(lower) {
		return true
	}
	for _, suffix := range suffixes {
		stem, ok := strings.CutSuffix(lower, suffix)
		if ok && len(stem) > 1 && c.has(stem) {
			return true
		}
	}
	return false
}

func (c *Checker) has(word string) bool {
	_, ok := c.words[word]
	return ok
}

type candidate struct {
	word     string
	distance int
	jw       float64
}

// Suggest returns up to n dictionary words within a small edit distance of
// word, closest first.
func (c *Checker) Suggest(word string, n int) []string {
	if n <= 0 || c.Check(word) {
		return nil
	}

	lower := strings.ToLower(word)
	var candidates []candidate
	for w := range c.words {
		if abs(len(w)-len(lower)) > maxSuggestDistance {
			continue
		}
		d := matchr.Levenshtein(lower, w)
		if d > maxSuggestDistance {
			continue
		}
		candidates = append(candidates, candidate{
			word:     w,
			distance: d,
			jw:       matchr.JaroWinkler(lower, w, false),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		if candidates[i].jw != candidates[j].jw {
			return candidates[i].jw > candidates[j].jw
		}
		return candidates[i].word < candidates[j].word
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]string, len(candidates))
	for i, cand := range candidates {
		out[i] = cand.word
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
