// Package idiom rewrites idiomatic phrases into plain English using a phrase
// corpus.
package idiom

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed idioms.yaml
var defaultCorpus []byte

var (
	ErrNotInitialized = errors.New("idiom session not initialized")
	ErrNotDetected    = errors.New("idiom detection has not run")
	ErrNotConverted   = errors.New("idiom conversion has not run")
)

type Idiom struct {
	Phrase  string `yaml:"phrase"`
	Meaning string `yaml:"meaning"`
}

type corpusFile struct {
	Idioms []Idiom `yaml:"idioms"`
}

type entry struct {
	Idiom
	pattern *regexp.Regexp
}

// Corpus is immutable once built and may be shared between goroutines.
type Corpus struct {
	entries []entry
}

// DefaultCorpus parses the embedded idiom list.
func DefaultCorpus() (*Corpus, error) {
	return ParseCorpus(strings.NewReader(string(defaultCorpus)))
}

func LoadCorpus(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[IdiomNormalizer] open corpus %q: %w", path, err)
	}
	defer f.Close()
	return ParseCorpus(f)
}

func ParseCorpus(r io.Reader) (*Corpus, error) {
	var file corpusFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("[IdiomNormalizer] decode corpus: %w", err)
	}
	return NewCorpus(file.Idioms)
}

func NewCorpus(idioms []Idiom) (*Corpus, error) {
	c := &Corpus{entries: make([]entry, 0, len(idioms))}
	for _, idm := range idioms {
		words := strings.Fields(idm.Phrase)
		if len(words) == 0 {
			return nil, fmt.Errorf("[IdiomNormalizer] empty idiom phrase for meaning %q", idm.Meaning)
		}
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		pattern, err := regexp.Compile(`(?i)\b` + strings.Join(words, `\s+`) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("[IdiomNormalizer] compile %q: %w", idm.Phrase, err)
		}
		c.entries = append(c.entries, entry{Idiom: idm, pattern: pattern})
	}

	sort.SliceStable(c.entries, func(i, j int) bool {
		return len(c.entries[i].Phrase) > len(c.entries[j].Phrase)
	})
	return c, nil
}

func (c *Corpus) Len() int {
	return len(c.entries)
}

// match is one detected idiom occurrence, as byte offsets into the text.
type match struct {
	start, end int
	meaning    string
}

// session carries the transient state of one normalization: init, detect,
// convert, display must run in that order.
type session struct {
	corpus    *Corpus
	text      string
	ready     bool
	matches   []match
	detected  bool
	converted string
	done      bool
}

func (s *session) init(text string) {
	*s = session{corpus: s.corpus, text: text, ready: true}
}

func (s *session) detect() error {
	if !s.ready {
		return ErrNotInitialized
	}

	taken := make([]bool, len(s.text))
	for _, e := range s.corpus.entries {
		for _, loc := range e.pattern.FindAllStringIndex(s.text, -1) {
			if overlaps(taken, loc[0], loc[1]) {
				continue
			}
			for i := loc[0]; i < loc[1]; i++ {
				taken[i] = true
			}
			s.matches = append(s.matches, match{start: loc[0], end: loc[1], meaning: e.Meaning})
		}
	}

	sort.Slice(s.matches, func(i, j int) bool { return s.matches[i].start < s.matches[j].start })
	s.detected = true
	return nil
}

func (s *session) convert() error {
	if !s.detected {
		return ErrNotDetected
	}

	var b strings.Builder
	b.Grow(len(s.text))
	last := 0
	for _, m := range s.matches {
		b.WriteString(s.text[last:m.start])
		b.WriteString(m.meaning)
		last = m.end
	}
	b.WriteString(s.text[last:])

	s.converted = b.String()
	s.done = true
	return nil
}

func (s *session) display() (string, error) {
	if !s.done {
		return "", ErrNotConverted
	}
	return s.converted, nil
}

func overlaps(taken []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if taken[i] {
			return true
		}
	}
	return false
}

type Normalizer struct {
	corpus *Corpus
}

func NewNormalizer(corpus *Corpus) *Normalizer {
	return &Normalizer{corpus: corpus}
}

// Normalize rewrites every idiom found in text. Each call uses its own
// session so concurrent calls never share state.
func (n *Normalizer) Normalize(ctx context.Context, text string) (string, error) {
	if n == nil || n.corpus == nil {
		return "", ErrNotInitialized
	}

	s := &session{corpus: n.corpus}
	s.init(text)

	if err := s.detect(); err != nil {
		return "", fmt.Errorf("[IdiomNormalizer] detect: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("[IdiomNormalizer] canceled after detect: %w", err)
	}
	if err := s.convert(); err != nil {
		return "", fmt.Errorf("[IdiomNormalizer] convert: %w", err)
	}
	return s.display()
}
