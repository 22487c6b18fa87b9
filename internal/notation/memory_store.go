package notation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spacesedan/hinglishflow/internal/models"
)

// MemoryStore serves a notation table held in memory. When the same short
// form appears twice the first entry wins.
type MemoryStore struct {
	entries map[string]string
}

func NewMemoryStore(entries []models.NotationEntry) *MemoryStore {
	m := &MemoryStore{entries: make(map[string]string, len(entries))}
	for _, e := range entries {
		key := strings.ToLower(strings.TrimSpace(e.ShortForm))
		if key == "" {
			continue
		}
		if _, exists := m.entries[key]; exists {
			slog.Debug("[NotationLookup] Duplicate short form ignored",
				slog.String("short_form", e.ShortForm))
			continue
		}
		m.entries[key] = e.LongForm
	}
	return m
}

func (m *MemoryStore) Lookup(_ context.Context, shortForm string) (string, bool, error) {
	v, ok := m.entries[strings.ToLower(shortForm)]
	return v, ok, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}

func (m *MemoryStore) Len() int {
	return len(m.entries)
}

// LoadYAML reads a notation seed file of the form
//
//	notations:
//	  - short_form: pls
//	    long_form: please
func LoadYAML(path string) ([]models.NotationEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("[NotationLookup] open seed %q: %w", path, err)
	}
	defer f.Close()
	return ParseYAML(f)
}

func ParseYAML(r io.Reader) ([]models.NotationEntry, error) {
	var seed models.NotationSeed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("[NotationLookup] decode seed: %w", err)
	}
	return seed.Notations, nil
}
