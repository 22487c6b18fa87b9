// Package tokenize splits text into word tokens using Unicode (UAX #29) word
// boundaries. Punctuation becomes its own token and whitespace is dropped.
package tokenize

import (
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
)

// Tokenize is safe for concurrent use.
func Tokenize(text string) []string {
	tokens := make([]string, 0, len(text)/4)

	segments := words.FromString(text)
	for segments.Next() {
		token := segments.Value()
		if strings.TrimFunc(token, unicode.IsSpace) == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// Join rebuilds a string from tokens separated by single spaces.
func Join(tokens []string) string {
	return strings.Join(tokens, " ")
}

// IsWord reports whether token contains at least one letter.
func IsWord(token string) bool {
	return strings.IndexFunc(token, unicode.IsLetter) >= 0
}

// Tokenizer adapts Tokenize to the pipeline's collaborator interface.
type Tokenizer struct{}

func (Tokenizer) Tokenize(text string) []string {
	return Tokenize(text)
}
