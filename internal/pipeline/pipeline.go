// Package pipeline runs the Hinglish to English conversion: translation,
// notation expansion, spell checking and idiom normalization.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spacesedan/hinglishflow/internal/models"
	"github.com/spacesedan/hinglishflow/internal/observe"
	"github.com/spacesedan/hinglishflow/internal/tokenize"
)

const (
	StageTranslate = "translate"
	StageNotation  = "notation"
	StageSpell     = "spell"
	StageIdiom     = "idiom"
)

const (
	defaultTranslatorTimeout = 10 * time.Second
	defaultIdiomTimeout      = 2 * time.Second
	defaultMaxSuggestions    = 3
)

// ErrTranslatorUnhealthy is reported when translation is skipped because the
// health monitor marked the backend down.
var ErrTranslatorUnhealthy = errors.New("translator marked unhealthy")

type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

type Tokenizer interface {
	Tokenize(text string) []string
}

type NotationResolver interface {
	Resolve(ctx context.Context, token string) string
}

type SpellChecker interface {
	Check(word string) bool
	Suggest(word string, n int) []string
}

type IdiomNormalizer interface {
	Normalize(ctx context.Context, text string) (string, error)
}

// Deps are the collaborators of a Pipeline. Translator, Notation, Spell and
// Idiom may be nil, in which case that stage passes its input through.
type Deps struct {
	Translator Translator
	Tokenizer  Tokenizer
	Notation   NotationResolver
	Spell      SpellChecker
	Idiom      IdiomNormalizer

	// TranslatorHealthy, when set, is consulted before every translation.
	TranslatorHealthy *atomic.Bool
	Metrics           *observe.Metrics
}

type Config struct {
	TranslatorTimeout time.Duration
	IdiomTimeout      time.Duration
	MaxSuggestions    int
}

type Pipeline struct {
	deps Deps
	cfg  Config
}

func New(deps Deps, cfg Config) *Pipeline {
	if deps.Tokenizer == nil {
		deps.Tokenizer = tokenize.Tokenizer{}
	}
	if cfg.TranslatorTimeout <= 0 {
		cfg.TranslatorTimeout = defaultTranslatorTimeout
	}
	if cfg.IdiomTimeout <= 0 {
		cfg.IdiomTimeout = defaultIdiomTimeout
	}
	if cfg.MaxSuggestions <= 0 {
		cfg.MaxSuggestions = defaultMaxSuggestions
	}
	return &Pipeline{deps: deps, cfg: cfg}
}

// Convert never fails. Every stage that errors, panics or times out is
// skipped and the text from the previous stage carries on.
func (p *Pipeline) Convert(ctx context.Context, input string) models.PipelineResult {
	translated := p.translate(ctx, input)

	start := time.Now()
	tokens := p.deps.Tokenizer.Tokenize(translated)
	resolved := make([]string, len(tokens))
	for i, tok := range tokens {
		resolved[i] = p.resolve(ctx, tok)
	}
	joined := tokenize.Join(resolved)
	p.deps.Metrics.RecordStage(ctx, StageNotation, time.Since(start).Seconds())

	start = time.Now()
	tokens = p.deps.Tokenizer.Tokenize(joined)
	flagged := p.spellCheck(tokens)
	working := tokenize.Join(tokens)
	p.deps.Metrics.RecordStage(ctx, StageSpell, time.Since(start).Seconds())

	return models.PipelineResult{
		Text:    p.normalizeIdioms(ctx, working),
		Flagged: flagged,
	}
}

func (p *Pipeline) translate(ctx context.Context, input string) string {
	if p.deps.Translator == nil || strings.TrimSpace(input) == "" {
		return input
	}
	if h := p.deps.TranslatorHealthy; h != nil && !h.Load() {
		p.fallback(ctx, StageTranslate, ErrTranslatorUnhealthy)
		return input
	}

	start := time.Now()
	out, err := runBounded(ctx, p.cfg.TranslatorTimeout, p.deps.Translator.Translate, input)
	p.deps.Metrics.RecordStage(ctx, StageTranslate, time.Since(start).Seconds())
	if err != nil {
		p.fallback(ctx, StageTranslate, err)
		return input
	}
	return out
}

func (p *Pipeline) resolve(ctx context.Context, token string) (out string) {
	if p.deps.Notation == nil {
		return token
	}
	defer func() {
		if r := recover(); r != nil {
			p.fallback(ctx, StageNotation, fmt.Errorf("panic: %v", r))
			out = token
		}
	}()
	return p.deps.Notation.Resolve(ctx, token)
}

// spellCheck records unrecognized words. Tokens are never rewritten.
func (p *Pipeline) spellCheck(tokens []string) (flagged []models.FlaggedToken) {
	if p.deps.Spell == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("[Pipeline] Spell checker panicked, skipping", slog.Any("panic", r))
			flagged = nil
		}
	}()

	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if !tokenize.IsWord(tok) || p.deps.Spell.Check(tok) {
			continue
		}
		key := strings.ToLower(tok)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		flagged = append(flagged, models.FlaggedToken{
			Token:       tok,
			Suggestions: p.deps.Spell.Suggest(tok, p.cfg.MaxSuggestions),
		})
	}
	return flagged
}

func (p *Pipeline) normalizeIdioms(ctx context.Context, working string) string {
	if p.deps.Idiom == nil || working == "" {
		return working
	}

	start := time.Now()
	out, err := runBounded(ctx, p.cfg.IdiomTimeout, p.deps.Idiom.Normalize, working)
	p.deps.Metrics.RecordStage(ctx, StageIdiom, time.Since(start).Seconds())
	if err != nil {
		p.fallback(ctx, StageIdiom, err)
		return working
	}
	return out
}

func (p *Pipeline) fallback(ctx context.Context, stage string, err error) {
	slog.Warn("[Pipeline] Stage failed, using previous text",
		slog.String("stage", stage),
		slog.String("error", err.Error()))
	p.deps.Metrics.RecordFallback(ctx, stage)
}

type boundedResult struct {
	text string
	err  error
}

// runBounded calls fn in its own goroutine so a collaborator that ignores
// cancellation still cannot hold the request past timeout.
func runBounded(ctx context.Context, timeout time.Duration, fn func(context.Context, string) (string, error), text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan boundedResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- boundedResult{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		out, err := fn(ctx, text)
		done <- boundedResult{text: out, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
