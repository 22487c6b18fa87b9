package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/hinglishflow/internal/idiom"
	"github.com/spacesedan/hinglishflow/internal/models"
	"github.com/spacesedan/hinglishflow/internal/notation"
	"github.com/spacesedan/hinglishflow/internal/spell"
)

type stubTranslator struct {
	out   string
	err   error
	calls atomic.Int32
}

func (s *stubTranslator) Translate(_ context.Context, text string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	if s.out == "" {
		return text, nil
	}
	return s.out, nil
}

type slowTranslator struct{}

func (slowTranslator) Translate(ctx context.Context, _ string) (string, error) {
	time.Sleep(time.Second)
	return "too late", nil
}

type panickingIdioms struct{}

func (panickingIdioms) Normalize(context.Context, string) (string, error) {
	panic("corpus corrupted")
}

type failingIdioms struct{}

func (failingIdioms) Normalize(context.Context, string) (string, error) {
	return "", idiom.ErrNotInitialized
}

type blockingIdioms struct{}

func (blockingIdioms) Normalize(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func newTestPipeline(t *testing.T, tr Translator, idioms IdiomNormalizer) *Pipeline {
	t.Helper()
	store := notation.NewMemoryStore([]models.NotationEntry{
		{ShortForm: "pls", LongForm: "please"},
		{ShortForm: "tmrw", LongForm: "tomorrow"},
		{ShortForm: "pe", LongForm: "par"},
		{ShortForm: "u", LongForm: "you"},
	})
	return New(Deps{
		Translator: tr,
		Notation:   notation.NewResolver(store),
		Spell:      spell.New(),
		Idiom:      idioms,
	}, Config{TranslatorTimeout: 50 * time.Millisecond, IdiomTimeout: 50 * time.Millisecond})
}

func defaultIdioms(t *testing.T) IdiomNormalizer {
	t.Helper()
	corpus, err := idiom.DefaultCorpus()
	require.NoError(t, err)
	return idiom.NewNormalizer(corpus)
}

func TestConvert_ExpandsNotations(t *testing.T) {
	p := newTestPipeline(t, nil, defaultIdioms(t))

	got := p.Convert(context.Background(), "main kal ghar pe aaunga pls")
	assert.Equal(t, "main kal ghar par aaunga please", got.Text)
}

func TestConvert_NotationsAfterTranslation(t *testing.T) {
	tr := &stubTranslator{out: "See u tmrw, pls call!"}
	p := newTestPipeline(t, tr, defaultIdioms(t))

	got := p.Convert(context.Background(), "kal milte hai")
	assert.Equal(t, "See you tomorrow , please call !", got.Text)
	assert.Equal(t, int32(1), tr.calls.Load())
}

func TestConvert_TranslatorFailureFallsBack(t *testing.T) {
	tr := &stubTranslator{err: errors.New("503 from upstream")}
	p := newTestPipeline(t, tr, defaultIdioms(t))

	got := p.Convert(context.Background(), "tmrw milte hai")
	assert.Equal(t, "tomorrow milte hai", got.Text)
}

func TestConvert_TranslatorTimeoutFallsBack(t *testing.T) {
	p := newTestPipeline(t, slowTranslator{}, nil)

	start := time.Now()
	got := p.Convert(context.Background(), "pls wait")
	assert.Equal(t, "please wait", got.Text)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestConvert_UnhealthyTranslatorSkipped(t *testing.T) {
	tr := &stubTranslator{out: "should not be used"}
	var healthy atomic.Bool

	p := newTestPipeline(t, tr, nil)
	p.deps.TranslatorHealthy = &healthy

	got := p.Convert(context.Background(), "thik hai")
	assert.Equal(t, "thik hai", got.Text)
	assert.Zero(t, tr.calls.Load())

	healthy.Store(true)
	got = p.Convert(context.Background(), "thik hai")
	assert.Equal(t, "should not be used", got.Text)
}

func TestConvert_NormalizesIdioms(t *testing.T) {
	p := newTestPipeline(t, nil, defaultIdioms(t))

	got := p.Convert(context.Background(), "The exam was a piece of cake")
	assert.Equal(t, "The exam was a very easy", got.Text)
}

func TestConvert_IdiomFailuresFallBack(t *testing.T) {
	tests := []struct {
		name   string
		idioms IdiomNormalizer
	}{
		{"error", failingIdioms{}},
		{"panic", panickingIdioms{}},
		{"timeout", blockingIdioms{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, nil, tt.idioms)
			got := p.Convert(context.Background(), "break a leg u")
			assert.Equal(t, "break a leg you", got.Text)
		})
	}
}

func TestConvert_FlagsUnknownWordsWithoutChangingText(t *testing.T) {
	p := newTestPipeline(t, nil, nil)

	got := p.Convert(context.Background(), "please come hoem hoem 42")
	assert.Equal(t, "please come hoem hoem 42", got.Text)

	require.Len(t, got.Flagged, 1)
	assert.Equal(t, "hoem", got.Flagged[0].Token)
	assert.Contains(t, got.Flagged[0].Suggestions, "home")
}

func TestConvert_EmptyInput(t *testing.T) {
	tr := &stubTranslator{}
	p := newTestPipeline(t, tr, defaultIdioms(t))

	for _, in := range []string{"", "   ", "\n\t"} {
		got := p.Convert(context.Background(), in)
		assert.Empty(t, got.Text)
		assert.Empty(t, got.Flagged)
	}
	assert.Zero(t, tr.calls.Load())
}

func TestConvert_NilCollaborators(t *testing.T) {
	p := New(Deps{}, Config{})

	got := p.Convert(context.Background(), "kya  haal   hai")
	assert.Equal(t, "kya haal hai", got.Text)
}

func TestConvert_ConcurrentCallsDoNotShareState(t *testing.T) {
	p := newTestPipeline(t, nil, defaultIdioms(t))
	inputs := []string{"pls come", "tmrw u", "break a leg", "piece of cake pe"}
	want := []string{"please come", "tomorrow you", "good luck", "very easy par"}

	errs := make(chan string, 40)
	done := make(chan struct{})
	for i := 0; i < 40; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			got := p.Convert(context.Background(), inputs[i%len(inputs)])
			if got.Text != want[i%len(want)] {
				errs <- got.Text
			}
		}(i)
	}
	for i := 0; i < 40; i++ {
		<-done
	}
	close(errs)

	var bad []string
	for e := range errs {
		bad = append(bad, e)
	}
	assert.Empty(t, bad, strings.Join(bad, "; "))
}
