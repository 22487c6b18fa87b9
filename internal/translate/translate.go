// Package translate turns Hinglish input into English through an external
// translation backend.
package translate

import (
	"context"
	"errors"
)

// ErrEmptyTranslation is returned when a backend answers without any text.
var ErrEmptyTranslation = errors.New("translator returned empty text")

type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
	HealthCheck(ctx context.Context) error
	Name() string
}

// Noop hands the input back unchanged. It is used when no backend is
// configured.
type Noop struct{}

func (Noop) Translate(_ context.Context, text string) (string, error) { return text, nil }

func (Noop) HealthCheck(context.Context) error { return nil }

func (Noop) Name() string { return "none" }
