package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/spacesedan/hinglishflow/internal/clients"
)

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

type libreLanguage struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// LibreTranslator talks to a self-hosted LibreTranslate instance.
type LibreTranslator struct {
	http    *clients.JSONClient
	baseURL string
}

func NewLibreTranslator(httpClient *clients.JSONClient, baseURL string) *LibreTranslator {
	return &LibreTranslator{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (t *LibreTranslator) Name() string { return "libretranslate" }

func (t *LibreTranslator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	var out libreResponse
	err := t.http.PostJSON(ctx, t.baseURL+"/translate", libreRequest{
		Q:      text,
		Source: "auto",
		Target: "en",
		Format: "text",
	}, &out)
	if err != nil {
		return "", fmt.Errorf("[LibreTranslator] translate: %w", err)
	}

	translated := strings.TrimSpace(out.TranslatedText)
	if translated == "" {
		return "", fmt.Errorf("[LibreTranslator] %w", ErrEmptyTranslation)
	}
	return translated, nil
}

// HealthCheck requires the instance to list English among its languages.
func (t *LibreTranslator) HealthCheck(ctx context.Context) error {
	var langs []libreLanguage
	if err := t.http.GetJSON(ctx, t.baseURL+"/languages", &langs); err != nil {
		return fmt.Errorf("[LibreTranslator] languages: %w", err)
	}
	for _, l := range langs {
		if l.Code == "en" {
			return nil
		}
	}
	return fmt.Errorf("[LibreTranslator] english is not installed on %s", t.baseURL)
}
