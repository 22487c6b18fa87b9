package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

const translationPrompt = `You translate Hinglish (Hindi written in Latin script, mixed with English) into natural English.
Reply with the English translation only. Keep chat abbreviations such as "pls" or "tmrw" exactly as written.
Do not add quotes, notes or explanations.`

type OpenAITranslator struct {
	client openai.Client
	model  string
}

func NewOpenAITranslator(client openai.Client, model string) *OpenAITranslator {
	return &OpenAITranslator{client: client, model: model}
}

func (t *OpenAITranslator) Name() string { return "openai" }

func (t *OpenAITranslator) Translate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(t.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(translationPrompt),
			openai.UserMessage(text),
		},
		Temperature: param.NewOpt(0.0),
	})
	if err != nil {
		return "", fmt.Errorf("[OpenAITranslator] chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("[OpenAITranslator] %w: no choices", ErrEmptyTranslation)
	}

	out := cleanResponse(resp.Choices[0].Message.Content)
	if out == "" {
		return "", fmt.Errorf("[OpenAITranslator] %w", ErrEmptyTranslation)
	}
	return out, nil
}

// HealthCheck confirms the configured model is reachable with the current key.
func (t *OpenAITranslator) HealthCheck(ctx context.Context) error {
	if _, err := t.client.Models.Get(ctx, t.model); err != nil {
		return fmt.Errorf("[OpenAITranslator] model %s unavailable: %w", t.model, err)
	}
	return nil
}

func cleanResponse(response string) string {
	response = strings.TrimSpace(response)

	response = strings.TrimPrefix(response, "```text")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	// models sometimes wrap the whole answer in quotes
	for _, pair := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if len(response) > 1 && strings.HasPrefix(response, pair[0]) && strings.HasSuffix(response, pair[1]) {
			response = strings.TrimSuffix(strings.TrimPrefix(response, pair[0]), pair[1])
		}
	}

	return strings.TrimSpace(response)
}
