package translate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/hinglishflow/internal/clients"
)

func TestNoop(t *testing.T) {
	out, err := Noop{}.Translate(context.Background(), "kal milte hai")
	require.NoError(t, err)
	assert.Equal(t, "kal milte hai", out)
	assert.NoError(t, Noop{}.HealthCheck(context.Background()))
}

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  See you tomorrow  ", "See you tomorrow"},
		{"\"See you tomorrow\"", "See you tomorrow"},
		{"“See you tomorrow”", "See you tomorrow"},
		{"```text\nSee you tomorrow\n```", "See you tomorrow"},
		{"He said \"hi\" to me", "He said \"hi\" to me"},
		{"\"", "\""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanResponse(tt.in), tt.in)
	}
}

func newLibre(t *testing.T, h http.HandlerFunc) *LibreTranslator {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jc := clients.NewJSONClient("libretranslate", time.Second)
	jc.InitialBackoff = time.Millisecond
	return NewLibreTranslator(jc, srv.URL+"/")
}

func TestLibreTranslator_Translate(t *testing.T) {
	tr := newLibre(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/translate", r.URL.Path)
		var req libreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "auto", req.Source)
		assert.Equal(t, "en", req.Target)
		assert.Equal(t, "text", req.Format)

		_ = json.NewEncoder(w).Encode(libreResponse{TranslatedText: " I will meet you tomorrow "})
	})

	out, err := tr.Translate(context.Background(), "main kal milunga")
	require.NoError(t, err)
	assert.Equal(t, "I will meet you tomorrow", out)
}

func TestLibreTranslator_EmptyTranslation(t *testing.T) {
	tr := newLibre(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(libreResponse{})
	})

	_, err := tr.Translate(context.Background(), "kya haal hai")
	assert.ErrorIs(t, err, ErrEmptyTranslation)
}

func TestLibreTranslator_BlankInputSkipsBackend(t *testing.T) {
	tr := newLibre(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("backend should not be called")
	})

	out, err := tr.Translate(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "   ", out)
}

func TestLibreTranslator_HealthCheck(t *testing.T) {
	healthy := newLibre(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/languages", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]libreLanguage{{Code: "hi", Name: "Hindi"}, {Code: "en", Name: "English"}})
	})
	assert.NoError(t, healthy.HealthCheck(context.Background()))

	noEnglish := newLibre(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]libreLanguage{{Code: "hi", Name: "Hindi"}})
	})
	assert.Error(t, noEnglish.HealthCheck(context.Background()))
}

func newOpenAI(t *testing.T, h http.HandlerFunc) *OpenAITranslator {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client := openai.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithMaxRetries(0),
	)
	return NewOpenAITranslator(client, "gpt-4o-mini")
}

func TestOpenAITranslator_Translate(t *testing.T) {
	tr := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 0,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "\"Please come home on time\""}}]
		}`))
	})

	out, err := tr.Translate(context.Background(), "pls ghar time pe aao")
	require.NoError(t, err)
	assert.Equal(t, "Please come home on time", out)
}

func TestOpenAITranslator_ServerError(t *testing.T) {
	tr := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	})

	_, err := tr.Translate(context.Background(), "namaste")
	assert.Error(t, err)
	assert.Error(t, tr.HealthCheck(context.Background()))
}

func TestOpenAITranslator_HealthCheck(t *testing.T) {
	tr := newOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/models/gpt-4o-mini", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "gpt-4o-mini", "object": "model", "created": 0, "owned_by": "openai"}`))
	})

	assert.NoError(t, tr.HealthCheck(context.Background()))
}
