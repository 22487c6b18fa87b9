package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacesedan/hinglishflow/internal/models"
)

type fakeConverter struct {
	mu     sync.Mutex
	inputs []string
	panics bool
}

func (f *fakeConverter) Convert(_ context.Context, input string) models.PipelineResult {
	f.mu.Lock()
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()
	if f.panics {
		panic("boom")
	}
	return models.PipelineResult{Text: strings.ToUpper(input)}
}

func (f *fakeConverter) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.inputs...)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []models.ConversionEvent
}

func (f *fakeEvents) Publish(ev models.ConversionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func newTestServer(t *testing.T, conv *fakeConverter, opts Options, checkers ...Checker) (http.Handler, *fakeEvents) {
	t.Helper()
	ev := &fakeEvents{}
	s, err := NewServer(Deps{Converter: conv, Events: ev, Checkers: checkers}, opts)
	require.NoError(t, err)
	return s.Handler(), ev
}

func postForm(h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postUpload(t *testing.T, h http.Handler, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("upload", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPages(t *testing.T) {
	h, _ := newTestServer(t, &fakeConverter{}, Options{})

	tests := []struct {
		path string
		want string
	}{
		{"/", "Start converting"},
		{"/home", `name="input_method"`},
		{"/about", "About"},
		{"/help", "Reading the chart"},
		{"/about_page", "About"},
		{"/help_page", "Help"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConvertForm_Keyboard(t *testing.T) {
	conv := &fakeConverter{}
	h, ev := newTestServer(t, conv, Options{})

	rec := postForm(h, "/convert", url.Values{
		"input_method": {"keyboard"},
		"hinglish":     {"i am very happy today"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "I AM VERY HAPPY TODAY")
	assert.Contains(t, body, "Positive")
	assert.Contains(t, body, "😄")
	assert.Contains(t, body, "Sentiment Analysis Breakdown")
	assert.Equal(t, []string{"i am very happy today"}, conv.calls())

	require.Len(t, ev.events, 1)
	assert.Equal(t, models.InputKeyboard, ev.events[0].InputMethod)
	assert.Equal(t, models.SentimentPositive, ev.events[0].SentimentLabel)
	assert.Equal(t, 5, ev.events[0].WordCount)
}

func TestConvertForm_LegacyVoiceFields(t *testing.T) {
	conv := &fakeConverter{}
	h, _ := newTestServer(t, conv, Options{})

	rec := postForm(h, "/radio_check", url.Values{
		"radiobtn": {"2"},
		"text3":    {"kal milte hai"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"kal milte hai"}, conv.calls())
}

func TestConvertForm_EmptyKeyboardInput(t *testing.T) {
	conv := &fakeConverter{}
	h, _ := newTestServer(t, conv, Options{})

	rec := postForm(h, "/convert", url.Values{"input_method": {"keyboard"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Neutral")
	assert.Equal(t, []string{""}, conv.calls())
}

func TestConvertForm_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		send func(t *testing.T, h http.Handler) *httptest.ResponseRecorder
		want string
	}{
		{
			name: "invalid method",
			send: func(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
				return postForm(h, "/convert", url.Values{"input_method": {"telepathy"}, "hinglish": {"namaste"}})
			},
			want: "Invalid input method",
		},
		{
			name: "missing method",
			send: func(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
				return postForm(h, "/convert", url.Values{"hinglish": {"namaste"}})
			},
			want: "Invalid input method",
		},
		{
			name: "pdf upload",
			send: func(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
				return postUpload(t, h, map[string]string{"input_method": "file"}, "notes.pdf", []byte("%PDF-1.7"))
			},
			want: "File type not allowed",
		},
		{
			name: "no file",
			send: func(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
				return postUpload(t, h, map[string]string{"input_method": "file"}, "", nil)
			},
			want: "Please choose a file to upload",
		},
		{
			name: "file method on urlencoded form",
			send: func(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
				return postForm(h, "/convert", url.Values{"input_method": {"3"}})
			},
			want: "Please choose a file to upload",
		},
		{
			name: "not utf-8",
			send: func(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
				return postUpload(t, h, map[string]string{"input_method": "file"}, "notes.txt", []byte{0xff, 0xfe, 0x00, 0x41})
			},
			want: "could not be read as UTF-8 text",
		},
		{
			name: "too large",
			send: func(t *testing.T, h http.Handler) *httptest.ResponseRecorder {
				return postUpload(t, h, map[string]string{"input_method": "file"}, "notes.txt", bytes.Repeat([]byte("a"), 4096))
			},
			want: "File is too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{}
			h, ev := newTestServer(t, conv, Options{MaxUploadBytes: 1024})

			rec := tt.send(t, h)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
			assert.Empty(t, conv.calls(), "conversion must not run")
			assert.Empty(t, ev.events)
		})
	}
}

func TestConvertForm_TextFile(t *testing.T) {
	conv := &fakeConverter{}
	h, _ := newTestServer(t, conv, Options{StripMarkdown: true})

	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("# Notes\n\nmain **bahut** khush hoon")...)
	rec := postUpload(t, h, map[string]string{"input_method": "file"}, "Notes.TXT", content)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Notes main bahut khush hoon"}, conv.calls())
}

func TestConvertForm_TextFileRaw(t *testing.T) {
	conv := &fakeConverter{}
	h, _ := newTestServer(t, conv, Options{StripMarkdown: false})

	rec := postUpload(t, h, map[string]string{"input_method": "file"}, "notes.txt", []byte("**pls** aao"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"**pls** aao"}, conv.calls())
}

func TestConvertForm_TextFileVerbatimByDefault(t *testing.T) {
	conv := &fakeConverter{}
	h, _ := newTestServer(t, conv, Options{})

	content := "2*3 aur 4*5 barabar nahi\nfile_name_here dekho\ndetails www.example.com pe hai\n#1 dost ho tum"
	rec := postUpload(t, h, map[string]string{"input_method": "file"}, "notes.txt", []byte(content))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{content}, conv.calls())
}

func TestConvertForm_EmptyFilename(t *testing.T) {
	conv := &fakeConverter{}
	h, ev := newTestServer(t, conv, Options{})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("input_method", "file"))
	_, err := mw.CreateFormFile("upload", "")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "No selected file")
	assert.Empty(t, conv.calls())
	assert.Empty(t, ev.events)
}

func TestConvertForm_PanicShowsGenericError(t *testing.T) {
	h, _ := newTestServer(t, &fakeConverter{panics: true}, Options{})

	rec := postForm(h, "/convert", url.Values{"input_method": {"keyboard"}, "hinglish": {"x"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), genericErrorMessage)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestConvertAPI(t *testing.T) {
	conv := &fakeConverter{}
	h, ev := newTestServer(t, conv, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/convert",
		strings.NewReader(`{"text": "this is a terrible day", "input_method": "voice"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "THIS IS A TERRIBLE DAY", resp.Text)
	assert.Equal(t, models.SentimentNegative, resp.Sentiment.Label)
	assert.Equal(t, 5, resp.Breakdown.Total)
	require.Len(t, resp.Chart.Data, 1)
	assert.Equal(t, []string{"Negative", "Neutral", "Positive"}, resp.Chart.Data[0].X)

	require.Len(t, ev.events, 1)
	assert.Equal(t, models.InputVoice, ev.events[0].InputMethod)
}

func TestConvertAPI_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "hello"},
		{"unknown field", `{"txt": "hello"}`},
		{"bad method", `{"text": "hello", "input_method": "fax"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv := &fakeConverter{}
			h, _ := newTestServer(t, conv, Options{})

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/convert", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			assert.Empty(t, conv.calls())
		})
	}
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestServer(t, &fakeConverter{}, Options{},
		Checker{Name: "notations", Check: func(context.Context) error { return nil }},
		Checker{Name: "translator", Check: func(context.Context) error { return errors.New("connection refused") }},
	)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var res healthResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "fail", res.Status)
	assert.Equal(t, "ok", res.Checks["notations"])
	assert.Equal(t, "fail: connection refused", res.Checks["translator"])
}

func TestParseInputMethod(t *testing.T) {
	for raw, want := range map[string]models.InputMethod{
		"keyboard": models.InputKeyboard,
		"1":        models.InputKeyboard,
		" Voice ":  models.InputVoice,
		"2":        models.InputVoice,
		"FILE":     models.InputFile,
		"3":        models.InputFile,
	} {
		got, err := parseInputMethod(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	_, err := parseInputMethod("4")
	assert.ErrorIs(t, err, ErrInvalidInputMethod)
}

func TestNewServer_RequiresConverter(t *testing.T) {
	_, err := NewServer(Deps{}, Options{})
	assert.Error(t, err)
}
