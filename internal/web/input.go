package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spacesedan/hinglishflow/internal/models"
	"github.com/spacesedan/hinglishflow/internal/sentiment"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const multipartMemory = 1 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Form field names. The legacy names are still accepted from older pages.
const (
	fieldInputMethod       = "input_method"
	fieldInputMethodLegacy = "radiobtn"
	fieldKeyboard          = "hinglish"
	fieldVoice             = "voice_text"
	fieldVoiceLegacy       = "text3"
	fieldUpload            = "upload"
	fieldUploadLegacy      = "myfile"
)

type submission struct {
	Method models.InputMethod
	Text   string
	// Filename is set for file submissions.
	Filename string
}

func parseInputMethod(raw string) (models.InputMethod, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "keyboard", "1":
		return models.InputKeyboard, nil
	case "voice", "2":
		return models.InputVoice, nil
	case "file", "3":
		return models.InputFile, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidInputMethod, raw)
	}
}

func firstValue(r *http.Request, keys ...string) string {
	for _, k := range keys {
		if v := r.FormValue(k); v != "" {
			return v
		}
	}
	return ""
}

// readSubmission parses the conversion form. Every validation error is
// returned before any conversion work happens, and multipart temp files are
// removed before it returns.
func readSubmission(w http.ResponseWriter, r *http.Request, maxBytes int64, stripMarkdown bool) (submission, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	err := r.ParseMultipartForm(multipartMemory)
	if r.MultipartForm != nil {
		defer func() {
			if rmErr := r.MultipartForm.RemoveAll(); rmErr != nil {
				slog.Warn("[Web] Failed to remove multipart temp files", slog.String("error", rmErr.Error()))
			}
		}()
	}
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return submission{}, ErrFileTooLarge
		}
		return submission{}, fmt.Errorf("[Web] parse form: %w", err)
	}

	method, err := parseInputMethod(firstValue(r, fieldInputMethod, fieldInputMethodLegacy))
	if err != nil {
		return submission{}, err
	}

	switch method {
	case models.InputKeyboard:
		return submission{Method: method, Text: r.FormValue(fieldKeyboard)}, nil
	case models.InputVoice:
		return submission{Method: method, Text: firstValue(r, fieldVoice, fieldVoiceLegacy)}, nil
	default:
		return readUpload(r, stripMarkdown)
	}
}

func readUpload(r *http.Request, stripMarkdown bool) (submission, error) {
	file, header, err := r.FormFile(fieldUpload)
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile(fieldUploadLegacy)
	}
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) && hasEmptyFilePart(r) {
			return submission{}, ErrEmptyFilename
		}
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return submission{}, ErrNoFile
		}
		return submission{}, fmt.Errorf("[Web] open upload: %w", err)
	}
	defer file.Close()

	name := strings.TrimSpace(filepath.Base(header.Filename))
	if name == "" || name == "." || name == "/" {
		return submission{}, ErrEmptyFilename
	}
	if !allowedFile(name) {
		return submission{}, fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, name)
	}

	content, err := io.ReadAll(file)
	if err != nil {
		return submission{}, fmt.Errorf("[Web] read upload: %w", err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)
	if !utf8.Valid(content) {
		return submission{}, ErrNotText
	}

	text := string(content)
	if stripMarkdown {
		text = sentiment.PlainText(text)
	}
	return submission{Method: models.InputFile, Text: text, Filename: name}, nil
}

// hasEmptyFilePart reports whether the upload field was sent with an empty
// filename. Browsers do that when no file was picked, and mime/multipart
// files such a part under the plain form values.
func hasEmptyFilePart(r *http.Request) bool {
	if r.MultipartForm == nil {
		return false
	}
	for _, field := range []string{fieldUpload, fieldUploadLegacy} {
		if _, ok := r.MultipartForm.Value[field]; ok {
			return true
		}
	}
	return false
}

func allowedFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".txt")
}
