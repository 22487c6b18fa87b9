package web

import "errors"

var (
	ErrInvalidInputMethod = errors.New("invalid input method")
	ErrNoFile             = errors.New("no file part")
	ErrEmptyFilename      = errors.New("no selected file")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file too large")
	ErrNotText            = errors.New("file is not valid UTF-8 text")
	ErrInvalidBody        = errors.New("invalid request body")
)

const genericErrorMessage = "An error occurred during processing"

var userMessages = map[error]string{
	ErrInvalidInputMethod: "Invalid input method",
	ErrNoFile:             "Please choose a file to upload",
	ErrEmptyFilename:      "No selected file",
	ErrFileTypeNotAllowed: "File type not allowed, only .txt files are accepted",
	ErrFileTooLarge:       "File is too large, the limit is 16 MB",
	ErrNotText:            "The file could not be read as UTF-8 text",
	ErrInvalidBody:        `Request body must be JSON with a "text" field`,
}

// userMessage maps validation errors to the text shown on the page. Anything
// else gets the generic message so internals never leak.
func userMessage(err error) (string, bool) {
	for sentinel, msg := range userMessages {
		if errors.Is(err, sentinel) {
			return msg, true
		}
	}
	return genericErrorMessage, false
}
