package models

import "time"

type InputMethod string

const (
	InputKeyboard InputMethod = "keyboard"
	InputVoice    InputMethod = "voice"
	InputFile     InputMethod = "file"
)

// ConversionEvent is published after each completed conversion. It carries
// no user text.
type ConversionEvent struct {
	EventID        string         `json:"event_id"`
	InputMethod    InputMethod    `json:"input_method"`
	SentimentLabel SentimentLabel `json:"sentiment_label"`
	Polarity       float64        `json:"polarity"`
	WordCount      int            `json:"word_count"`
	FlaggedCount   int            `json:"flagged_count"`
	ElapsedMillis  int64          `json:"elapsed_ms"`
	Timestamp      time.Time      `json:"timestamp"`
}
