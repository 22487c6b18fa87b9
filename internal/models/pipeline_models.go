package models

// PipelineResult is produced fresh for every conversion and never persisted.
type PipelineResult struct {
	Text string `json:"text"`
	// Flagged lists tokens the dictionary did not recognize. It is advisory
	// and never changes Text.
	Flagged []FlaggedToken `json:"flagged,omitempty"`
}

type FlaggedToken struct {
	Token       string   `json:"token"`
	Suggestions []string `json:"suggestions,omitempty"`
}
