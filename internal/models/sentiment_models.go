package models

type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNeutral  SentimentLabel = "Neutral"
	SentimentNegative SentimentLabel = "Negative"
)

type SentimentResult struct {
	Label    SentimentLabel `json:"sentiment"`
	Polarity float64        `json:"polarity"`
	Glyph    string         `json:"emoji"`
}

// SentimentBucket summarizes the words of one category. Percent is kept at
// full precision; callers format it with two decimals for display.
type SentimentBucket struct {
	Category    SentimentLabel `json:"category"`
	Count       int            `json:"count"`
	Percent     float64        `json:"percent"`
	SampleWords []string       `json:"sample_words"`
	Truncated   bool           `json:"truncated"`
}

// SentimentBreakdown buckets are always ordered Negative, Neutral, Positive.
type SentimentBreakdown struct {
	Total   int                `json:"total_words"`
	Buckets [3]SentimentBucket `json:"buckets"`
}
