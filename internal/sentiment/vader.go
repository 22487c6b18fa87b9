package sentiment

import (
	"html"
	"math"
	"regexp"
	"strings"

	"github.com/jonreiter/govader"
	"github.com/russross/blackfriday/v2"

	"github.com/spacesedan/hinglishflow/internal/models"
)

const (
	// PositiveThreshold and NegativeThreshold bound the neutral dead-zone.
	PositiveThreshold = 0.05
	NegativeThreshold = -0.05

	maxSampleWords = 5
)

var glyphs = map[models.SentimentLabel]string{
	models.SentimentPositive: "😄",
	models.SentimentNeutral:  "😐",
	models.SentimentNegative: "😞",
}

var analyzer = govader.NewSentimentIntensityAnalyzer()

var (
	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

func RemoveLinks(input string) string {
	input = linkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// PlainText renders markdown and strips the resulting markup so only the
// readable text remains.
func PlainText(input string) string {
	input = RemoveLinks(input)
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	text := html.UnescapeString(tagPattern.ReplaceAllString(string(output), " "))

	return strings.Join(strings.Fields(text), " ")
}

// Polarity returns the VADER compound score of text, in [-1, 1].
func Polarity(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return analyzer.PolarityScores(text).Compound
}

func Label(score float64) models.SentimentLabel {
	switch {
	case score > PositiveThreshold:
		return models.SentimentPositive
	case score < NegativeThreshold:
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

func Glyph(label models.SentimentLabel) string {
	return glyphs[label]
}

func Classify(text string) models.SentimentResult {
	score := Polarity(text)
	label := Label(score)

	return models.SentimentResult{
		Label:    label,
		Polarity: round2(score),
		Glyph:    Glyph(label),
	}
}

// Breakdown scores every whitespace-separated word on its own and reports
// how the words split across the three categories. The overall polarity
// does not change the bucket data.
func Breakdown(text string, polarity float64) models.SentimentBreakdown {
	words := strings.Fields(text)
	out := models.SentimentBreakdown{
		Total: len(words),
		Buckets: [3]models.SentimentBucket{
			{Category: models.SentimentNegative, SampleWords: []string{}},
			{Category: models.SentimentNeutral, SampleWords: []string{}},
			{Category: models.SentimentPositive, SampleWords: []string{}},
		},
	}

	for _, word := range words {
		b := &out.Buckets[bucketIndex(Label(Polarity(word)))]
		b.Count++
		if len(b.SampleWords) < maxSampleWords {
			b.SampleWords = append(b.SampleWords, word)
		} else {
			b.Truncated = true
		}
	}

	if out.Total == 0 {
		return out
	}
	for i := range out.Buckets {
		out.Buckets[i].Percent = float64(out.Buckets[i].Count) / float64(out.Total) * 100
	}
	return out
}

func bucketIndex(label models.SentimentLabel) int {
	switch label {
	case models.SentimentNegative:
		return 0
	case models.SentimentPositive:
		return 2
	default:
		return 1
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
