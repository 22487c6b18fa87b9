// Package chart shapes a sentiment breakdown into a Plotly figure. The
// browser renders it with plotly.js.
package chart

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spacesedan/hinglishflow/internal/models"
	"github.com/spacesedan/hinglishflow/internal/sentiment"
)

const (
	Title      = "Sentiment Analysis Breakdown"
	XAxisTitle = "Sentiment Categories"
	YAxisTitle = "Percentage of Words"

	figureSize = 500
)

// Bar colors in bucket order: Negative, Neutral, Positive.
var Colors = [3]string{"#FF6B6B", "#4ECDC4", "#45B7D1"}

type Figure struct {
	Data   []Bar  `json:"data"`
	Layout Layout `json:"layout"`
}

type Bar struct {
	Type         string    `json:"type"`
	X            []string  `json:"x"`
	Y            []float64 `json:"y"`
	Text         []string  `json:"text"`
	TextPosition string    `json:"textposition"`
	HoverText    []string  `json:"hovertext"`
	HoverInfo    string    `json:"hoverinfo"`
	Marker       Marker    `json:"marker"`
}

type Marker struct {
	Color []string `json:"color"`
}

type Layout struct {
	Title        TitleSpec `json:"title"`
	XAxis        Axis      `json:"xaxis"`
	YAxis        Axis      `json:"yaxis"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	PaperBGColor string    `json:"paper_bgcolor"`
	PlotBGColor  string    `json:"plot_bgcolor"`
}

type TitleSpec struct {
	Text string `json:"text"`
	Font Font   `json:"font"`
}

type Font struct {
	Color string `json:"color"`
}

type Axis struct {
	Title TitleSpec `json:"title"`
	Range []float64 `json:"range,omitempty"`
}

// NewFigure builds the bar chart for b. The overall polarity only picks the
// title color; the bars always come from b.
func NewFigure(b models.SentimentBreakdown, polarity float64) Figure {
	bar := Bar{
		Type:         "bar",
		X:            make([]string, 0, len(b.Buckets)),
		Y:            make([]float64, 0, len(b.Buckets)),
		Text:         make([]string, 0, len(b.Buckets)),
		TextPosition: "auto",
		HoverText:    make([]string, 0, len(b.Buckets)),
		HoverInfo:    "text",
		Marker:       Marker{Color: Colors[:]},
	}

	for _, bucket := range b.Buckets {
		bar.X = append(bar.X, string(bucket.Category))
		bar.Y = append(bar.Y, bucket.Percent)
		bar.Text = append(bar.Text, fmt.Sprintf("%.2f%%", bucket.Percent))
		bar.HoverText = append(bar.HoverText, HoverText(bucket))
	}

	return Figure{
		Data: []Bar{bar},
		Layout: Layout{
			Title: TitleSpec{Text: Title, Font: Font{Color: accent(polarity)}},
			XAxis: Axis{Title: TitleSpec{Text: XAxisTitle}},
			YAxis: Axis{Title: TitleSpec{Text: YAxisTitle}, Range: []float64{0, 100}},
			Width: figureSize, Height: figureSize,
			PaperBGColor: "white",
			PlotBGColor:  "white",
		},
	}
}

// HoverText renders the tooltip for one bar, for example
// "Negative Words: 2<br>Percentage: 40.00%<br>Words: bad, sad".
func HoverText(bucket models.SentimentBucket) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Words: %d<br>Percentage: %.2f%%<br>Words: %s",
		bucket.Category, bucket.Count, bucket.Percent, strings.Join(bucket.SampleWords, ", "))
	if bucket.Truncated {
		b.WriteString("...")
	}
	return b.String()
}

func (f Figure) JSON() ([]byte, error) {
	return json.Marshal(f)
}

func accent(polarity float64) string {
	switch sentiment.Label(polarity) {
	case models.SentimentNegative:
		return Colors[0]
	case models.SentimentPositive:
		return Colors[2]
	default:
		return Colors[1]
	}
}
