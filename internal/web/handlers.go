package web

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/spacesedan/hinglishflow/internal/chart"
	"github.com/spacesedan/hinglishflow/internal/models"
	"github.com/spacesedan/hinglishflow/internal/sentiment"
)

type homeView struct {
	Error  string
	Input  string
	Method models.InputMethod
	Result *resultView
}

type resultView struct {
	Text      string
	Flagged   []models.FlaggedToken
	Sentiment models.SentimentResult
	ChartJSON template.JS
}

type conversion struct {
	Result    models.PipelineResult
	Sentiment models.SentimentResult
	Breakdown models.SentimentBreakdown
	Figure    chart.Figure
}

type apiRequest struct {
	Text        string `json:"text"`
	InputMethod string `json:"input_method,omitempty"`
}

type apiResponse struct {
	Text      string                    `json:"text"`
	Flagged   []models.FlaggedToken     `json:"flagged,omitempty"`
	Sentiment models.SentimentResult    `json:"sentiment"`
	Breakdown models.SentimentBreakdown `json:"breakdown"`
	Chart     chart.Figure              `json:"chart"`
}

func (s *Server) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, name, nil)
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, "home", homeView{})
}

// convert runs the pipeline and scores the converted text. Sentiment is
// always computed on the pipeline output.
func (s *Server) convert(ctx context.Context, method models.InputMethod, text string) conversion {
	start := time.Now()

	result := s.converter.Convert(ctx, text)
	scored := sentiment.Classify(result.Text)
	breakdown := sentiment.Breakdown(result.Text, scored.Polarity)

	s.metrics.RecordConversion(ctx, string(method))
	if s.events != nil {
		s.events.Publish(models.ConversionEvent{
			InputMethod:    method,
			SentimentLabel: scored.Label,
			Polarity:       scored.Polarity,
			WordCount:      breakdown.Total,
			FlaggedCount:   len(result.Flagged),
			ElapsedMillis:  time.Since(start).Milliseconds(),
		})
	}

	return conversion{
		Result:    result,
		Sentiment: scored,
		Breakdown: breakdown,
		Figure:    chart.NewFigure(breakdown, scored.Polarity),
	}
}

func (s *Server) handleConvertForm(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[Web] Conversion panicked", slog.Any("panic", rec))
			s.render(w, "home", homeView{Error: genericErrorMessage})
		}
	}()

	sub, err := readSubmission(w, r, s.opts.MaxUploadBytes, s.opts.StripMarkdown)
	if err != nil {
		msg, known := userMessage(err)
		if known {
			slog.Info("[Web] Rejected submission", slog.String("error", err.Error()))
		} else {
			slog.Error("[Web] Failed to read submission", slog.String("error", err.Error()))
		}
		s.render(w, "home", homeView{Error: msg, Method: sub.Method})
		return
	}

	conv := s.convert(r.Context(), sub.Method, sub.Text)

	figJSON, err := conv.Figure.JSON()
	if err != nil {
		slog.Error("[Web] Failed to encode chart", slog.String("error", err.Error()))
		s.render(w, "home", homeView{Error: genericErrorMessage})
		return
	}

	view := homeView{
		Method: sub.Method,
		Result: &resultView{
			Text:      conv.Result.Text,
			Flagged:   conv.Result.Flagged,
			Sentiment: conv.Sentiment,
			ChartJSON: template.JS(figJSON),
		},
	}
	if sub.Method != models.InputFile {
		view.Input = sub.Text
	}
	s.render(w, "home", view)
}

func (s *Server) handleConvertAPI(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	var req apiRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg, _ := userMessage(ErrFileTooLarge)
			writeError(w, http.StatusRequestEntityTooLarge, msg)
			return
		}
		msg, _ := userMessage(ErrInvalidBody)
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	method := models.InputKeyboard
	if strings.TrimSpace(req.InputMethod) != "" {
		m, err := parseInputMethod(req.InputMethod)
		if err != nil {
			msg, _ := userMessage(err)
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		method = m
	}

	conv := s.convert(r.Context(), method, req.Text)
	writeJSON(w, http.StatusOK, apiResponse{
		Text:      conv.Result.Text,
		Flagged:   conv.Result.Flagged,
		Sentiment: conv.Sentiment,
		Breakdown: conv.Breakdown,
		Chart:     conv.Figure,
	})
}
