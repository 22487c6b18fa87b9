// Package web serves the conversion form, the JSON API and the operational
// endpoints.
package web

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/spacesedan/hinglishflow/config"
	"github.com/spacesedan/hinglishflow/internal/models"
	"github.com/spacesedan/hinglishflow/internal/observe"
)

const shutdownTimeout = 10 * time.Second

// Converter runs the text pipeline. It must never fail.
type Converter interface {
	Convert(ctx context.Context, input string) models.PipelineResult
}

// EventPublisher receives one event per completed conversion.
type EventPublisher interface {
	Publish(ev models.ConversionEvent)
}

type Deps struct {
	Converter Converter
	Events    EventPublisher
	Metrics   *observe.Metrics
	Checkers  []Checker
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

type Options struct {
	MaxUploadBytes int64
	StripMarkdown  bool
	AllowedOrigins []string
}

type Server struct {
	converter Converter
	events    EventPublisher
	metrics   *observe.Metrics
	checkers  []Checker
	promHTTP  http.Handler
	opts      Options
	pages     map[string]*template.Template
}

func NewServer(deps Deps, opts Options) (*Server, error) {
	if deps.Converter == nil {
		return nil, errors.New("[Web] a converter is required")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = config.DefaultMaxUploadBytes
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	return &Server{
		converter: deps.Converter,
		events:    deps.Events,
		metrics:   deps.Metrics,
		checkers:  append([]Checker(nil), deps.Checkers...),
		promHTTP:  deps.MetricsHandler,
		opts:      opts,
		pages:     pages,
	}, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.page("index"))
	mux.HandleFunc("GET /home", s.handleHome)
	mux.HandleFunc("GET /about", s.page("about"))
	mux.HandleFunc("GET /help", s.page("help"))
	mux.HandleFunc("GET /about_page", s.page("about"))
	mux.HandleFunc("GET /help_page", s.page("help"))

	mux.HandleFunc("POST /convert", s.handleConvertForm)
	mux.HandleFunc("POST /radio_check", s.handleConvertForm)
	mux.HandleFunc("POST /api/convert", s.handleConvertAPI)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	if s.promHTTP != nil {
		mux.Handle("GET /metrics", s.promHTTP)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})

	return observe.Middleware(s.metrics)(c.Handler(recoverer(mux)))
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[Web] Listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("[Web] Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// recoverer turns a panic into the generic error page and keeps the process
// serving.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				slog.Error("[Web] Recovered from panic",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec))
				http.Error(w, genericErrorMessage, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
