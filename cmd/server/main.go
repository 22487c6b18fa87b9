package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/hinglishflow/config"
	"github.com/spacesedan/hinglishflow/internal/clients"
	"github.com/spacesedan/hinglishflow/internal/logging"
	"github.com/spacesedan/hinglishflow/internal/monitoring"
	"github.com/spacesedan/hinglishflow/internal/notation"
	"github.com/spacesedan/hinglishflow/internal/observe"
	"github.com/spacesedan/hinglishflow/internal/pipeline"
	"github.com/spacesedan/hinglishflow/internal/web"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		logging.InitLogger(slog.LevelInfo)
		slog.Error("[Main] Invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("[Main] Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("[Main] Shutdown complete")
}

func run(cfg config.AppConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics, shutdownMetrics, err := observe.InitProvider()
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()

	store, closeStore, err := buildNotationStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	translator, err := buildTranslator(cfg)
	if err != nil {
		return err
	}

	spellChecker, err := buildSpellChecker(cfg)
	if err != nil {
		return err
	}

	idioms, err := buildIdiomNormalizer(cfg)
	if err != nil {
		return err
	}

	translatorHealthy := &atomic.Bool{}
	translatorHealthy.Store(true)

	conv := pipeline.New(pipeline.Deps{
		Translator:        translator,
		Notation:          notation.NewResolver(store),
		Spell:             spellChecker,
		Idiom:             idioms,
		TranslatorHealthy: translatorHealthy,
		Metrics:           metrics,
	}, pipeline.Config{
		TranslatorTimeout: cfg.TranslatorTimeout,
		IdiomTimeout:      cfg.IdiomTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)

	publisher, producer, err := buildEventPublisher(cfg)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
	}

	checkers := []web.Checker{{Name: "notations", Check: store.Ping}}
	if cached, ok := store.(*notation.CachedStore); ok {
		checkers = append(checkers, web.Checker{Name: "notation-cache", Check: cached.PingCache})
	}
	if cfg.TranslatorBackend != config.TranslatorBackendNone {
		checkers = append(checkers, web.Checker{Name: "translator", Check: translator.HealthCheck})

		g.Go(func() error {
			monitoring.MonitorTranslatorHealth(gctx, translator, translatorHealthy, metrics)
			return nil
		})
	}
	if cfg.NotationCache == config.NotationCacheValkey {
		defer clients.CloseValkey()
	}

	deps := web.Deps{
		Converter:      conv,
		Metrics:        metrics,
		Checkers:       checkers,
		MetricsHandler: observe.Handler(),
	}
	if publisher != nil {
		deps.Events = publisher
	}

	srv, err := web.NewServer(deps, web.Options{
		MaxUploadBytes: cfg.MaxUploadBytes,
		StripMarkdown:  cfg.StripMarkdown,
		AllowedOrigins: cfg.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	serve := func(ctx context.Context) error { return srv.ListenAndServe(ctx, cfg.ListenAddr) }
	g.Go(func() error {
		if publisher == nil {
			return serve(gctx)
		}
		return serveThenDrain(gctx, serve, publisher.Run)
	})

	return g.Wait()
}

// serveThenDrain runs drain alongside serve and stops it only once serve has
// returned, so events from requests finished during shutdown are flushed.
func serveThenDrain(ctx context.Context, serve, drain func(context.Context) error) error {
	drainCtx, stopDrain := context.WithCancel(context.WithoutCancel(ctx))
	defer stopDrain()

	drained := make(chan error, 1)
	go func() { drained <- drain(drainCtx) }()

	err := serve(ctx)
	stopDrain()
	if drainErr := <-drained; err == nil {
		err = drainErr
	}
	return err
}
