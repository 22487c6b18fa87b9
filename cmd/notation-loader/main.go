// Command notation-loader seeds the notation table from a YAML file into
// DynamoDB or PostgreSQL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/hinglishflow/config"
	"github.com/spacesedan/hinglishflow/internal/clients"
	"github.com/spacesedan/hinglishflow/internal/logging"
	"github.com/spacesedan/hinglishflow/internal/models"
	"github.com/spacesedan/hinglishflow/internal/notation"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.InitLogger(cfg.LogLevel)

	file := flag.String("file", cfg.NotationFile, "YAML notation seed")
	backend := flag.String("backend", cfg.NotationBackend, "target backend: dynamodb or postgres")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	entries, err := notation.LoadYAML(*file)
	if err != nil {
		slog.Error("[NotationLoader] Failed to read seed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("[NotationLoader] Read seed",
		slog.String("file", *file),
		slog.Int("entries", len(entries)))

	n, err := load(ctx, cfg, *backend, entries)
	if err != nil {
		slog.Error("[NotationLoader] Load failed",
			slog.String("backend", *backend),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("[NotationLoader] Done",
		slog.String("backend", *backend),
		slog.Int64("written", n))
}

func load(ctx context.Context, cfg config.AppConfig, backend string, entries []models.NotationEntry) (int64, error) {
	switch backend {
	case config.NotationBackendDynamoDB:
		client, err := clients.GetDynamoDBClient(ctx)
		if err != nil {
			return 0, err
		}
		n, err := notation.NewDynamoStore(client, cfg.NotationTable).PutEntries(ctx, entries)
		return int64(n), err

	case config.NotationBackendPostgres:
		if cfg.DatabaseURL == "" {
			return 0, fmt.Errorf("[NotationLoader] DATABASE_URL is required for postgres")
		}
		pool, err := clients.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return 0, err
		}
		defer pool.Close()

		store := notation.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			return 0, err
		}
		return store.InsertEntries(ctx, entries)

	default:
		return 0, fmt.Errorf("[NotationLoader] backend %q cannot be seeded, use dynamodb or postgres", backend)
	}
}
