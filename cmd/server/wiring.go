package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spacesedan/hinglishflow/config"
	"github.com/spacesedan/hinglishflow/internal/clients"
	"github.com/spacesedan/hinglishflow/internal/clients/kafka_client"
	"github.com/spacesedan/hinglishflow/internal/events"
	"github.com/spacesedan/hinglishflow/internal/idiom"
	"github.com/spacesedan/hinglishflow/internal/notation"
	"github.com/spacesedan/hinglishflow/internal/spell"
	"github.com/spacesedan/hinglishflow/internal/translate"
)

func buildNotationStore(ctx context.Context, cfg config.AppConfig) (notation.Store, func(), error) {
	var (
		store   notation.Store
		closeFn = func() {}
	)

	switch cfg.NotationBackend {
	case config.NotationBackendPostgres:
		pool, err := clients.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg := notation.NewPostgresStore(pool)
		if err := pg.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		store, closeFn = pg, pool.Close

	case config.NotationBackendDynamoDB:
		client, err := clients.GetDynamoDBClient(ctx)
		if err != nil {
			return nil, nil, err
		}
		store = notation.NewDynamoStore(client, cfg.NotationTable)

	default:
		entries, err := notation.LoadYAML(cfg.NotationFile)
		if err != nil {
			return nil, nil, err
		}
		mem := notation.NewMemoryStore(entries)
		slog.Info("[Main] Loaded notation table",
			slog.String("file", cfg.NotationFile),
			slog.Int("entries", mem.Len()))
		store = mem
	}

	if cfg.NotationCache == config.NotationCacheValkey {
		cache, err := clients.InitValkey()
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		store = notation.NewCachedStore(store, cache, cfg.NotationCacheTTL)
	}

	slog.Info("[Main] Notation store ready",
		slog.String("backend", cfg.NotationBackend),
		slog.String("cache", cfg.NotationCache))
	return store, closeFn, nil
}

func buildTranslator(cfg config.AppConfig) (translate.Translator, error) {
	switch cfg.TranslatorBackend {
	case config.TranslatorBackendOpenAI:
		c, err := clients.GetOpenAIClient()
		if err != nil {
			return nil, err
		}
		return translate.NewOpenAITranslator(c.Client, cfg.OpenAIModel), nil
	case config.TranslatorBackendLibreTranslate:
		httpClient := clients.NewJSONClient("libretranslate", cfg.TranslatorTimeout)
		return translate.NewLibreTranslator(httpClient, cfg.LibreTranslateURL), nil
	default:
		return translate.Noop{}, nil
	}
}

func buildSpellChecker(cfg config.AppConfig) (*spell.Checker, error) {
	if cfg.DictionaryPath == "" {
		return spell.New(), nil
	}
	checker, err := spell.Load(cfg.DictionaryPath)
	if err != nil {
		return nil, fmt.Errorf("[Main] load dictionary: %w", err)
	}
	slog.Info("[Main] Loaded dictionary", slog.Int("words", checker.Size()))
	return checker, nil
}

func buildIdiomNormalizer(cfg config.AppConfig) (*idiom.Normalizer, error) {
	var (
		corpus *idiom.Corpus
		err    error
	)
	if cfg.IdiomFile != "" {
		corpus, err = idiom.LoadCorpus(cfg.IdiomFile)
	} else {
		corpus, err = idiom.DefaultCorpus()
	}
	if err != nil {
		return nil, fmt.Errorf("[Main] load idioms: %w", err)
	}
	slog.Info("[Main] Loaded idiom corpus", slog.Int("idioms", corpus.Len()))
	return idiom.NewNormalizer(corpus), nil
}

// buildEventPublisher returns nils when KAFKA_BROKER is unset.
func buildEventPublisher(cfg config.AppConfig) (*events.Publisher, *kafka_client.Producer, error) {
	if cfg.KafkaBroker == "" {
		return nil, nil, nil
	}

	kcfg := kafka_client.GetKafkaConfig()
	kcfg.Broker = cfg.KafkaBroker
	kcfg.Topic = cfg.KafkaConversionTopic

	producer, err := kafka_client.NewProducer(kcfg)
	if err != nil {
		return nil, nil, err
	}
	return events.NewPublisher(producer, kcfg.Topic, kafka_client.BATCH_SIZE, kafka_client.BATCH_TIMEOUT), producer, nil
}
